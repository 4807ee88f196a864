package main // Entry point package

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/EldonT123/bs-reviews/internal/config"
	"github.com/EldonT123/bs-reviews/internal/handler"
	"github.com/EldonT123/bs-reviews/internal/middleware"
	"github.com/EldonT123/bs-reviews/internal/queue"
	"github.com/EldonT123/bs-reviews/internal/repository"
	"github.com/EldonT123/bs-reviews/internal/router"
	"github.com/EldonT123/bs-reviews/internal/service"
	"github.com/EldonT123/bs-reviews/internal/session"
)

func newLogger(env string) *zap.Logger {
	if env == "prod" {
		log, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return log
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return log
}

func main() {
	cfg := config.Load()
	log := newLogger(cfg.Env)
	defer log.Sync()

	// Flat-file repositories, all rooted at DATA_DIR.
	users := repository.NewUserRepo(cfg.DataDir)
	admins := repository.NewAdminRepo(cfg.DataDir)
	blacklist := repository.NewBlacklistRepo(cfg.DataDir)
	bookmarks := repository.NewBookmarkRepo(cfg.DataDir)
	purchases := repository.NewPurchaseRepo(cfg.DataDir)
	movies := repository.NewMovieRepo(cfg.DataDir)
	reviews := repository.NewReviewRepo(cfg.DataDir)

	// Seed the bootstrap admin when configured, so a fresh deployment has a
	// way in.
	if email := config.AdminSeedEmail(); email != "" {
		if err := admins.EnsureSeed(email, config.AdminSeedPassword(), cfg.BcryptCost); err != nil {
			log.Fatal("seed admin failed", zap.Error(err))
		}
	}

	// Session registry: in-process by default, Redis when configured and
	// reachable.
	rdb := config.NewRedisClient()
	var sessions session.Store
	if cfg.SessionBackend == "redis" && rdb != nil {
		sessions = session.NewRedisStore(rdb, cfg.SessionTTL)
		log.Info("session backend: redis")
	} else {
		if cfg.SessionBackend == "redis" {
			log.Warn("redis unavailable, falling back to in-memory sessions")
		}
		sessions = session.NewMemoryStore(cfg.SessionTTL)
		log.Info("session backend: memory")
	}

	audit := service.NewAuditPublisher(cfg.RabbitURL, log)
	if cfg.RabbitURL != "" {
		go queue.StartAuditConsumer(cfg.RabbitURL, log)
	}

	bans := &service.BanService{
		Users:     users,
		Blacklist: blacklist,
		Reviews:   reviews,
		Bookmarks: bookmarks,
		Sessions:  sessions,
		Audit:     audit,
		Log:       log,
	}
	store := service.NewStoreService(users, purchases, audit, log)
	search := &service.SearchService{Movies: movies, Log: log}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.CatalogRefreshOn {
		refresher := service.NewCatalogRefresher(movies, cfg.DataDir, cfg.CatalogRefresh, log)
		refresher.Start(ctx)
	}

	// Expired sessions are dropped lazily on verification; the hourly sweep
	// just keeps the in-memory maps from growing unbounded.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.Sweep(); n > 0 {
					log.Info("swept expired sessions", zap.Int("count", n))
				}
			}
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	userAuth := middleware.SessionAuth(sessions, users)
	adminAuth := middleware.AdminAuth(sessions, admins)
	// Registered per group behind the auth middlewares so the limiter keys
	// on the authenticated principal rather than always on "guest".
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterUsers(e, handler.NewUserHandler(cfg, users, blacklist, bookmarks, movies, sessions), userAuth, limit)
	router.RegisterAdmin(e, handler.NewAdminHandler(cfg, admins, users, movies, reviews, sessions, bans), adminAuth, limit)
	router.RegisterReviews(e, handler.NewReviewHandler(users, movies, reviews, sessions, audit), userAuth, limit)
	router.RegisterSearch(e, handler.NewSearchHandler(search), limit)
	router.RegisterStore(e, handler.NewStoreHandler(store), userAuth, limit)

	addr := ":" + cfg.Port
	log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
