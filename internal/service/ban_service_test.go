package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/EldonT123/bs-reviews/internal/model"
	"github.com/EldonT123/bs-reviews/internal/repository"
	"github.com/EldonT123/bs-reviews/internal/session"
)

type banFixture struct {
	dir       string
	users     *repository.UserRepo
	blacklist *repository.BlacklistRepo
	reviews   *repository.ReviewRepo
	bookmarks *repository.BookmarkRepo
	movies    *repository.MovieRepo
	sessions  *session.MemoryStore
	svc       *BanService
}

func newBanFixture(t *testing.T) *banFixture {
	t.Helper()
	dir := t.TempDir()
	f := &banFixture{
		dir:       dir,
		users:     repository.NewUserRepo(dir),
		blacklist: repository.NewBlacklistRepo(dir),
		reviews:   repository.NewReviewRepo(dir),
		bookmarks: repository.NewBookmarkRepo(dir),
		movies:    repository.NewMovieRepo(dir),
		sessions:  session.NewMemoryStore(time.Hour),
	}
	f.svc = &BanService{
		Users:     f.users,
		Blacklist: f.blacklist,
		Reviews:   f.reviews,
		Bookmarks: f.bookmarks,
		Sessions:  f.sessions,
		Audit:     nil, // nil publisher is a no-op
		Log:       zap.NewNop(),
	}
	return f
}

func (f *banFixture) seedUser(t *testing.T, email string) {
	t.Helper()
	if _, err := f.users.Create(email, "user", "pw", bcrypt.MinCost); err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
}

func TestTokenPenalty(t *testing.T) {
	f := newBanFixture(t)
	f.seedUser(t, "u@example.com")
	f.users.AddTokens("u@example.com", 100)

	acc, err := f.svc.TokenPenalty(context.Background(), "admin@example.com", "u@example.com", 40)
	if err != nil || acc.Tokens != 60 {
		t.Fatalf("TokenPenalty: acc=%+v err=%v", acc, err)
	}

	if _, err := f.svc.TokenPenalty(context.Background(), "admin@example.com", "u@example.com", 0); err != ErrInvalidAmount {
		t.Fatalf("zero amount: got %v, want ErrInvalidAmount", err)
	}
	if _, err := f.svc.TokenPenalty(context.Background(), "admin@example.com", "u@example.com", 1000); err != repository.ErrInsufficientTokens {
		t.Fatalf("over-penalty: got %v, want ErrInsufficientTokens", err)
	}
	acc, _ = f.users.Get("u@example.com")
	if acc.Tokens != 60 {
		t.Fatalf("failed penalty mutated balance: %d", acc.Tokens)
	}
}

func TestReviewBanCascades(t *testing.T) {
	f := newBanFixture(t)
	f.seedUser(t, "u@example.com")
	f.movies.Create("Alien", model.MovieMetadata{Title: "Alien"})
	f.movies.Create("Brazil", model.MovieMetadata{Title: "Brazil"})
	f.reviews.Add("Alien", model.Review{Date: "2025-06-01", Email: "u@example.com", Rating: "8.0"})
	f.reviews.Add("Brazil", model.Review{Date: "2025-06-02", Email: "u@example.com", Rating: "7.0"})

	res, err := f.svc.SetReviewBan(context.Background(), "admin@example.com", "u@example.com", true)
	if err != nil {
		t.Fatalf("SetReviewBan: %v", err)
	}
	if !res.Account.ReviewBanned || res.ReviewsPenalized != 2 || len(res.Movies) != 2 {
		t.Fatalf("unexpected ban result: %+v", res)
	}
	rev, _ := f.reviews.Get("Alien", "u@example.com")
	if !rev.Penalized || !rev.Hidden {
		t.Fatalf("review not hidden by ban cascade: %+v", rev)
	}

	// Double ban surfaces as a conflict, not a second cascade.
	if _, err := f.svc.SetReviewBan(context.Background(), "admin@example.com", "u@example.com", true); err != repository.ErrConflict {
		t.Fatalf("double ban: got %v, want ErrConflict", err)
	}

	// Unban clears the flag only; penalized reviews stay penalized.
	res, err = f.svc.SetReviewBan(context.Background(), "admin@example.com", "u@example.com", false)
	if err != nil || res.Account.ReviewBanned || res.ReviewsPenalized != 0 {
		t.Fatalf("unban: res=%+v err=%v", res, err)
	}
	rev, _ = f.reviews.Get("Alien", "u@example.com")
	if !rev.Penalized || !rev.Hidden {
		t.Fatalf("unban resurrected penalized review: %+v", rev)
	}
}

func TestPermanentBanTeardown(t *testing.T) {
	f := newBanFixture(t)
	f.seedUser(t, "bad@example.com")
	f.movies.Create("Alien", model.MovieMetadata{Title: "Alien"})
	f.reviews.Add("Alien", model.Review{Date: "2025-06-01", Email: "bad@example.com", Rating: "1.0"})
	f.bookmarks.Add("bad@example.com", "Alien")
	f.sessions.CreateID("bad@example.com", session.KindUser)
	f.sessions.CreateID("bad@example.com", session.KindUser)

	summary, err := f.svc.PermanentBan(context.Background(), "admin@example.com", "Bad@Example.com", "abuse")
	if err != nil {
		t.Fatalf("PermanentBan: %v", err)
	}
	if !summary.Blacklisted || !summary.AccountDeleted {
		t.Fatalf("incomplete teardown: %+v", summary)
	}
	if summary.SessionsRevoked != 2 || summary.ReviewsPenalized != 1 || summary.BookmarksRemoved != 1 {
		t.Fatalf("unexpected cascade counts: %+v", summary)
	}

	if _, err := f.users.Get("bad@example.com"); err != repository.ErrNotFound {
		t.Fatalf("account still present after ban: %v", err)
	}
	listed, _ := f.blacklist.Contains("bad@example.com")
	if !listed {
		t.Fatal("email not blacklisted")
	}
	// Penalized review rows survive the ban.
	rev, err := f.reviews.Get("Alien", "bad@example.com")
	if err != nil || !rev.Penalized || !rev.Hidden {
		t.Fatalf("review row missing or unflagged after ban: rev=%+v err=%v", rev, err)
	}

	// Banning a blacklisted email again is a conflict.
	if _, err := f.svc.PermanentBan(context.Background(), "admin@example.com", "bad@example.com", "again"); err != repository.ErrConflict {
		t.Fatalf("double ban: got %v, want ErrConflict", err)
	}
}

func TestPermanentBanMissingUser(t *testing.T) {
	f := newBanFixture(t)
	if _, err := f.svc.PermanentBan(context.Background(), "admin@example.com", "ghost@example.com", "x"); err != repository.ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	// The precondition failure must not leave a blacklist row behind.
	listed, _ := f.blacklist.Contains("ghost@example.com")
	if listed {
		t.Fatal("failed ban blacklisted the email anyway")
	}
}

func TestUnbanFreesEmailWithoutRestoring(t *testing.T) {
	f := newBanFixture(t)
	f.seedUser(t, "bad@example.com")
	if _, err := f.svc.PermanentBan(context.Background(), "admin@example.com", "bad@example.com", "abuse"); err != nil {
		t.Fatalf("PermanentBan: %v", err)
	}

	if err := f.svc.Unban(context.Background(), "admin@example.com", "bad@example.com"); err != nil {
		t.Fatalf("Unban: %v", err)
	}
	if err := f.svc.Unban(context.Background(), "admin@example.com", "bad@example.com"); err != repository.ErrNotFound {
		t.Fatalf("double unban: got %v, want ErrNotFound", err)
	}

	// The account stays gone; re-signup is the only restoration path and it
	// starts from Snail defaults.
	if _, err := f.users.Get("bad@example.com"); err != repository.ErrNotFound {
		t.Fatalf("unban restored the account: %v", err)
	}
	acc, err := f.users.Create("bad@example.com", "fresh", "pw", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("re-signup after unban: %v", err)
	}
	if acc.Tier != model.TierSnail || acc.Tokens != 0 {
		t.Fatalf("re-signup did not start fresh: %+v", acc)
	}
}
