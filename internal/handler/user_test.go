package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/EldonT123/bs-reviews/internal/config"
	"github.com/EldonT123/bs-reviews/internal/handler"
	"github.com/EldonT123/bs-reviews/internal/middleware"
	"github.com/EldonT123/bs-reviews/internal/model"
	"github.com/EldonT123/bs-reviews/internal/repository"
	"github.com/EldonT123/bs-reviews/internal/router"
	"github.com/EldonT123/bs-reviews/internal/session"
)

type userTestEnv struct {
	e         *echo.Echo
	users     *repository.UserRepo
	blacklist *repository.BlacklistRepo
	sessions  *session.MemoryStore
}

func newUserTestEnv(t *testing.T) *userTestEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{BcryptCost: bcrypt.MinCost}
	users := repository.NewUserRepo(dir)
	blacklist := repository.NewBlacklistRepo(dir)
	bookmarks := repository.NewBookmarkRepo(dir)
	movies := repository.NewMovieRepo(dir)
	sessions := session.NewMemoryStore(time.Hour)

	e := echo.New()
	h := handler.NewUserHandler(cfg, users, blacklist, bookmarks, movies, sessions)
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	router.RegisterUsers(e, h, middleware.SessionAuth(sessions, users), passthrough)
	return &userTestEnv{e: e, users: users, blacklist: blacklist, sessions: sessions}
}

func (env *userTestEnv) do(method, path, body, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if sessionID != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+sessionID)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *userTestEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := env.do(http.MethodPost, "/v1/users/login", `{"email":"`+email+`","password":"`+password+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.SessionID == "" {
		t.Fatalf("login response: %s", rec.Body.String())
	}
	return resp.SessionID
}

func TestSignupLoginMe(t *testing.T) {
	env := newUserTestEnv(t)

	rec := env.do(http.MethodPost, "/v1/users/signup", `{"email":"U@Example.com","username":"u","password":"pw"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: status %d body %s", rec.Code, rec.Body.String())
	}

	// Duplicate signup conflicts, even with different casing.
	rec = env.do(http.MethodPost, "/v1/users/signup", `{"email":"u@example.com","username":"x","password":"pw"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: status %d", rec.Code)
	}

	id := env.login(t, "u@example.com", "pw")
	rec = env.do(http.MethodGet, "/v1/users/me", "", id)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d body %s", rec.Code, rec.Body.String())
	}
	var acc model.Account
	if err := json.Unmarshal(rec.Body.Bytes(), &acc); err != nil {
		t.Fatalf("me response: %v", err)
	}
	if acc.Email != "u@example.com" || acc.Tier != model.TierSnail {
		t.Fatalf("unexpected profile: %+v", acc)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newUserTestEnv(t)
	env.do(http.MethodPost, "/v1/users/signup", `{"email":"u@example.com","username":"u","password":"pw"}`, "")

	rec := env.do(http.MethodPost, "/v1/users/login", `{"email":"u@example.com","password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status %d", rec.Code)
	}
	rec = env.do(http.MethodPost, "/v1/users/login", `{"email":"ghost@example.com","password":"pw"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email: status %d", rec.Code)
	}
}

func TestLoginRevokesPriorSessions(t *testing.T) {
	env := newUserTestEnv(t)
	env.do(http.MethodPost, "/v1/users/signup", `{"email":"u@example.com","username":"u","password":"pw"}`, "")

	first := env.login(t, "u@example.com", "pw")
	second := env.login(t, "u@example.com", "pw")

	if rec := env.do(http.MethodGet, "/v1/users/me", "", first); rec.Code != http.StatusUnauthorized {
		t.Fatalf("stale session still valid: status %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/v1/users/me", "", second); rec.Code != http.StatusOK {
		t.Fatalf("fresh session rejected: status %d", rec.Code)
	}
}

func TestLogoutRevokesOnlyPresentedSession(t *testing.T) {
	env := newUserTestEnv(t)
	env.do(http.MethodPost, "/v1/users/signup", `{"email":"u@example.com","username":"u","password":"pw"}`, "")
	id := env.login(t, "u@example.com", "pw")

	if rec := env.do(http.MethodPost, "/v1/users/logout", "", id); rec.Code != http.StatusNoContent {
		t.Fatalf("logout: status %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/v1/users/me", "", id); rec.Code != http.StatusUnauthorized {
		t.Fatalf("session survived logout: status %d", rec.Code)
	}
	// Logging out again has no session to present.
	if rec := env.do(http.MethodPost, "/v1/users/logout", "", id); rec.Code != http.StatusUnauthorized {
		t.Fatalf("double logout: status %d", rec.Code)
	}
}

func TestSignupBlacklistedEmail(t *testing.T) {
	env := newUserTestEnv(t)
	if err := env.blacklist.Add(model.BanRecord{Email: "banned@example.com", BannedAt: time.Now().UTC(), BannedBy: "admin@example.com", Reason: "abuse"}); err != nil {
		t.Fatalf("seed blacklist: %v", err)
	}

	rec := env.do(http.MethodPost, "/v1/users/signup", `{"email":"banned@example.com","username":"u","password":"pw"}`, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("blacklisted signup: status %d, want 403", rec.Code)
	}
}
