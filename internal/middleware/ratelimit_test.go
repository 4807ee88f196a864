package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/EldonT123/bs-reviews/internal/config"
	"github.com/EldonT123/bs-reviews/internal/repository"
	"github.com/EldonT123/bs-reviews/internal/session"
)

// capturePrincipal stands in for the rate limiter at its registered
// position, after the auth middleware.
func capturePrincipal(got *string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			*got = principal(c)
			return next(c)
		}
	}
}

func TestPrincipalAfterSessionAuth(t *testing.T) {
	dir := t.TempDir()
	users := repository.NewUserRepo(dir)
	if _, err := users.Create("u@example.com", "u", "pw", bcrypt.MinCost); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	sessions := session.NewMemoryStore(time.Hour)
	id, _, err := sessions.CreateID("u@example.com", session.KindUser)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var got string
	e := echo.New()
	e.GET("/t", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, SessionAuth(sessions, users), capturePrincipal(&got))

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+id)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if got != "u@example.com" {
		t.Fatalf("principal = %q, want the authenticated email", got)
	}
}

func TestPrincipalWithoutAuthIsGuest(t *testing.T) {
	var got string
	e := echo.New()
	e.GET("/t", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, capturePrincipal(&got))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/t", nil))
	if got != "guest" {
		t.Fatalf("principal = %q, want guest", got)
	}
}

func TestBuildRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.RemoteAddr = "10.1.2.3:4444"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/users/me")
	c.Set(CtxEmail, "u@example.com")

	cases := map[string]string{
		"ip":         "rl:ip:10.1.2.3",
		"user":       "rl:user:u@example.com",
		"route":      "rl:route:GET /v1/users/me",
		"ip_user":    "rl:ip:10.1.2.3:user:u@example.com",
		"user_route": "rl:user:u@example.com:route:GET /v1/users/me",
	}
	for strategy, want := range cases {
		cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}
		if got := buildRateKey(cfg, c); got != want {
			t.Errorf("strategy %s: key = %q, want %q", strategy, got, want)
		}
	}
}
