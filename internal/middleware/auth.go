package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/EldonT123/bs-reviews/internal/model"
	"github.com/EldonT123/bs-reviews/internal/repository"
	"github.com/EldonT123/bs-reviews/internal/session"
)

// Context keys set by the auth middleware.
const (
	CtxEmail      = "email"
	CtxAccount    = "account"
	CtxAdminEmail = "admin_email"
)

// SessionAuth returns an Echo middleware that validates the bearer session
// id and loads the matching account into the request context.  The session
// registry only maps ids to emails; the account lookup here is what catches
// stale sessions left behind by out-of-band account deletion.
func SessionAuth(sessions session.Store, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer session id"})
			}
			id := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			sess, ok := sessions.VerifyID(id)
			if !ok || sess.Kind != session.KindUser {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired session"})
			}
			acc, err := users.Get(sess.Email)
			if err != nil {
				if err == repository.ErrNotFound {
					// Session outlived the account; revoke it on sight.
					sessions.RevokeID(id)
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired session"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
			}

			c.Set(CtxEmail, acc.Email)
			c.Set(CtxAccount, acc)
			c.Set("session_id", id)
			return next(c)
		}
	}
}

// AdminAuth returns an Echo middleware that validates the X-Admin-Token
// header.  Admins present their raw session token rather than a short id.
func AdminAuth(sessions session.Store, admins *repository.AdminRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := strings.TrimSpace(c.Request().Header.Get("X-Admin-Token"))
			if token == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing admin token"})
			}
			sess, ok := sessions.Verify(token)
			if !ok || sess.Kind != session.KindAdmin {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired admin token"})
			}
			if _, err := admins.Get(sess.Email); err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired admin token"})
			}
			c.Set(CtxAdminEmail, sess.Email)
			c.Set("admin_token", token)
			return next(c)
		}
	}
}

// CurrentAccount pulls the authenticated account out of the context.
func CurrentAccount(c echo.Context) (model.Account, bool) {
	acc, ok := c.Get(CtxAccount).(model.Account)
	return acc, ok
}
