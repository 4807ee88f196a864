package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/EldonT123/bs-reviews/internal/config"
	"github.com/EldonT123/bs-reviews/internal/middleware"
	"github.com/EldonT123/bs-reviews/internal/repository"
	"github.com/EldonT123/bs-reviews/internal/session"
	"github.com/EldonT123/bs-reviews/internal/utils"
)

// UserHandler bundles dependencies for the /users endpoints.
type UserHandler struct {
	Cfg       config.Config
	Users     *repository.UserRepo
	Blacklist *repository.BlacklistRepo
	Bookmarks *repository.BookmarkRepo
	Movies    *repository.MovieRepo
	Sessions  session.Store
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo, blacklist *repository.BlacklistRepo, bookmarks *repository.BookmarkRepo, movies *repository.MovieRepo, sessions session.Store) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: users, Blacklist: blacklist, Bookmarks: bookmarks, Movies: movies, Sessions: sessions}
}

// ----- DTOs -----

type signupReq struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type sessionResp struct {
	SessionID string `json:"session_id"`
	Expires   string `json:"expires"`
}
type usernameReq struct {
	Username string `json:"username"`
}
type bookmarkReq struct {
	Movie string `json:"movie"`
}

// Signup creates a new Snail-tier account.  Blacklisted emails are rejected
// distinctly from duplicates.
func (h *UserHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = utils.NormalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/username/password required"})
	}
	if !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
	}

	listed, err := h.Blacklist.Contains(req.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "blacklist check failed"})
	}
	if listed {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "email is permanently banned"})
	}

	acc, err := h.Users.Create(req.Email, req.Username, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, acc)
}

// Login verifies credentials and mints a fresh session id.  Every earlier
// session for the email is revoked first, so only the newest login lineage
// stays valid.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = utils.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	acc, err := h.Users.Get(req.Email)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(acc.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	h.Sessions.RevokeAll(acc.Email)
	id, sess, err := h.Sessions.CreateID(acc.Email, session.KindUser)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	return c.JSON(http.StatusOK, sessionResp{
		SessionID: id,
		Expires:   sess.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

// Logout revokes only the presented session id; other sessions in the same
// lineage stay valid until the next login.
func (h *UserHandler) Logout(c echo.Context) error {
	id, _ := c.Get("session_id").(string)
	if id == "" || !h.Sessions.RevokeID(id) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no active session"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated account's profile.
func (h *UserHandler) Me(c echo.Context) error {
	acc, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, acc)
}

// SetUsername changes the display name.
func (h *UserHandler) SetUsername(c echo.Context) error {
	acc, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req usernameReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username required"})
	}
	updated, err := h.Users.SetUsername(acc.Email, strings.TrimSpace(req.Username))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, updated)
}

// ListBookmarks returns the movies the user has bookmarked.
func (h *UserHandler) ListBookmarks(c echo.Context) error {
	acc, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movies, err := h.Bookmarks.List(acc.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookmarks failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookmarks": movies})
}

// AddBookmark bookmarks an existing movie.
func (h *UserHandler) AddBookmark(c echo.Context) error {
	acc, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookmarkReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Movie) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie required"})
	}
	movie := strings.TrimSpace(req.Movie)
	if !h.Movies.Exists(movie) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	if err := h.Bookmarks.Add(acc.Email, movie); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already bookmarked"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add bookmark failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"movie": movie})
}

// RemoveBookmark deletes a bookmark.
func (h *UserHandler) RemoveBookmark(c echo.Context) error {
	acc, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movie := c.Param("movie")
	if err := h.Bookmarks.Remove(acc.Email, movie); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bookmark not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove bookmark failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
