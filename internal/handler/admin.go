package handler

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/EldonT123/bs-reviews/internal/config"
	"github.com/EldonT123/bs-reviews/internal/middleware"
	"github.com/EldonT123/bs-reviews/internal/model"
	"github.com/EldonT123/bs-reviews/internal/repository"
	"github.com/EldonT123/bs-reviews/internal/service"
	"github.com/EldonT123/bs-reviews/internal/session"
	"github.com/EldonT123/bs-reviews/internal/utils"
)

// Movie folders become filesystem paths, so names are restricted to a safe
// character set.
var folderPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._ -]*$`)

// AdminHandler bundles dependencies for the /admin endpoints.  Any
// authenticated admin holds every capability here; admins are not tiered.
type AdminHandler struct {
	Cfg      config.Config
	Admins   *repository.AdminRepo
	Users    *repository.UserRepo
	Movies   *repository.MovieRepo
	Reviews  *repository.ReviewRepo
	Sessions session.Store
	Bans     *service.BanService
}

func NewAdminHandler(cfg config.Config, admins *repository.AdminRepo, users *repository.UserRepo, movies *repository.MovieRepo, reviews *repository.ReviewRepo, sessions session.Store, bans *service.BanService) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Admins: admins, Users: users, Movies: movies, Reviews: reviews, Sessions: sessions, Bans: bans}
}

// ----- DTOs -----

type adminTokenResp struct {
	AdminToken string `json:"admin_token"`
	Expires    string `json:"expires"`
}
type tierReq struct {
	Tier string `json:"tier"`
}
type amountReq struct {
	Amount int `json:"amount"`
}
type banReq struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}
type createMovieReq struct {
	Folder   string              `json:"folder"`
	Metadata model.MovieMetadata `json:"metadata"`
}
type reportActionReq struct {
	Action string `json:"action"` // keep | remove
}

// Login authenticates an admin and returns the raw admin token.  Admins do
// not use the short-id indirection; the token itself goes in the
// X-Admin-Token header.
func (h *AdminHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = utils.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	adm, err := h.Admins.Get(req.Email)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(adm.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	h.Sessions.RevokeAll(adm.Email)
	sess, err := h.Sessions.Create(adm.Email, session.KindAdmin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	return c.JSON(http.StatusOK, adminTokenResp{
		AdminToken: sess.Token,
		Expires:    sess.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

// Logout revokes the presented admin token.
func (h *AdminHandler) Logout(c echo.Context) error {
	token, _ := c.Get("admin_token").(string)
	if token == "" || !h.Sessions.Revoke(token) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no active session"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUsers returns every user account.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.Users.List()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// DeleteUser removes an account and revokes its sessions.  Unlike a
// permanent ban, the email stays free for future signup.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	email := utils.NormalizeEmail(c.Param("email"))
	if err := h.Users.Delete(email); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	revoked := h.Sessions.RevokeAll(email)
	return c.JSON(http.StatusOK, echo.Map{"email": email, "sessions_revoked": revoked})
}

// SetTier replaces a user's tier.
func (h *AdminHandler) SetTier(c echo.Context) error {
	var req tierReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	tier, err := model.ParseTier(req.Tier)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tier"})
	}
	acc, err := h.Users.SetTier(c.Param("email"), tier)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, acc)
}

// AddTokens credits a user's balance.
func (h *AdminHandler) AddTokens(c echo.Context) error {
	var req amountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}
	acc, err := h.Users.AddTokens(c.Param("email"), req.Amount)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, acc)
}

// RemoveTokens applies a token penalty through the ban engine.
func (h *AdminHandler) RemoveTokens(c echo.Context) error {
	var req amountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	adminEmail, _ := c.Get(middleware.CtxAdminEmail).(string)
	acc, err := h.Bans.TokenPenalty(c.Request().Context(), adminEmail, c.Param("email"), req.Amount)
	if err != nil {
		switch err {
		case service.ErrInvalidAmount:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
		case repository.ErrInsufficientTokens:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient tokens"})
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "penalty failed"})
	}
	return c.JSON(http.StatusOK, acc)
}

// ReviewBan soft-bans a user from writing reviews and penalizes their
// existing reviews.
func (h *AdminHandler) ReviewBan(c echo.Context) error {
	return h.setReviewBan(c, true)
}

// ReviewUnban lifts the soft ban.  Penalized reviews stay penalized.
func (h *AdminHandler) ReviewUnban(c echo.Context) error {
	return h.setReviewBan(c, false)
}

func (h *AdminHandler) setReviewBan(c echo.Context, banned bool) error {
	adminEmail, _ := c.Get(middleware.CtxAdminEmail).(string)
	res, err := h.Bans.SetReviewBan(c.Request().Context(), adminEmail, c.Param("email"), banned)
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "ban state unchanged"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "review ban failed"})
	}
	return c.JSON(http.StatusOK, res)
}

// PermanentBan blacklists an email and tears down the account.  The
// response reports each cascade step independently.
func (h *AdminHandler) PermanentBan(c echo.Context) error {
	var req banReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	adminEmail, _ := c.Get(middleware.CtxAdminEmail).(string)
	summary, err := h.Bans.PermanentBan(c.Request().Context(), adminEmail, req.Email, req.Reason)
	if err != nil {
		switch err {
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already banned"})
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ban failed"})
	}
	return c.JSON(http.StatusOK, summary)
}

// Unban removes a blacklist entry.  It does not restore the deleted
// account; the email simply becomes free to sign up again.
func (h *AdminHandler) Unban(c echo.Context) error {
	adminEmail, _ := c.Get(middleware.CtxAdminEmail).(string)
	if err := h.Bans.Unban(c.Request().Context(), adminEmail, c.Param("email")); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ban not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unban failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListBans returns every blacklist record.
func (h *AdminHandler) ListBans(c echo.Context) error {
	recs, err := h.Bans.Blacklist.List()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bans failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bans": recs})
}

// CreateMovie makes a new movie folder with metadata and an empty review
// table.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var req createMovieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Folder = strings.TrimSpace(req.Folder)
	if req.Folder == "" || !folderPattern.MatchString(req.Folder) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie folder name"})
	}
	if strings.TrimSpace(req.Metadata.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie title required"})
	}
	if err := h.Movies.Create(req.Folder, req.Metadata); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create movie failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"folder": req.Folder})
}

// DeleteMovie removes a movie folder, reviews and all.
func (h *AdminHandler) DeleteMovie(c echo.Context) error {
	if err := h.Movies.Delete(c.Param("folder")); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete movie failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleReport resolves a reported review: "remove" deletes the row,
// "keep" clears the flag.  The movie's average rating is recomputed after
// a removal.
func (h *AdminHandler) HandleReport(c echo.Context) error {
	var req reportActionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Action != repository.ReportActionKeep && req.Action != repository.ReportActionRemove {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "action must be keep or remove"})
	}
	movie := c.Param("movie")
	email := c.Param("email")
	if err := h.Reviews.HandleReport(movie, email, req.Action); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "handle report failed"})
	}
	if req.Action == repository.ReportActionRemove {
		refreshAverage(h.Movies, h.Reviews, movie)
	}
	return c.JSON(http.StatusOK, echo.Map{"movie": movie, "email": utils.NormalizeEmail(email), "action": req.Action})
}
