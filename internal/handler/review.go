package handler

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/EldonT123/bs-reviews/internal/middleware"
	"github.com/EldonT123/bs-reviews/internal/model"
	"github.com/EldonT123/bs-reviews/internal/permission"
	"github.com/EldonT123/bs-reviews/internal/queue"
	"github.com/EldonT123/bs-reviews/internal/repository"
	"github.com/EldonT123/bs-reviews/internal/service"
	"github.com/EldonT123/bs-reviews/internal/session"
	"github.com/EldonT123/bs-reviews/internal/utils"
)

// ReviewHandler bundles dependencies for the /reviews endpoints.
type ReviewHandler struct {
	Users    *repository.UserRepo
	Movies   *repository.MovieRepo
	Reviews  *repository.ReviewRepo
	Sessions session.Store
	Audit    *service.AuditPublisher
}

func NewReviewHandler(users *repository.UserRepo, movies *repository.MovieRepo, reviews *repository.ReviewRepo, sessions session.Store, audit *service.AuditPublisher) *ReviewHandler {
	return &ReviewHandler{Users: users, Movies: movies, Reviews: reviews, Sessions: sessions, Audit: audit}
}

// ----- DTOs -----

type reviewReq struct {
	Rating  *float64 `json:"rating,omitempty"`
	Title   string   `json:"title"`
	Comment string   `json:"comment"`
}
type reportReq struct {
	Reason string `json:"reason"`
}

// refreshAverage recomputes and persists a movie's average rating.  Used
// after every review mutation; failures are ignored because the rating is
// derived data that the next mutation will fix up.
func refreshAverage(movies *repository.MovieRepo, reviews *repository.ReviewRepo, folder string) {
	avg, err := reviews.RecalcAverage(folder)
	if err != nil {
		return
	}
	meta, err := movies.GetMetadata(folder)
	if err != nil {
		return
	}
	meta.AverageRating = avg
	_ = movies.SaveMetadata(folder, meta)
}

// List returns a movie's reviews.  Hidden rows are shown only to their own
// author (resolved from an optional bearer session id).  BananaSlug
// reviews sort first, then newest first.
func (h *ReviewHandler) List(c echo.Context) error {
	folder := c.Param("movie")
	reviews, err := h.Reviews.List(folder)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reviews failed"})
	}

	// Optional authentication: a valid session lets an author see their own
	// hidden rows.
	requester := ""
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if sess, ok := h.Sessions.VerifyID(strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))); ok {
			requester = sess.Email
		}
	}

	visible := []model.Review{}
	priority := map[string]bool{}
	for _, rev := range reviews {
		if rev.Hidden && rev.Email != requester {
			continue
		}
		if _, seen := priority[rev.Email]; !seen {
			acc, err := h.Users.Get(rev.Email)
			priority[rev.Email] = err == nil && permission.HasPriorityReviews(acc.Tier)
		}
		visible = append(visible, rev)
	}

	sort.SliceStable(visible, func(i, j int) bool {
		pi, pj := priority[visible[i].Email], priority[visible[j].Email]
		if pi != pj {
			return pi
		}
		return visible[i].Date > visible[j].Date
	})
	return c.JSON(http.StatusOK, echo.Map{"reviews": visible})
}

// Create posts the authenticated user's review on a movie.  Slug tier and
// above only, and never while review-banned; attaching a rating
// additionally requires the rate-movies capability.
func (h *ReviewHandler) Create(c echo.Context) error {
	acc, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if !permission.CanWriteReviews(acc.Tier, acc.ReviewBanned) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed to write reviews"})
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Comment) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title or comment required"})
	}
	rating, ok, resp := h.ratingCell(c, acc, req)
	if !ok {
		return resp
	}

	folder := c.Param("movie")
	rev := model.Review{
		Date:     time.Now().UTC().Format("2006-01-02"),
		Email:    acc.Email,
		Username: acc.Username,
		Rating:   rating,
		Title:    strings.TrimSpace(req.Title),
		Comment:  strings.TrimSpace(req.Comment),
	}
	if err := h.Reviews.Add(folder, rev); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "you already reviewed this movie"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add review failed"})
	}
	refreshAverage(h.Movies, h.Reviews, folder)
	return c.JSON(http.StatusCreated, rev)
}

// ratingCell validates an optional rating and returns its stored cell
// value.  ok=false means an error response has already been written and the
// handler must return resp.
func (h *ReviewHandler) ratingCell(c echo.Context, acc model.Account, req reviewReq) (cell string, ok bool, resp error) {
	if req.Rating == nil {
		return "", true, nil
	}
	if !permission.CanRateMovies(acc.Tier, acc.ReviewBanned) {
		return "", false, c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed to rate movies"})
	}
	if *req.Rating < 0 || *req.Rating > 10 {
		return "", false, c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 0 and 10"})
	}
	return strconv.FormatFloat(*req.Rating, 'f', 1, 64), true, nil
}

// Update rewrites the authenticated user's review on a movie.
func (h *ReviewHandler) Update(c echo.Context) error {
	acc, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if !permission.CanEditOwnReviews(acc.Tier, acc.ReviewBanned) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed to edit reviews"})
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	rating, ok, resp := h.ratingCell(c, acc, req)
	if !ok {
		return resp
	}

	folder := c.Param("movie")
	rev, uerr := h.Reviews.Update(folder, model.Review{
		Date:    time.Now().UTC().Format("2006-01-02"),
		Email:   acc.Email,
		Rating:  rating,
		Title:   strings.TrimSpace(req.Title),
		Comment: strings.TrimSpace(req.Comment),
	})
	if uerr != nil {
		if uerr == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update review failed"})
	}
	refreshAverage(h.Movies, h.Reviews, folder)
	return c.JSON(http.StatusOK, rev)
}

// Delete removes the authenticated user's review on a movie.
func (h *ReviewHandler) Delete(c echo.Context) error {
	acc, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if !permission.CanEditOwnReviews(acc.Tier, acc.ReviewBanned) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed to edit reviews"})
	}
	folder := c.Param("movie")
	if err := h.Reviews.Delete(folder, acc.Email); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete review failed"})
	}
	refreshAverage(h.Movies, h.Reviews, folder)
	return c.NoContent(http.StatusNoContent)
}

// Like bumps the like counter on another user's review.
func (h *ReviewHandler) Like(c echo.Context) error {
	return h.react(c, true)
}

// Dislike bumps the dislike counter on another user's review.
func (h *ReviewHandler) Dislike(c echo.Context) error {
	return h.react(c, false)
}

func (h *ReviewHandler) react(c echo.Context, like bool) error {
	acc, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	folder := c.Param("movie")
	target := utils.NormalizeEmail(c.Param("email"))
	if target == acc.Email {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot react to your own review"})
	}
	var rev model.Review
	var err error
	if like {
		rev, err = h.Reviews.Like(folder, target)
	} else {
		rev, err = h.Reviews.Dislike(folder, target)
	}
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update review failed"})
	}
	return c.JSON(http.StatusOK, rev)
}

// Report flags another user's review for moderation.
func (h *ReviewHandler) Report(c echo.Context) error {
	acc, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reportReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason required"})
	}
	folder := c.Param("movie")
	target := utils.NormalizeEmail(c.Param("email"))
	rev, err := h.Reviews.Report(folder, target, strings.TrimSpace(req.Reason))
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}
	h.Audit.Publish(c.Request().Context(), queue.AuditEvent{
		Action:      queue.ActionReportReview,
		ActorEmail:  acc.Email,
		TargetEmail: target,
		Movie:       folder,
		Reason:      strings.TrimSpace(req.Reason),
	})
	return c.JSON(http.StatusOK, rev)
}
