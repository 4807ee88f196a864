package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/EldonT123/bs-reviews/internal/service"
)

// SearchHandler exposes the catalog search endpoints.  Each endpoint is a
// thin mapping from query parameters onto a service.SearchQuery.
type SearchHandler struct {
	Search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{Search: search}
}

func (h *SearchHandler) run(c echo.Context, q service.SearchQuery) error {
	results, err := h.Search.Search(q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(results), "results": results})
}

// ByTitle matches movies whose title contains ?q= (case-insensitive).
func (h *SearchHandler) ByTitle(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q required"})
	}
	return h.run(c, service.SearchQuery{Title: q})
}

// ByGenre matches movies whose genre equals ?genre= (case-insensitive).
func (h *SearchHandler) ByGenre(c echo.Context) error {
	genre := strings.TrimSpace(c.QueryParam("genre"))
	if genre == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "genre required"})
	}
	return h.run(c, service.SearchQuery{Genre: genre})
}

// ByYear matches movies released in ?year=.
func (h *SearchHandler) ByYear(c echo.Context) error {
	year, err := strconv.Atoi(c.QueryParam("year"))
	if err != nil || year < 1800 || year > 3000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid year required"})
	}
	return h.run(c, service.SearchQuery{Year: year})
}

// ByDateRange matches movies released between ?from= and ?to= (inclusive,
// YYYY-MM-DD).  Either bound may be omitted.
func (h *SearchHandler) ByDateRange(c echo.Context) error {
	from := strings.TrimSpace(c.QueryParam("from"))
	to := strings.TrimSpace(c.QueryParam("to"))
	if from == "" && to == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from or to required"})
	}
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be YYYY-MM-DD"})
		}
	}
	if from != "" && to != "" && from > to {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must not be after to"})
	}
	return h.run(c, service.SearchQuery{FromDate: from, ToDate: to})
}

// Advanced combines every filter in a single query.
func (h *SearchHandler) Advanced(c echo.Context) error {
	q := service.SearchQuery{
		Title: strings.TrimSpace(c.QueryParam("title")),
		Genre: strings.TrimSpace(c.QueryParam("genre")),
	}
	if v := c.QueryParam("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid year"})
		}
		q.Year = year
	}
	for param, dst := range map[string]*string{"from": &q.FromDate, "to": &q.ToDate} {
		v := strings.TrimSpace(c.QueryParam(param))
		if v == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be YYYY-MM-DD"})
		}
		*dst = v
	}
	if v := c.QueryParam("min_rating"); v != "" {
		min, err := strconv.ParseFloat(v, 64)
		if err != nil || min < 0 || min > 10 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "min_rating must be 0-10"})
		}
		q.MinRating = min
	}
	return h.run(c, q)
}
