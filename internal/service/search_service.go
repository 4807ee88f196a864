package service

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/EldonT123/bs-reviews/internal/model"
	"github.com/EldonT123/bs-reviews/internal/repository"
)

// SearchQuery is the filter set applied to the movie catalog.  Zero values
// mean "no filter".  Dates are ISO YYYY-MM-DD strings, which compare
// correctly as plain strings.
type SearchQuery struct {
	Title     string
	Genre     string
	Year      int
	FromDate  string
	ToDate    string
	MinRating float64
}

// SearchService walks the movie folders and filters metadata in memory.
// There is no persistent index; a linear scan is the intended design at
// this catalog size.
type SearchService struct {
	Movies *repository.MovieRepo
	Log    *zap.Logger
}

// Search returns the movies matching every set filter, in folder order.
// A folder with unreadable metadata is skipped with a warning rather than
// failing the whole scan.
func (s *SearchService) Search(q SearchQuery) ([]model.MovieSummary, error) {
	folders, err := s.Movies.List()
	if err != nil {
		return nil, err
	}
	results := []model.MovieSummary{}
	for _, folder := range folders {
		meta, err := s.Movies.GetMetadata(folder)
		if err != nil {
			s.Log.Warn("search: skipping unreadable movie", zap.String("folder", folder), zap.Error(err))
			continue
		}
		if !matches(meta, q) {
			continue
		}
		results = append(results, model.MovieSummary{Folder: folder, Metadata: meta})
	}
	return results, nil
}

func matches(meta model.MovieMetadata, q SearchQuery) bool {
	if q.Title != "" && !strings.Contains(strings.ToLower(meta.Title), strings.ToLower(q.Title)) {
		return false
	}
	if q.Genre != "" && !strings.EqualFold(strings.TrimSpace(meta.Genre), strings.TrimSpace(q.Genre)) {
		return false
	}
	if q.Year != 0 {
		if len(meta.ReleaseDate) < 4 {
			return false
		}
		y, err := strconv.Atoi(meta.ReleaseDate[:4])
		if err != nil || y != q.Year {
			return false
		}
	}
	if q.FromDate != "" && meta.ReleaseDate < q.FromDate {
		return false
	}
	if q.ToDate != "" && meta.ReleaseDate > q.ToDate {
		return false
	}
	if q.MinRating > 0 && meta.AverageRating < q.MinRating {
		return false
	}
	return true
}
