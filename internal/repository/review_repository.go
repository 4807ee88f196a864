package repository

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/EldonT123/bs-reviews/internal/model"
	"github.com/EldonT123/bs-reviews/internal/utils"
)

// ReviewRepo manages the per-movie review tables (movieReviews.csv inside
// each movie folder).  Row layout: date,email,username,likes,dislikes,
// rating,title,comment,reported,report_reason,penalized,hidden.  At most one
// row exists per (movie, reviewer) under normal flow, enforced by a
// check-before-add rather than by the storage itself.
type ReviewRepo struct {
	mu   sync.Mutex
	root string
}

func NewReviewRepo(dataDir string) *ReviewRepo {
	return &ReviewRepo{root: filepath.Join(dataDir, "movies")}
}

func (r *ReviewRepo) tablePath(folder string) string {
	return filepath.Join(r.root, folder, reviewsFile)
}

func (r *ReviewRepo) movieExists(folder string) bool {
	info, err := os.Stat(filepath.Join(r.root, folder))
	return err == nil && info.IsDir()
}

func encodeReview(rev model.Review) []string {
	return []string{
		rev.Date,
		rev.Email,
		rev.Username,
		strconv.Itoa(rev.Likes),
		strconv.Itoa(rev.Dislikes),
		rev.Rating,
		rev.Title,
		rev.Comment,
		yn(rev.Reported),
		rev.ReportReason,
		yn(rev.Penalized),
		yn(rev.Hidden),
	}
}

func decodeReview(row []string) model.Review {
	return model.Review{
		Date:         cell(row, 0),
		Email:        cell(row, 1),
		Username:     cell(row, 2),
		Likes:        cellInt(row, 3),
		Dislikes:     cellInt(row, 4),
		Rating:       cell(row, 5),
		Title:        cell(row, 6),
		Comment:      cell(row, 7),
		Reported:     isYes(cell(row, 8)),
		ReportReason: cell(row, 9),
		Penalized:    isYes(cell(row, 10)),
		Hidden:       isYes(cell(row, 11)),
	}
}

// List returns every review row of a movie in table order.
func (r *ReviewRepo) List(folder string) ([]model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.movieExists(folder) {
		return nil, ErrNotFound
	}
	rows, err := readTable(r.tablePath(folder))
	if err != nil {
		return nil, err
	}
	reviews := make([]model.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, decodeReview(row))
	}
	return reviews, nil
}

// Get fetches the review a user left on a movie.
func (r *ReviewRepo) Get(folder, email string) (model.Review, error) {
	email = utils.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.movieExists(folder) {
		return model.Review{}, ErrNotFound
	}
	rows, err := readTable(r.tablePath(folder))
	if err != nil {
		return model.Review{}, err
	}
	for _, row := range rows {
		if cell(row, 1) == email {
			return decodeReview(row), nil
		}
	}
	return model.Review{}, ErrNotFound
}

// Add appends a review.  A second review by the same user on the same movie
// is rejected with ErrConflict.
func (r *ReviewRepo) Add(folder string, rev model.Review) error {
	rev.Email = utils.NormalizeEmail(rev.Email)
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.movieExists(folder) {
		return ErrNotFound
	}
	path := r.tablePath(folder)
	rows, err := readTable(path)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if cell(row, 1) == rev.Email {
			return ErrConflict
		}
	}
	rows = append(rows, encodeReview(rev))
	return writeTable(path, rows)
}

// update applies fn to the matching row and rewrites the table.  A nil
// return from fn with delete=true removes the row instead.
func (r *ReviewRepo) update(folder, email string, fn func(*model.Review) (drop bool, err error)) (model.Review, error) {
	email = utils.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.movieExists(folder) {
		return model.Review{}, ErrNotFound
	}
	path := r.tablePath(folder)
	rows, err := readTable(path)
	if err != nil {
		return model.Review{}, err
	}
	for i, row := range rows {
		if cell(row, 1) == email {
			rev := decodeReview(row)
			drop, err := fn(&rev)
			if err != nil {
				return model.Review{}, err
			}
			if drop {
				rows = append(rows[:i], rows[i+1:]...)
			} else {
				rows[i] = encodeReview(rev)
			}
			if err := writeTable(path, rows); err != nil {
				return model.Review{}, err
			}
			return rev, nil
		}
	}
	return model.Review{}, ErrNotFound
}

// Update replaces the mutable fields of a user's review, keeping the like
// and moderation counters intact.
func (r *ReviewRepo) Update(folder string, rev model.Review) (model.Review, error) {
	return r.update(folder, rev.Email, func(cur *model.Review) (bool, error) {
		cur.Date = rev.Date
		cur.Rating = rev.Rating
		cur.Title = rev.Title
		cur.Comment = rev.Comment
		return false, nil
	})
}

// Delete removes a user's review row.
func (r *ReviewRepo) Delete(folder, email string) error {
	_, err := r.update(folder, email, func(*model.Review) (bool, error) {
		return true, nil
	})
	return err
}

// Like increments the like counter on a review.
func (r *ReviewRepo) Like(folder, email string) (model.Review, error) {
	return r.update(folder, email, func(rev *model.Review) (bool, error) {
		rev.Likes++
		return false, nil
	})
}

// Dislike increments the dislike counter on a review.
func (r *ReviewRepo) Dislike(folder, email string) (model.Review, error) {
	return r.update(folder, email, func(rev *model.Review) (bool, error) {
		rev.Dislikes++
		return false, nil
	})
}

// Report flags a review for moderation with the given reason.
func (r *ReviewRepo) Report(folder, email, reason string) (model.Review, error) {
	return r.update(folder, email, func(rev *model.Review) (bool, error) {
		rev.Reported = true
		rev.ReportReason = reason
		return false, nil
	})
}

// Report handling actions.  There is no third state: a reported review is
// either removed or kept with the flag cleared.
const (
	ReportActionRemove = "remove"
	ReportActionKeep   = "keep"
)

// HandleReport resolves a reported review.  action must be
// ReportActionRemove or ReportActionKeep.
func (r *ReviewRepo) HandleReport(folder, email, action string) error {
	_, err := r.update(folder, email, func(rev *model.Review) (bool, error) {
		switch action {
		case ReportActionRemove:
			return true, nil
		case ReportActionKeep:
			rev.Reported = false
			rev.ReportReason = ""
			return false, nil
		}
		return false, ErrConflict
	})
	return err
}

// PenalizeByUser walks every movie folder and marks the user's reviews as
// penalized and hidden.  Rows are flagged, never deleted.  It returns the
// number of reviews affected and the movies they were found in.
func (r *ReviewRepo) PenalizeByUser(email string) (int, []string, error) {
	email = utils.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil, nil
		}
		return 0, nil, err
	}

	affected := 0
	movies := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := r.tablePath(e.Name())
		rows, err := readTable(path)
		if err != nil {
			return affected, movies, err
		}
		changed := false
		for i, row := range rows {
			if cell(row, 1) != email {
				continue
			}
			rev := decodeReview(row)
			if rev.Penalized && rev.Hidden {
				continue
			}
			rev.Penalized = true
			rev.Hidden = true
			rows[i] = encodeReview(rev)
			changed = true
			affected++
		}
		if changed {
			if err := writeTable(path, rows); err != nil {
				return affected, movies, err
			}
			movies = append(movies, e.Name())
		}
	}
	return affected, movies, nil
}

// RecalcAverage recomputes a movie's average rating from its review table.
// Rows whose rating cell is empty or not numeric are skipped instead of
// erroring; with no valid ratings the average is 0.0.
func (r *ReviewRepo) RecalcAverage(folder string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.movieExists(folder) {
		return 0, ErrNotFound
	}
	rows, err := readTable(r.tablePath(folder))
	if err != nil {
		return 0, err
	}
	sum := 0.0
	count := 0
	for _, row := range rows {
		v, err := strconv.ParseFloat(cell(row, 5), 64)
		if err != nil {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return 0, nil
	}
	return sum / float64(count), nil
}
