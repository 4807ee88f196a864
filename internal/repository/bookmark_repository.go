package repository

import (
	"path/filepath"
	"sync"

	"github.com/EldonT123/bs-reviews/internal/utils"
)

// BookmarkRepo persists per-user movie bookmarks in user_bookmarks.csv.
// Row layout: email,movie.
type BookmarkRepo struct {
	mu   sync.Mutex
	path string
}

func NewBookmarkRepo(dataDir string) *BookmarkRepo {
	return &BookmarkRepo{path: filepath.Join(dataDir, "user_bookmarks.csv")}
}

// Add records a bookmark.  Duplicate bookmarks are rejected with ErrConflict.
func (r *BookmarkRepo) Add(email, movie string) error {
	email = utils.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if cell(row, 0) == email && cell(row, 1) == movie {
			return ErrConflict
		}
	}
	rows = append(rows, []string{email, movie})
	return writeTable(r.path, rows)
}

// Remove deletes a bookmark.
func (r *BookmarkRepo) Remove(email, movie string) error {
	email = utils.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if cell(row, 0) == email && cell(row, 1) == movie {
			rows = append(rows[:i], rows[i+1:]...)
			return writeTable(r.path, rows)
		}
	}
	return ErrNotFound
}

// List returns the movies bookmarked by a user, in insertion order.
func (r *BookmarkRepo) List(email string) ([]string, error) {
	email = utils.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return nil, err
	}
	movies := []string{}
	for _, row := range rows {
		if cell(row, 0) == email {
			movies = append(movies, cell(row, 1))
		}
	}
	return movies, nil
}

// RemoveAll deletes every bookmark belonging to a user.  Used when an
// account is removed.
func (r *BookmarkRepo) RemoveAll(email string) (int, error) {
	email = utils.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return 0, err
	}
	kept := rows[:0]
	removed := 0
	for _, row := range rows {
		if cell(row, 0) == email {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, writeTable(r.path, kept)
}
