package repository

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/EldonT123/bs-reviews/internal/model"
	"github.com/EldonT123/bs-reviews/internal/utils"
)

// BlacklistRepo persists permanent-ban records in blacklist.csv.  Row
// layout: email,banned_at,banned_by,reason.  Membership is checked on every
// signup independently of whether a live account exists for the email.
type BlacklistRepo struct {
	mu   sync.Mutex
	path string
}

func NewBlacklistRepo(dataDir string) *BlacklistRepo {
	return &BlacklistRepo{path: filepath.Join(dataDir, "blacklist.csv")}
}

func decodeBan(row []string) model.BanRecord {
	at, _ := time.Parse(time.RFC3339, cell(row, 1))
	return model.BanRecord{
		Email:    cell(row, 0),
		BannedAt: at,
		BannedBy: cell(row, 2),
		Reason:   cell(row, 3),
	}
}

// Add appends a ban record.  Returns ErrConflict if the email is already
// blacklisted.
func (r *BlacklistRepo) Add(rec model.BanRecord) error {
	rec.Email = utils.NormalizeEmail(rec.Email)
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if cell(row, 0) == rec.Email {
			return ErrConflict
		}
	}
	rows = append(rows, []string{
		rec.Email,
		rec.BannedAt.UTC().Format(time.RFC3339),
		rec.BannedBy,
		rec.Reason,
	})
	return writeTable(r.path, rows)
}

// Remove deletes the ban record for an email.  Removing a record does not
// restore any account or review state; it only re-opens the email for
// signup.
func (r *BlacklistRepo) Remove(email string) error {
	email = utils.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if cell(row, 0) == email {
			rows = append(rows[:i], rows[i+1:]...)
			return writeTable(r.path, rows)
		}
	}
	return ErrNotFound
}

// Contains reports whether an email is blacklisted.
func (r *BlacklistRepo) Contains(email string) (bool, error) {
	email = utils.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if cell(row, 0) == email {
			return true, nil
		}
	}
	return false, nil
}

// List returns every ban record in table order.
func (r *BlacklistRepo) List() ([]model.BanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return nil, err
	}
	recs := make([]model.BanRecord, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, decodeBan(row))
	}
	return recs, nil
}
