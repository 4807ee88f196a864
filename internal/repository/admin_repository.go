package repository

import (
	"path/filepath"
	"sync"

	"github.com/EldonT123/bs-reviews/internal/model"
	"github.com/EldonT123/bs-reviews/internal/utils"
)

// AdminRepo persists admin principals in admin_information.csv.  Row layout:
// email,password_hash.  Admins are created out-of-band (seeding) rather than
// through a public signup flow.
type AdminRepo struct {
	mu   sync.Mutex
	path string
}

func NewAdminRepo(dataDir string) *AdminRepo {
	return &AdminRepo{path: filepath.Join(dataDir, "admin_information.csv")}
}

// Get fetches an admin by normalized email.
func (r *AdminRepo) Get(email string) (model.Admin, error) {
	email = utils.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return model.Admin{}, err
	}
	for _, row := range rows {
		if cell(row, 0) == email {
			return model.Admin{Email: cell(row, 0), PasswordHash: cell(row, 1)}, nil
		}
	}
	return model.Admin{}, ErrNotFound
}

// Create inserts a new admin row.  Returns ErrEmailExists on collision.
func (r *AdminRepo) Create(email, password string, cost int) (model.Admin, error) {
	email = utils.NormalizeEmail(email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.Admin{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return model.Admin{}, err
	}
	for _, row := range rows {
		if cell(row, 0) == email {
			return model.Admin{}, ErrEmailExists
		}
	}
	rows = append(rows, []string{email, hash})
	if err := writeTable(r.path, rows); err != nil {
		return model.Admin{}, err
	}
	return model.Admin{Email: email, PasswordHash: hash}, nil
}

// EnsureSeed creates the given admin if no row for it exists yet.  Used at
// startup so a fresh deployment has at least one admin account.
func (r *AdminRepo) EnsureSeed(email, password string, cost int) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := r.Get(email); err == nil {
		return nil
	} else if err != ErrNotFound {
		return err
	}
	_, err := r.Create(email, password, cost)
	if err == ErrEmailExists {
		return nil
	}
	return err
}
