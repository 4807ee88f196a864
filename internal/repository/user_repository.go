package repository

import (
	"path/filepath"
	"strconv"
	"sync"

	"github.com/EldonT123/bs-reviews/internal/model"
	"github.com/EldonT123/bs-reviews/internal/utils"
)

// UserRepo persists user accounts in user_information.csv.  Row layout:
// email,username,password_hash,tier,tokens,review_banned.  Emails are
// assumed normalized by the caller; the repository normalizes again on
// lookups as a safety net.
type UserRepo struct {
	mu   sync.Mutex
	path string
}

func NewUserRepo(dataDir string) *UserRepo {
	return &UserRepo{path: filepath.Join(dataDir, "user_information.csv")}
}

func encodeAccount(a model.Account) []string {
	return []string{
		a.Email,
		a.Username,
		a.PasswordHash,
		a.Tier.String(),
		strconv.Itoa(a.Tokens),
		yn(a.ReviewBanned),
	}
}

func decodeAccount(row []string) model.Account {
	tier, _ := model.ParseTier(cell(row, 3))
	return model.Account{
		Email:        cell(row, 0),
		Username:     cell(row, 1),
		PasswordHash: cell(row, 2),
		Tier:         tier,
		Tokens:       cellInt(row, 4),
		ReviewBanned: isYes(cell(row, 5)),
	}
}

// Create inserts a new account at the Snail tier with a zero token balance.
// Returns ErrEmailExists when the email already has a row.
func (r *UserRepo) Create(email, username, password string, cost int) (model.Account, error) {
	email = utils.NormalizeEmail(email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.Account{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return model.Account{}, err
	}
	for _, row := range rows {
		if cell(row, 0) == email {
			return model.Account{}, ErrEmailExists
		}
	}
	acc := model.Account{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Tier:         model.TierSnail,
	}
	rows = append(rows, encodeAccount(acc))
	if err := writeTable(r.path, rows); err != nil {
		return model.Account{}, err
	}
	return acc, nil
}

// Get fetches an account by normalized email.
func (r *UserRepo) Get(email string) (model.Account, error) {
	email = utils.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return model.Account{}, err
	}
	for _, row := range rows {
		if cell(row, 0) == email {
			return decodeAccount(row), nil
		}
	}
	return model.Account{}, ErrNotFound
}

// List returns every account in table order.
func (r *UserRepo) List() ([]model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return nil, err
	}
	accounts := make([]model.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, decodeAccount(row))
	}
	return accounts, nil
}

// Delete removes an account row.
func (r *UserRepo) Delete(email string) error {
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

// update applies fn to the matching account under the lock and rewrites the
// table.  fn may return an error to abort with no mutation.
func (r *UserRepo) update(email string, fn func(*model.Account) error) (model.Account, error) {
	email = utils.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return model.Account{}, err
	}
	for i, row := range rows {
		if cell(row, 0) == email {
			acc := decodeAccount(row)
			if err := fn(&acc); err != nil {
				return model.Account{}, err
			}
			rows[i] = encodeAccount(acc)
			if err := writeTable(r.path, rows); err != nil {
				return model.Account{}, err
			}
			return acc, nil
		}
	}
	return model.Account{}, ErrNotFound
}

// SetUsername changes the display name.
func (r *UserRepo) SetUsername(email, username string) (model.Account, error) {
	return r.update(email, func(a *model.Account) error {
		a.Username = username
		return nil
	})
}

// SetTier replaces the account tier.
func (r *UserRepo) SetTier(email string, tier model.Tier) (model.Account, error) {
	return r.update(email, func(a *model.Account) error {
		a.Tier = tier
		return nil
	})
}

// AddTokens credits the balance.
func (r *UserRepo) AddTokens(email string, amount int) (model.Account, error) {
	return r.update(email, func(a *model.Account) error {
		a.Tokens += amount
		return nil
	})
}

// RemoveTokens debits the balance.  A debit larger than the balance fails
// with ErrInsufficientTokens and leaves the row untouched.
func (r *UserRepo) RemoveTokens(email string, amount int) (model.Account, error) {
	return r.update(email, func(a *model.Account) error {
		if amount > a.Tokens {
			return ErrInsufficientTokens
		}
		a.Tokens -= amount
		return nil
	})
}

// SetReviewBanned flips the soft-ban flag.  Setting the flag to its current
// value is rejected with ErrConflict so double bans and double unbans
// surface as user errors instead of silent no-ops.
func (r *UserRepo) SetReviewBanned(email string, banned bool) (model.Account, error) {
	return r.update(email, func(a *model.Account) error {
		if a.ReviewBanned == banned {
			return ErrConflict
		}
		a.ReviewBanned = banned
		return nil
	})
}
