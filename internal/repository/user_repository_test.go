package repository

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/EldonT123/bs-reviews/internal/model"
)

func newUserRepoT(t *testing.T) *UserRepo {
	t.Helper()
	return NewUserRepo(t.TempDir())
}

func TestUserCreateAndGet(t *testing.T) {
	r := newUserRepoT(t)

	acc, err := r.Create("  New@Example.COM ", "newbie", "hunter22", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if acc.Email != "new@example.com" {
		t.Fatalf("email not normalized: %q", acc.Email)
	}
	if acc.Tier != model.TierSnail || acc.Tokens != 0 || acc.ReviewBanned {
		t.Fatalf("new account not at Snail defaults: %+v", acc)
	}

	got, err := r.Get("NEW@example.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Username != "newbie" {
		t.Fatalf("Get returned %+v", got)
	}

	if _, err := r.Create("new@example.com", "imposter", "pw", bcrypt.MinCost); err != ErrEmailExists {
		t.Fatalf("duplicate create: got %v, want ErrEmailExists", err)
	}
}

func TestUserGetMissing(t *testing.T) {
	r := newUserRepoT(t)
	if _, err := r.Get("ghost@example.com"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestUserTokens(t *testing.T) {
	r := newUserRepoT(t)
	if _, err := r.Create("u@example.com", "u", "pw", bcrypt.MinCost); err != nil {
		t.Fatalf("Create: %v", err)
	}

	acc, err := r.AddTokens("u@example.com", 150)
	if err != nil || acc.Tokens != 150 {
		t.Fatalf("AddTokens: acc=%+v err=%v", acc, err)
	}
	acc, err = r.RemoveTokens("u@example.com", 50)
	if err != nil || acc.Tokens != 100 {
		t.Fatalf("RemoveTokens: acc=%+v err=%v", acc, err)
	}

	// An over-debit must fail and leave the balance untouched.
	if _, err := r.RemoveTokens("u@example.com", 101); err != ErrInsufficientTokens {
		t.Fatalf("over-debit: got %v, want ErrInsufficientTokens", err)
	}
	acc, _ = r.Get("u@example.com")
	if acc.Tokens != 100 {
		t.Fatalf("balance mutated by failed debit: %d", acc.Tokens)
	}

	// Debiting exactly the balance succeeds and yields zero.
	acc, err = r.RemoveTokens("u@example.com", 100)
	if err != nil || acc.Tokens != 0 {
		t.Fatalf("exact-balance debit: acc=%+v err=%v", acc, err)
	}
	if _, err := r.RemoveTokens("u@example.com", 1); err != ErrInsufficientTokens {
		t.Fatalf("debit from zero: got %v, want ErrInsufficientTokens", err)
	}
}

func TestUserReviewBanIdempotencyGuard(t *testing.T) {
	r := newUserRepoT(t)
	if _, err := r.Create("u@example.com", "u", "pw", bcrypt.MinCost); err != nil {
		t.Fatalf("Create: %v", err)
	}

	acc, err := r.SetReviewBanned("u@example.com", true)
	if err != nil || !acc.ReviewBanned {
		t.Fatalf("ban: acc=%+v err=%v", acc, err)
	}
	if _, err := r.SetReviewBanned("u@example.com", true); err != ErrConflict {
		t.Fatalf("double ban: got %v, want ErrConflict", err)
	}
	if _, err := r.SetReviewBanned("u@example.com", false); err != nil {
		t.Fatalf("unban: %v", err)
	}
	if _, err := r.SetReviewBanned("u@example.com", false); err != ErrConflict {
		t.Fatalf("double unban: got %v, want ErrConflict", err)
	}
}

func TestUserDeleteFreesEmail(t *testing.T) {
	r := newUserRepoT(t)
	if _, err := r.Create("u@example.com", "u", "pw", bcrypt.MinCost); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Delete("u@example.com"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := r.Delete("u@example.com"); err != ErrNotFound {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
	if _, err := r.Create("u@example.com", "again", "pw", bcrypt.MinCost); err != nil {
		t.Fatalf("re-signup after delete: %v", err)
	}
}

func TestUserPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	r1 := NewUserRepo(dir)
	if _, err := r1.Create("u@example.com", "u", "pw", bcrypt.MinCost); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r1.SetTier("u@example.com", model.TierBananaSlug); err != nil {
		t.Fatalf("SetTier: %v", err)
	}

	r2 := NewUserRepo(dir)
	acc, err := r2.Get("u@example.com")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if acc.Tier != model.TierBananaSlug {
		t.Fatalf("tier not persisted: %v", acc.Tier)
	}
}
