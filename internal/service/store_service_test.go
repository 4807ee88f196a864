package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/EldonT123/bs-reviews/internal/model"
	"github.com/EldonT123/bs-reviews/internal/repository"
)

func newStoreFixture(t *testing.T) (*StoreService, *repository.UserRepo) {
	t.Helper()
	dir := t.TempDir()
	users := repository.NewUserRepo(dir)
	purchases := repository.NewPurchaseRepo(dir)
	s := NewStoreService(users, purchases, nil, zap.NewNop())
	s.now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }
	return s, users
}

func seedBuyer(t *testing.T, users *repository.UserRepo, tokens int) {
	t.Helper()
	if _, err := users.Create("buyer@example.com", "buyer", "pw", bcrypt.MinCost); err != nil {
		t.Fatalf("seed buyer: %v", err)
	}
	if tokens > 0 {
		if _, err := users.AddTokens("buyer@example.com", tokens); err != nil {
			t.Fatalf("seed tokens: %v", err)
		}
	}
}

func validCard() PurchaseRequest {
	return PurchaseRequest{
		Method:     "card",
		CardNumber: "4111111111111111",
		CVV:        "123",
		Expiry:     "12/26",
	}
}

func TestCardValidation(t *testing.T) {
	s, _ := newStoreFixture(t)

	cases := []struct {
		name    string
		number  string
		cvv     string
		expiry  string
		wantErr error
	}{
		{"valid", "4111111111111111", "123", "12/26", nil},
		{"valid 4-digit cvv", "4111111111111111", "1234", "12/26", nil},
		{"valid this month", "4111111111111111", "123", "06/25", nil},
		{"short number", "411111111111", "123", "12/26", ErrInvalidCard},
		{"long number", "41111111111111111111", "123", "12/26", ErrInvalidCard},
		{"letters in number", "4111x11111111111", "123", "12/26", ErrInvalidCard},
		{"short cvv", "4111111111111111", "12", "12/26", ErrInvalidCard},
		{"bad expiry format", "4111111111111111", "123", "2026-12", ErrInvalidCard},
		{"expired last month", "4111111111111111", "123", "05/25", ErrCardExpired},
	}
	for _, c := range cases {
		err := s.validateCard(c.number, c.cvv, c.expiry)
		if c.wantErr == nil && err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
		}
		if c.wantErr != nil && !errors.Is(err, c.wantErr) {
			t.Errorf("%s: got %v, want %v", c.name, err, c.wantErr)
		}
	}
}

func TestPurchaseTokensWithCard(t *testing.T) {
	s, users := newStoreFixture(t)
	seedBuyer(t, users, 0)

	req := validCard()
	req.ItemID = "tokens_500"
	p, err := s.Purchase(context.Background(), "buyer@example.com", req)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if p.Status != model.PurchaseCompleted {
		t.Fatalf("status = %q, want completed", p.Status)
	}
	if p.Amount != 19.99 || p.TokensGranted != 500 || p.PaymentLast4 != "1111" {
		t.Fatalf("unexpected ledger row: %+v", p)
	}

	acc, _ := users.Get("buyer@example.com")
	if acc.Tokens != 500 {
		t.Fatalf("tokens not credited: %d", acc.Tokens)
	}

	history, err := s.History("buyer@example.com")
	if err != nil || len(history) != 1 {
		t.Fatalf("History: %v (%d rows)", err, len(history))
	}
	if history[0].PurchaseID != p.PurchaseID {
		t.Fatalf("history row mismatch: %+v", history[0])
	}
}

func TestPurchaseRankWithTokens(t *testing.T) {
	s, users := newStoreFixture(t)
	seedBuyer(t, users, 250)

	p, err := s.Purchase(context.Background(), "buyer@example.com", PurchaseRequest{ItemID: "rank_slug", Method: "tokens"})
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if p.Status != model.PurchaseCompleted || p.RankUpgrade != "Slug" {
		t.Fatalf("unexpected purchase: %+v", p)
	}

	acc, _ := users.Get("buyer@example.com")
	if acc.Tier != model.TierSlug {
		t.Fatalf("tier not upgraded: %v", acc.Tier)
	}
	if acc.Tokens != 50 {
		t.Fatalf("tokens after upgrade = %d, want 50", acc.Tokens)
	}
}

func TestPurchaseRejections(t *testing.T) {
	s, users := newStoreFixture(t)
	seedBuyer(t, users, 100)

	if _, err := s.Purchase(context.Background(), "buyer@example.com", PurchaseRequest{ItemID: "nope", Method: "tokens"}); err != ErrUnknownItem {
		t.Fatalf("unknown item: got %v", err)
	}
	// Token packs cannot be bought with tokens.
	if _, err := s.Purchase(context.Background(), "buyer@example.com", PurchaseRequest{ItemID: "tokens_100", Method: "tokens"}); err != ErrPaymentMethod {
		t.Fatalf("tokens-for-tokens: got %v", err)
	}
	if _, err := s.Purchase(context.Background(), "buyer@example.com", PurchaseRequest{ItemID: "tokens_100", Method: "cash"}); err != ErrPaymentMethod {
		t.Fatalf("unknown method: got %v", err)
	}
	// Not enough tokens for the upgrade; balance must be untouched.
	if _, err := s.Purchase(context.Background(), "buyer@example.com", PurchaseRequest{ItemID: "rank_slug", Method: "tokens"}); err != repository.ErrInsufficientTokens {
		t.Fatalf("insufficient tokens: got %v", err)
	}
	acc, _ := users.Get("buyer@example.com")
	if acc.Tokens != 100 {
		t.Fatalf("failed purchase mutated balance: %d", acc.Tokens)
	}

	// No ledger rows for any of the rejections.
	history, _ := s.History("buyer@example.com")
	if len(history) != 0 {
		t.Fatalf("rejected purchases wrote %d ledger rows", len(history))
	}
}

func TestPurchaseAlreadyUpgraded(t *testing.T) {
	s, users := newStoreFixture(t)
	seedBuyer(t, users, 1000)
	users.SetTier("buyer@example.com", model.TierBananaSlug)

	if _, err := s.Purchase(context.Background(), "buyer@example.com", PurchaseRequest{ItemID: "rank_slug", Method: "tokens"}); err != ErrAlreadyUpgraded {
		t.Fatalf("downgrade purchase: got %v, want ErrAlreadyUpgraded", err)
	}
	acc, _ := users.Get("buyer@example.com")
	if acc.Tokens != 1000 {
		t.Fatalf("rejected upgrade charged tokens: %d", acc.Tokens)
	}
}

func TestPurchaseBenefitsFailureIsPartial(t *testing.T) {
	s, _ := newStoreFixture(t)

	// A card payment for an account that does not exist: the payment and
	// ledger write go through, crediting fails, and the row is flagged
	// rather than rolled back.
	req := validCard()
	req.ItemID = "tokens_100"
	p, err := s.Purchase(context.Background(), "ghost@example.com", req)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if p.Status != model.PurchaseBenefitsFailed {
		t.Fatalf("status = %q, want benefits-failed", p.Status)
	}

	history, err := s.History("ghost@example.com")
	if err != nil || len(history) != 1 {
		t.Fatalf("History: %v (%d rows)", err, len(history))
	}
	if history[0].Status != model.PurchaseBenefitsFailed {
		t.Fatalf("persisted status = %q, want benefits-failed", history[0].Status)
	}
}
