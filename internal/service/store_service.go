package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/EldonT123/bs-reviews/internal/model"
	"github.com/EldonT123/bs-reviews/internal/queue"
	"github.com/EldonT123/bs-reviews/internal/repository"
	"github.com/EldonT123/bs-reviews/internal/utils"
)

// Store validation errors.  All of these short-circuit before any ledger
// row is written.
var (
	ErrUnknownItem     = errors.New("unknown store item")
	ErrPaymentMethod   = errors.New("payment method not available for item")
	ErrInvalidCard     = errors.New("invalid card details")
	ErrCardExpired     = errors.New("card expired")
	ErrAlreadyUpgraded = errors.New("account already at or above this tier")
)

// catalog is the fixed set of purchasable items.  Token packs are priced in
// CAD; rank upgrades can be bought with CAD or with tokens.
var catalog = []model.StoreItem{
	{ID: "tokens_100", Type: model.ItemTypeTokens, Name: "100 Token Pack", PriceCAD: 4.99, Tokens: 100},
	{ID: "tokens_500", Type: model.ItemTypeTokens, Name: "500 Token Pack", PriceCAD: 19.99, Tokens: 500},
	{ID: "tokens_1200", Type: model.ItemTypeTokens, Name: "1200 Token Pack", PriceCAD: 39.99, Tokens: 1200},
	{ID: "rank_slug", Type: model.ItemTypeRankUpgrade, Name: "Slug Rank Upgrade", PriceCAD: 9.99, PriceTokens: 200, UpgradeTier: "Slug"},
	{ID: "rank_bananaslug", Type: model.ItemTypeRankUpgrade, Name: "BananaSlug Rank Upgrade", PriceCAD: 24.99, PriceTokens: 500, UpgradeTier: "BananaSlug"},
}

// PurchaseRequest is a validated purchase attempt.  Method is "card" or
// "tokens".  Card fields are only consulted for card payments.
type PurchaseRequest struct {
	ItemID     string `json:"item_id"`
	Method     string `json:"method"`
	CardNumber string `json:"card_number,omitempty"`
	CVV        string `json:"cvv,omitempty"`
	Expiry     string `json:"expiry,omitempty"` // MM/YY
}

// StoreService implements the token-purchase and rank-upgrade economy.
// Exactly one ledger row is written per successful payment; benefits are
// applied only after the write, and a benefit failure is surfaced as the
// distinct "completed_benefits_failed" status rather than a full failure.
type StoreService struct {
	Users     *repository.UserRepo
	Purchases *repository.PurchaseRepo
	Audit     *AuditPublisher
	Log       *zap.Logger

	now func() time.Time
}

func NewStoreService(users *repository.UserRepo, purchases *repository.PurchaseRepo, audit *AuditPublisher, log *zap.Logger) *StoreService {
	return &StoreService{Users: users, Purchases: purchases, Audit: audit, Log: log, now: time.Now}
}

// Items returns the purchasable catalog.
func (s *StoreService) Items() []model.StoreItem { return catalog }

func findItem(id string) (model.StoreItem, bool) {
	for _, it := range catalog {
		if it.ID == id {
			return it, true
		}
	}
	return model.StoreItem{}, false
}

// validateCard runs the mock card checks: number length, CVV length, and a
// parseable, unexpired MM/YY expiry.  No real payment processor is behind
// this.
func (s *StoreService) validateCard(number, cvv, expiry string) error {
	if n := len(number); n < 13 || n > 19 || !digitsOnly(number) {
		return fmt.Errorf("%w: card number", ErrInvalidCard)
	}
	if n := len(cvv); n < 3 || n > 4 || !digitsOnly(cvv) {
		return fmt.Errorf("%w: cvv", ErrInvalidCard)
	}
	exp, err := time.Parse("01/06", expiry)
	if err != nil {
		return fmt.Errorf("%w: expiry must be MM/YY", ErrInvalidCard)
	}
	// Valid through the end of the stated month.
	if !s.now().Before(exp.AddDate(0, 1, 0)) {
		return ErrCardExpired
	}
	return nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Purchase processes one purchase.  Validation failures return an error and
// write nothing.  After the ledger write, the returned Purchase's Status
// field distinguishes full success from payment-succeeded-benefits-failed.
func (s *StoreService) Purchase(ctx context.Context, email string, req PurchaseRequest) (model.Purchase, error) {
	email = utils.NormalizeEmail(email)
	item, ok := findItem(req.ItemID)
	if !ok {
		return model.Purchase{}, ErrUnknownItem
	}
	if item.UpgradeTier != "" {
		tier, err := model.ParseTier(item.UpgradeTier)
		if err != nil {
			return model.Purchase{}, err
		}
		acc, err := s.Users.Get(email)
		if err != nil {
			return model.Purchase{}, err
		}
		if acc.Tier >= tier {
			return model.Purchase{}, ErrAlreadyUpgraded
		}
	}

	var amount float64
	var last4 string
	switch req.Method {
	case "card":
		if item.PriceCAD <= 0 {
			return model.Purchase{}, ErrPaymentMethod
		}
		if err := s.validateCard(req.CardNumber, req.CVV, req.Expiry); err != nil {
			return model.Purchase{}, err
		}
		amount = item.PriceCAD
		last4 = req.CardNumber[len(req.CardNumber)-4:]
	case "tokens":
		if item.PriceTokens <= 0 {
			return model.Purchase{}, ErrPaymentMethod
		}
		if _, err := s.Users.RemoveTokens(email, item.PriceTokens); err != nil {
			return model.Purchase{}, err
		}
		amount = float64(item.PriceTokens)
	default:
		return model.Purchase{}, ErrPaymentMethod
	}

	purchaseID, err := utils.NewPurchaseID()
	if err != nil {
		return model.Purchase{}, err
	}
	txnID, err := utils.NewPurchaseID()
	if err != nil {
		return model.Purchase{}, err
	}
	p := model.Purchase{
		PurchaseID:    purchaseID,
		UserEmail:     email,
		ItemID:        item.ID,
		ItemType:      item.Type,
		ItemName:      item.Name,
		Amount:        amount,
		PaymentLast4:  last4,
		TokensGranted: item.Tokens,
		RankUpgrade:   item.UpgradeTier,
		Timestamp:     s.now().UTC().Format(time.RFC3339),
		Status:        model.PurchaseCompleted,
		TransactionID: "txn_" + txnID,
	}
	if err := s.Purchases.Append(p); err != nil {
		return model.Purchase{}, err
	}

	// Payment is recorded; apply benefits.  From here on a failure is the
	// partial "completed but benefits not applied" state, never a rollback.
	if err := s.applyBenefits(email, item); err != nil {
		s.Log.Warn("purchase benefits not applied",
			zap.String("purchase_id", p.PurchaseID),
			zap.String("email", email),
			zap.Error(err))
		p.Status = model.PurchaseBenefitsFailed
		if serr := s.Purchases.SetStatus(p.PurchaseID, p.Status); serr != nil {
			s.Log.Warn("purchase status update failed", zap.String("purchase_id", p.PurchaseID), zap.Error(serr))
		}
	}

	s.Audit.Publish(ctx, queue.AuditEvent{
		Action:     queue.ActionPurchase,
		ActorEmail: email,
		Detail:     fmt.Sprintf("%s %s (%s)", p.ItemID, p.Status, p.TransactionID),
	})
	return p, nil
}

func (s *StoreService) applyBenefits(email string, item model.StoreItem) error {
	if item.Tokens > 0 {
		if _, err := s.Users.AddTokens(email, item.Tokens); err != nil {
			return err
		}
	}
	if item.UpgradeTier != "" {
		tier, err := model.ParseTier(item.UpgradeTier)
		if err != nil {
			return err
		}
		if _, err := s.Users.SetTier(email, tier); err != nil {
			return err
		}
	}
	return nil
}

// History returns the user's ledger rows, newest first.
func (s *StoreService) History(email string) ([]model.Purchase, error) {
	return s.Purchases.ListByUser(email)
}
