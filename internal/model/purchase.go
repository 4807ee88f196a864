package model

// Purchase statuses recorded in the ledger.  A purchase whose payment
// succeeded but whose benefits (token credit or tier upgrade) could not be
// applied is a distinct state that callers must surface separately from a
// full failure.
const (
	PurchaseCompleted      = "completed"
	PurchaseBenefitsFailed = "completed_benefits_failed"
)

// Item types sold by the store.
const (
	ItemTypeTokens      = "tokens"
	ItemTypeRankUpgrade = "rank_upgrade"
)

// StoreItem describes something purchasable.  Items are priced in CAD, in
// tokens, or both; a zero price in either unit means that payment path is
// unavailable for the item.
type StoreItem struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	PriceCAD    float64 `json:"price_cad,omitempty"`
	PriceTokens int     `json:"price_tokens,omitempty"`
	Tokens      int     `json:"tokens,omitempty"`       // tokens granted on purchase
	UpgradeTier string  `json:"upgrade_tier,omitempty"` // tier granted on purchase
}

// Purchase is an append-only row in purchase_history.csv.  Rows are never
// mutated after creation; validation failures short-circuit before any row
// is written.
type Purchase struct {
	PurchaseID    string  `json:"purchase_id"`
	UserEmail     string  `json:"user_email"`
	ItemID        string  `json:"item_id"`
	ItemType      string  `json:"item_type"`
	ItemName      string  `json:"item_name"`
	Amount        float64 `json:"amount"`        // CAD amount, or token amount for token payments
	PaymentLast4  string  `json:"payment_last4"` // "" for token payments
	TokensGranted int     `json:"tokens_received"`
	RankUpgrade   string  `json:"rank_upgrade"`
	Timestamp     string  `json:"timestamp"`
	Status        string  `json:"status"`
	TransactionID string  `json:"transaction_id"`
}
