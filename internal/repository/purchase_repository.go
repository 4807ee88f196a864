package repository

import (
	"path/filepath"
	"strconv"
	"sync"

	"github.com/EldonT123/bs-reviews/internal/model"
	"github.com/EldonT123/bs-reviews/internal/utils"
)

// PurchaseRepo persists the append-only purchase ledger in
// purchase_history.csv.  Rows are never mutated after creation.  Row layout:
// purchase_id,user_email,item_id,item_type,item_name,amount,payment_last4,
// tokens_received,rank_upgrade,timestamp,status,transaction_id.
type PurchaseRepo struct {
	mu   sync.Mutex
	path string
}

func NewPurchaseRepo(dataDir string) *PurchaseRepo {
	return &PurchaseRepo{path: filepath.Join(dataDir, "purchase_history.csv")}
}

func encodePurchase(p model.Purchase) []string {
	return []string{
		p.PurchaseID,
		p.UserEmail,
		p.ItemID,
		p.ItemType,
		p.ItemName,
		strconv.FormatFloat(p.Amount, 'f', 2, 64),
		p.PaymentLast4,
		strconv.Itoa(p.TokensGranted),
		p.RankUpgrade,
		p.Timestamp,
		p.Status,
		p.TransactionID,
	}
}

func decodePurchase(row []string) model.Purchase {
	amount, _ := strconv.ParseFloat(cell(row, 5), 64)
	return model.Purchase{
		PurchaseID:    cell(row, 0),
		UserEmail:     cell(row, 1),
		ItemID:        cell(row, 2),
		ItemType:      cell(row, 3),
		ItemName:      cell(row, 4),
		Amount:        amount,
		PaymentLast4:  cell(row, 6),
		TokensGranted: cellInt(row, 7),
		RankUpgrade:   cell(row, 8),
		Timestamp:     cell(row, 9),
		Status:        cell(row, 10),
		TransactionID: cell(row, 11),
	}
}

// Append adds a ledger row.
func (r *PurchaseRepo) Append(p model.Purchase) error {
	p.UserEmail = utils.NormalizeEmail(p.UserEmail)
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return err
	}
	rows = append(rows, encodePurchase(p))
	return writeTable(r.path, rows)
}

// SetStatus rewrites the status cell of an existing row.  The ledger is
// append-only for purchase data; status is the one exception so a benefit
// failure after a successful payment can be recorded against its row.
func (r *PurchaseRepo) SetStatus(purchaseID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if cell(row, 0) == purchaseID {
			for len(rows[i]) < 12 {
				rows[i] = append(rows[i], "")
			}
			rows[i][10] = status
			return writeTable(r.path, rows)
		}
	}
	return ErrNotFound
}

// ListByUser returns a user's purchases, newest first.
func (r *PurchaseRepo) ListByUser(email string) ([]model.Purchase, error) {
	email = utils.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := readTable(r.path)
	if err != nil {
		return nil, err
	}
	purchases := []model.Purchase{}
	for i := len(rows) - 1; i >= 0; i-- { // file order is chronological
		if cell(rows[i], 1) == email {
			purchases = append(purchases, decodePurchase(rows[i]))
		}
	}
	return purchases, nil
}
