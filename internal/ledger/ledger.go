// Package ledger keeps each customer's running account ("cuenta corriente"):
// order debits and payment credits folded into a balance.
package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backoffice/internal/store"
)

// Kind distinguishes charges from payments.
type Kind string

const (
	Debit  Kind = store.LedgerDebit
	Credit Kind = store.LedgerCredit
)

// Entry is one movement on a customer's account. Amount is always positive;
// Kind decides the sign.
type Entry struct {
	ID          int64           `json:"id"`
	CustomerID  int64           `json:"customer_id"`
	OrderID     *int64          `json:"order_id,omitempty"`
	Kind        Kind            `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Signed returns the entry's contribution to the balance.
func (e Entry) Signed() decimal.Decimal {
	if e.Kind == Credit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Row is an entry with the balance right after it was applied.
type Row struct {
	Entry
	Balance decimal.Decimal `json:"balance"`
}

// Statement is the chronological account history of one customer.
type Statement struct {
	Rows    []Row           `json:"rows"`
	Balance decimal.Decimal `json:"balance"`
}

// Reduce folds entries into a statement. Entries are applied by creation time,
// falling back to id for entries sharing a timestamp. The input is not modified.
func Reduce(entries []Entry) Statement {
	ordered := make([]Entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	balance := decimal.Zero
	rows := make([]Row, 0, len(ordered))
	for _, e := range ordered {
		balance = balance.Add(e.Signed())
		rows = append(rows, Row{Entry: e, Balance: balance})
	}
	return Statement{Rows: rows, Balance: balance}
}

func fromStore(e store.LedgerEntry) Entry {
	out := Entry{
		ID:          e.ID,
		CustomerID:  e.CustomerID,
		Kind:        Kind(e.Kind),
		Amount:      e.Amount,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
	if e.OrderID.Valid {
		id := e.OrderID.Int64
		out.OrderID = &id
	}
	return out
}
