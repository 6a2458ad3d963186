package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const ledgerColumns = `id, customer_id, order_id, kind, amount, description, created_at`

func scanLedgerEntry(row interface{ Scan(...any) error }) (LedgerEntry, error) {
	var e LedgerEntry
	err := row.Scan(&e.ID, &e.CustomerID, &e.OrderID, &e.Kind, &e.Amount, &e.Description, &e.CreatedAt)
	return e, err
}

const createLedgerEntry = `INSERT INTO ledger_entries (customer_id, order_id, kind, amount, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + ledgerColumns

type CreateLedgerEntryParams struct {
	CustomerID  int64
	OrderID     pgtype.Int8
	Kind        string
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}

func (q *Queries) CreateLedgerEntry(ctx context.Context, arg CreateLedgerEntryParams) (LedgerEntry, error) {
	row := q.db.QueryRow(ctx, createLedgerEntry, arg.CustomerID, arg.OrderID, arg.Kind, arg.Amount, arg.Description, arg.CreatedAt)
	return scanLedgerEntry(row)
}

const getOrderDebit = `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE order_id = $1 AND kind = 'debit'`

func (q *Queries) GetOrderDebit(ctx context.Context, orderID int64) (LedgerEntry, error) {
	return scanLedgerEntry(q.db.QueryRow(ctx, getOrderDebit, orderID))
}

const updateOrderDebit = `UPDATE ledger_entries
SET amount = $2, customer_id = $3
WHERE order_id = $1 AND kind = 'debit'
RETURNING ` + ledgerColumns

type UpdateOrderDebitParams struct {
	OrderID    int64
	Amount     decimal.Decimal
	CustomerID int64
}

func (q *Queries) UpdateOrderDebit(ctx context.Context, arg UpdateOrderDebitParams) (LedgerEntry, error) {
	return scanLedgerEntry(q.db.QueryRow(ctx, updateOrderDebit, arg.OrderID, arg.Amount, arg.CustomerID))
}

const deleteOrderDebits = `DELETE FROM ledger_entries WHERE order_id = $1 AND kind = 'debit'`

func (q *Queries) DeleteOrderDebits(ctx context.Context, orderID int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteOrderDebits, orderID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listLedgerEntries = `SELECT ` + ledgerColumns + ` FROM ledger_entries
WHERE customer_id = $1
ORDER BY created_at ASC, id ASC`

// ListLedgerEntries returns a customer's entries oldest first; entries sharing
// a timestamp keep insertion order.
func (q *Queries) ListLedgerEntries(ctx context.Context, customerID int64) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listLedgerEntries, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []LedgerEntry{}
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
