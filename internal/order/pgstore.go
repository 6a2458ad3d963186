package order

import (
	"context"

	"github.com/noah-isme/backoffice/internal/store"
)

// PGTx runs order transactions on a pgx pool.
type PGTx struct {
	DB store.TxBeginner
	Q  *store.Queries
}

// InTx implements TxRunner.
func (p PGTx) InTx(ctx context.Context, fn func(Querier) error) error {
	return store.InTx(ctx, p.DB, p.Q, func(q *store.Queries) error {
		return fn(q)
	})
}
