package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ReportOrder is an order with its customer name and lines, loaded eagerly for
// report aggregation.
type ReportOrder struct {
	ID           int64
	CustomerID   int64
	CustomerName string
	PlacedAt     time.Time
	DiscountPct  decimal.Decimal
	Total        decimal.Decimal
	Lines        []ReportLine
}

// ReportLine is one order line with the current product name when the product still exists.
type ReportLine struct {
	ProductID   pgtype.Int8
	ProductName pgtype.Text
	Description string
	Quantity    int32
	UnitPrice   decimal.Decimal
	UnitCost    decimal.Decimal
	Subtotal    decimal.Decimal
}

// reportRow is the flat shape returned by listReportOrders.
type reportRow struct {
	OrderID      int64
	CustomerID   int64
	CustomerName string
	PlacedAt     time.Time
	DiscountPct  decimal.Decimal
	Total        decimal.Decimal
	LineID       pgtype.Int8
	Line         ReportLine
}

const listReportOrders = `SELECT o.id, o.customer_id, c.name, o.placed_at, o.discount_pct, o.total,
       l.id, l.product_id, p.name, COALESCE(l.description, ''), COALESCE(l.quantity, 0),
       COALESCE(l.unit_price, 0), COALESCE(l.unit_cost, 0), COALESCE(l.subtotal, 0)
FROM orders o
JOIN customers c ON c.id = o.customer_id
LEFT JOIN order_lines l ON l.order_id = o.id
LEFT JOIN products p ON p.id = l.product_id
WHERE o.placed_at >= $1 AND o.placed_at < $2
ORDER BY o.placed_at, o.id, l.position, l.id`

// ListReportOrders loads every order placed in [from, to) together with its
// customer and lines in a single round trip.
func (q *Queries) ListReportOrders(ctx context.Context, from, to time.Time) ([]ReportOrder, error) {
	rows, err := q.db.Query(ctx, listReportOrders, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	flat := []reportRow{}
	for rows.Next() {
		var r reportRow
		if err := rows.Scan(
			&r.OrderID, &r.CustomerID, &r.CustomerName, &r.PlacedAt, &r.DiscountPct, &r.Total,
			&r.LineID, &r.Line.ProductID, &r.Line.ProductName, &r.Line.Description, &r.Line.Quantity,
			&r.Line.UnitPrice, &r.Line.UnitCost, &r.Line.Subtotal,
		); err != nil {
			return nil, err
		}
		flat = append(flat, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groupReportRows(flat), nil
}

// groupReportRows folds consecutive rows of the same order into one ReportOrder.
func groupReportRows(rows []reportRow) []ReportOrder {
	out := []ReportOrder{}
	for _, r := range rows {
		if n := len(out); n == 0 || out[n-1].ID != r.OrderID {
			out = append(out, ReportOrder{
				ID:           r.OrderID,
				CustomerID:   r.CustomerID,
				CustomerName: r.CustomerName,
				PlacedAt:     r.PlacedAt,
				DiscountPct:  r.DiscountPct,
				Total:        r.Total,
				Lines:        []ReportLine{},
			})
		}
		if !r.LineID.Valid {
			continue
		}
		last := &out[len(out)-1]
		last.Lines = append(last.Lines, r.Line)
	}
	return out
}
