package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const orderColumns = `o.id, o.customer_id, o.placed_at, o.delivery_at, o.status, o.contact_channel, o.notes, o.discount_pct, o.total, o.created_at, o.updated_at`

func orderDest(o *Order) []any {
	return []any{&o.ID, &o.CustomerID, &o.PlacedAt, &o.DeliveryAt, &o.Status, &o.ContactChannel, &o.Notes, &o.DiscountPct, &o.Total, &o.CreatedAt, &o.UpdatedAt}
}

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(orderDest(&o)...)
	return o, err
}

const createOrder = `INSERT INTO orders AS o (customer_id, placed_at, delivery_at, status, contact_channel, notes, discount_pct, total)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	CustomerID     int64
	PlacedAt       time.Time
	DeliveryAt     pgtype.Timestamptz
	Status         string
	ContactChannel string
	Notes          string
	DiscountPct    decimal.Decimal
	Total          decimal.Decimal
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder, arg.CustomerID, arg.PlacedAt, arg.DeliveryAt, arg.Status, arg.ContactChannel, arg.Notes, arg.DiscountPct, arg.Total)
	return scanOrder(row)
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`

func (q *Queries) GetOrder(ctx context.Context, id int64) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const updateOrder = `UPDATE orders AS o
SET customer_id = $2, delivery_at = $3, contact_channel = $4, notes = $5, discount_pct = $6, total = $7, updated_at = NOW()
WHERE o.id = $1
RETURNING ` + orderColumns

type UpdateOrderParams struct {
	ID             int64
	CustomerID     int64
	DeliveryAt     pgtype.Timestamptz
	ContactChannel string
	Notes          string
	DiscountPct    decimal.Decimal
	Total          decimal.Decimal
}

func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrder, arg.ID, arg.CustomerID, arg.DeliveryAt, arg.ContactChannel, arg.Notes, arg.DiscountPct, arg.Total)
	return scanOrder(row)
}

const markOrderDelivered = `UPDATE orders AS o
SET status = 'delivered', delivery_at = COALESCE(o.delivery_at, $2), updated_at = $2
WHERE o.id = $1
RETURNING ` + orderColumns

func (q *Queries) MarkOrderDelivered(ctx context.Context, id int64, at time.Time) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, markOrderDelivered, id, at))
}

const deleteOrder = `DELETE FROM orders WHERE id = $1`

func (q *Queries) DeleteOrder(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteOrder, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listOrders = `SELECT ` + orderColumns + `, c.name
FROM orders o
JOIN customers c ON c.id = o.customer_id
WHERE ($1::text = '' OR c.name ILIKE '%' || $1 || '%')
  AND ($2::text = '' OR o.status = $2)
  AND ($3::timestamptz IS NULL OR o.placed_at >= $3)
  AND ($4::timestamptz IS NULL OR o.placed_at < $4)
ORDER BY o.placed_at DESC, o.id DESC`

type ListOrdersParams struct {
	CustomerSearch string
	Status         string
	From           pgtype.Timestamptz
	To             pgtype.Timestamptz
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]OrderListRow, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.CustomerSearch, arg.Status, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderListRow{}
	for rows.Next() {
		var r OrderListRow
		dest := append(orderDest(&r.Order), &r.CustomerName)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const lineColumns = `id, order_id, product_id, position, description, quantity, unit_price, unit_cost, subtotal`

func scanLine(row interface{ Scan(...any) error }) (OrderLine, error) {
	var l OrderLine
	err := row.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Position, &l.Description, &l.Quantity, &l.UnitPrice, &l.UnitCost, &l.Subtotal)
	return l, err
}

const createOrderLine = `INSERT INTO order_lines (order_id, product_id, position, description, quantity, unit_price, unit_cost, subtotal)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + lineColumns

type CreateOrderLineParams struct {
	OrderID     int64
	ProductID   pgtype.Int8
	Position    int32
	Description string
	Quantity    int32
	UnitPrice   decimal.Decimal
	UnitCost    decimal.Decimal
	Subtotal    decimal.Decimal
}

func (q *Queries) CreateOrderLine(ctx context.Context, arg CreateOrderLineParams) (OrderLine, error) {
	row := q.db.QueryRow(ctx, createOrderLine, arg.OrderID, arg.ProductID, arg.Position, arg.Description, arg.Quantity, arg.UnitPrice, arg.UnitCost, arg.Subtotal)
	return scanLine(row)
}

const listOrderLines = `SELECT ` + lineColumns + ` FROM order_lines WHERE order_id = $1 ORDER BY position, id`

func (q *Queries) ListOrderLines(ctx context.Context, orderID int64) ([]OrderLine, error) {
	rows, err := q.db.Query(ctx, listOrderLines, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderLine{}
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const deleteOrderLines = `DELETE FROM order_lines WHERE order_id = $1`

func (q *Queries) DeleteOrderLines(ctx context.Context, orderID int64) error {
	_, err := q.db.Exec(ctx, deleteOrderLines, orderID)
	return err
}
