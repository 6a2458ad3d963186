package order

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backoffice/internal/common"
	"github.com/noah-isme/backoffice/internal/obs"
	"github.com/noah-isme/backoffice/internal/pricing"
	"github.com/noah-isme/backoffice/internal/store"
)

// Querier is the subset of store.Queries used by orders.
type Querier interface {
	GetCustomer(ctx context.Context, id int64) (store.Customer, error)
	GetProduct(ctx context.Context, id int64) (store.Product, error)

	CreateOrder(ctx context.Context, arg store.CreateOrderParams) (store.Order, error)
	GetOrder(ctx context.Context, id int64) (store.Order, error)
	UpdateOrder(ctx context.Context, arg store.UpdateOrderParams) (store.Order, error)
	MarkOrderDelivered(ctx context.Context, id int64, at time.Time) (store.Order, error)
	DeleteOrder(ctx context.Context, id int64) (int64, error)
	ListOrders(ctx context.Context, arg store.ListOrdersParams) ([]store.OrderListRow, error)

	CreateOrderLine(ctx context.Context, arg store.CreateOrderLineParams) (store.OrderLine, error)
	ListOrderLines(ctx context.Context, orderID int64) ([]store.OrderLine, error)
	DeleteOrderLines(ctx context.Context, orderID int64) error

	CreateLedgerEntry(ctx context.Context, arg store.CreateLedgerEntryParams) (store.LedgerEntry, error)
	GetOrderDebit(ctx context.Context, orderID int64) (store.LedgerEntry, error)
	UpdateOrderDebit(ctx context.Context, arg store.UpdateOrderDebitParams) (store.LedgerEntry, error)
	DeleteOrderDebits(ctx context.Context, orderID int64) (int64, error)
}

// TxRunner runs fn inside a single database transaction, committing only when
// fn returns nil.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Querier) error) error
}

// Service implements order workflows.
type Service struct {
	q   Querier
	tx  TxRunner
	loc *time.Location
	now func() time.Time
}

// ServiceConfig configures the Service.
type ServiceConfig struct {
	Queries  Querier
	Tx       TxRunner
	Location *time.Location
	Now      func() time.Time
}

// NewService constructs an order Service.
func NewService(cfg ServiceConfig) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{q: cfg.Queries, tx: cfg.Tx, loc: loc, now: cfg.Now}
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// debitDescription is the ledger description of the debit tied to an order.
func debitDescription(orderID int64) string {
	return fmt.Sprintf("Order #%d", orderID)
}

type resolvedLine struct {
	productID   int64
	description string
	line        pricing.Line
}

// Column scales of order_lines.unit_price and orders.discount_pct. Inputs are
// rounded to them before any total is computed.
const (
	priceScale    = 2
	discountScale = 3
)

// MaxQuantity is the largest quantity an order line can hold.
const MaxQuantity = math.MaxInt32

// resolveLines turns requested lines into priced lines. Lines without a known
// product are dropped.
func resolveLines(ctx context.Context, q Querier, in []LineInput) ([]resolvedLine, error) {
	out := make([]resolvedLine, 0, len(in))
	for i, li := range in {
		if li.Quantity > MaxQuantity {
			field := fmt.Sprintf("lines[%d].quantity", i)
			return nil, common.Validation("quantity out of range", map[string]string{field: "max"})
		}
		if li.ProductID <= 0 {
			continue
		}
		product, err := q.GetProduct(ctx, li.ProductID)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("load product %d: %w", li.ProductID, err)
		}
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		price, ok := pricing.ParseDecimal(li.UnitPrice)
		if !ok {
			price = product.SalePrice
		}
		price = price.Round(priceScale)
		description := strings.TrimSpace(li.Description)
		if description == "" {
			description = product.Name
		}
		out = append(out, resolvedLine{
			productID:   product.ID,
			description: description,
			line:        pricing.Line{Quantity: qty, UnitPrice: price, UnitCost: product.PurchasePrice},
		})
	}
	return out, nil
}

var maxDiscount = decimal.NewFromInt(100)

// orderDiscount parses the requested percentage. Anything above 100% yields a
// zero total anyway and is stored as 100.
func orderDiscount(raw string) decimal.Decimal {
	d := pricing.ParseDiscount(raw).Round(discountScale)
	if d.GreaterThan(maxDiscount) {
		return maxDiscount
	}
	return d
}

func summarize(lines []resolvedLine, discount decimal.Decimal) pricing.Summary {
	pl := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		pl = append(pl, l.line)
	}
	return pricing.Compute(pl, discount)
}

func insertLines(ctx context.Context, q Querier, orderID int64, lines []resolvedLine) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	for i, l := range lines {
		created, err := q.CreateOrderLine(ctx, store.CreateOrderLineParams{
			OrderID:     orderID,
			ProductID:   pgtype.Int8{Int64: l.productID, Valid: true},
			Position:    int32(i + 1),
			Description: l.description,
			Quantity:    int32(l.line.Quantity),
			UnitPrice:   l.line.UnitPrice,
			UnitCost:    l.line.UnitCost,
			Subtotal:    l.line.Subtotal(),
		})
		if err != nil {
			return nil, fmt.Errorf("insert order line: %w", err)
		}
		out = append(out, toLine(created))
	}
	return out, nil
}

func loadCustomer(ctx context.Context, q Querier, id int64) (store.Customer, error) {
	customer, err := q.GetCustomer(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Customer{}, common.NotFound("customer")
		}
		return store.Customer{}, fmt.Errorf("load customer: %w", err)
	}
	return customer, nil
}

func deliveryParam(at *time.Time) pgtype.Timestamptz {
	if at == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *at, Valid: true}
}

// Create stores a new pending order with its lines and, when the total is
// positive, the matching ledger debit. Everything happens in one transaction.
func (s *Service) Create(ctx context.Context, in Input) (detail Detail, err error) {
	debited := false
	defer func() {
		obs.ObserveOrderMutation("create", err)
		if err == nil && debited {
			obs.ObserveLedgerEntry(string(store.LedgerDebit))
		}
	}()

	now := s.clock()
	err = s.tx.InTx(ctx, func(q Querier) error {
		customer, err := loadCustomer(ctx, q, in.CustomerID)
		if err != nil {
			return err
		}
		lines, err := resolveLines(ctx, q, in.Lines)
		if err != nil {
			return err
		}
		summary := summarize(lines, orderDiscount(in.Discount))

		created, err := q.CreateOrder(ctx, store.CreateOrderParams{
			CustomerID:     customer.ID,
			PlacedAt:       now,
			DeliveryAt:     deliveryParam(in.DeliveryAt),
			Status:         store.OrderStatusPending,
			ContactChannel: strings.TrimSpace(in.ContactChannel),
			Notes:          strings.TrimSpace(in.Notes),
			DiscountPct:    summary.DiscountPct,
			Total:          summary.Total,
		})
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		stored, err := insertLines(ctx, q, created.ID, lines)
		if err != nil {
			return err
		}
		if summary.Total.IsPositive() {
			if _, err := q.CreateLedgerEntry(ctx, store.CreateLedgerEntryParams{
				CustomerID:  customer.ID,
				OrderID:     pgtype.Int8{Int64: created.ID, Valid: true},
				Kind:        store.LedgerDebit,
				Amount:      summary.Total,
				Description: debitDescription(created.ID),
				CreatedAt:   now,
			}); err != nil {
				return fmt.Errorf("insert order debit: %w", err)
			}
			debited = true
		}
		detail = Detail{Order: toOrder(created, customer.Name), Lines: stored, Summary: summary}
		return nil
	})
	if err != nil {
		return Detail{}, err
	}
	return detail, nil
}

// Update replaces the order's header fields and lines, recomputes its total and
// reconciles the ledger debit. The placement date and status are kept.
func (s *Service) Update(ctx context.Context, id int64, in Input) (detail Detail, err error) {
	debited := false
	defer func() {
		obs.ObserveOrderMutation("update", err)
		if err == nil && debited {
			obs.ObserveLedgerEntry(string(store.LedgerDebit))
		}
	}()

	now := s.clock()
	err = s.tx.InTx(ctx, func(q Querier) error {
		if _, err := q.GetOrder(ctx, id); err != nil {
			if store.IsNotFound(err) {
				return common.NotFound("order")
			}
			return fmt.Errorf("load order: %w", err)
		}
		customer, err := loadCustomer(ctx, q, in.CustomerID)
		if err != nil {
			return err
		}
		lines, err := resolveLines(ctx, q, in.Lines)
		if err != nil {
			return err
		}
		summary := summarize(lines, orderDiscount(in.Discount))

		updated, err := q.UpdateOrder(ctx, store.UpdateOrderParams{
			ID:             id,
			CustomerID:     customer.ID,
			DeliveryAt:     deliveryParam(in.DeliveryAt),
			ContactChannel: strings.TrimSpace(in.ContactChannel),
			Notes:          strings.TrimSpace(in.Notes),
			DiscountPct:    summary.DiscountPct,
			Total:          summary.Total,
		})
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if err := q.DeleteOrderLines(ctx, id); err != nil {
			return fmt.Errorf("delete order lines: %w", err)
		}
		stored, err := insertLines(ctx, q, id, lines)
		if err != nil {
			return err
		}
		created, err := reconcileDebit(ctx, q, updated, now)
		if err != nil {
			return err
		}
		debited = created
		detail = Detail{Order: toOrder(updated, customer.Name), Lines: stored, Summary: summary}
		return nil
	})
	if err != nil {
		return Detail{}, err
	}
	return detail, nil
}

// reconcileDebit makes the order's ledger debit match its total: updated when
// both exist, created when missing, removed when the total dropped to zero. It
// reports whether a new debit was inserted.
func reconcileDebit(ctx context.Context, q Querier, o store.Order, now time.Time) (bool, error) {
	exists := true
	if _, err := q.GetOrderDebit(ctx, o.ID); err != nil {
		if !store.IsNotFound(err) {
			return false, fmt.Errorf("load order debit: %w", err)
		}
		exists = false
	}
	positive := o.Total.IsPositive()
	switch {
	case exists && positive:
		if _, err := q.UpdateOrderDebit(ctx, store.UpdateOrderDebitParams{OrderID: o.ID, Amount: o.Total, CustomerID: o.CustomerID}); err != nil {
			return false, fmt.Errorf("update order debit: %w", err)
		}
	case !exists && positive:
		if _, err := q.CreateLedgerEntry(ctx, store.CreateLedgerEntryParams{
			CustomerID:  o.CustomerID,
			OrderID:     pgtype.Int8{Int64: o.ID, Valid: true},
			Kind:        store.LedgerDebit,
			Amount:      o.Total,
			Description: debitDescription(o.ID),
			CreatedAt:   now,
		}); err != nil {
			return false, fmt.Errorf("insert order debit: %w", err)
		}
		return true, nil
	case exists:
		if _, err := q.DeleteOrderDebits(ctx, o.ID); err != nil {
			return false, fmt.Errorf("delete order debit: %w", err)
		}
	}
	return false, nil
}

// Delete removes the order, its lines and its ledger debit.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer func() { obs.ObserveOrderMutation("delete", err) }()

	return s.tx.InTx(ctx, func(q Querier) error {
		if _, err := q.GetOrder(ctx, id); err != nil {
			if store.IsNotFound(err) {
				return common.NotFound("order")
			}
			return fmt.Errorf("load order: %w", err)
		}
		if _, err := q.DeleteOrderDebits(ctx, id); err != nil {
			return fmt.Errorf("delete order debit: %w", err)
		}
		if _, err := q.DeleteOrder(ctx, id); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return nil
	})
}

// MarkDelivered flags the order as delivered. An existing delivery date is kept;
// otherwise it is set to now.
func (s *Service) MarkDelivered(ctx context.Context, id int64) (out Order, err error) {
	defer func() { obs.ObserveOrderMutation("deliver", err) }()

	updated, err := s.q.MarkOrderDelivered(ctx, id, s.clock())
	if err != nil {
		if store.IsNotFound(err) {
			return Order{}, common.NotFound("order")
		}
		return Order{}, fmt.Errorf("mark delivered: %w", err)
	}
	return toOrder(updated, ""), nil
}

// Get returns the order with its lines and recomputed summary.
func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	o, err := s.q.GetOrder(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return Detail{}, common.NotFound("order")
		}
		return Detail{}, fmt.Errorf("load order: %w", err)
	}
	customer, err := loadCustomer(ctx, s.q, o.CustomerID)
	if err != nil {
		return Detail{}, err
	}
	rows, err := s.q.ListOrderLines(ctx, id)
	if err != nil {
		return Detail{}, fmt.Errorf("list order lines: %w", err)
	}
	lines := make([]Line, 0, len(rows))
	priced := make([]pricing.Line, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, toLine(row))
		priced = append(priced, pricingLine(row))
	}
	return Detail{
		Order:   toOrder(o, customer.Name),
		Lines:   lines,
		Summary: pricing.Compute(priced, o.DiscountPct),
	}, nil
}
