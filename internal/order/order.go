// Package order manages customer orders and keeps each order's ledger debit in
// step with its total.
package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backoffice/internal/pricing"
	"github.com/noah-isme/backoffice/internal/store"
)

// Order is the API view of an order header.
type Order struct {
	ID             int64           `json:"id"`
	CustomerID     int64           `json:"customer_id"`
	CustomerName   string          `json:"customer_name,omitempty"`
	PlacedAt       time.Time       `json:"placed_at"`
	DeliveryAt     *time.Time      `json:"delivery_at"`
	Status         string          `json:"status"`
	ContactChannel string          `json:"contact_channel"`
	Notes          string          `json:"notes"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
	Total          decimal.Decimal `json:"total"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Line is a stored order line.
type Line struct {
	ID          int64           `json:"id"`
	ProductID   *int64          `json:"product_id"`
	Position    int32           `json:"position"`
	Description string          `json:"description"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Profit      decimal.Decimal `json:"profit"`
}

// Detail is an order with its lines and money summary.
type Detail struct {
	Order
	Lines   []Line          `json:"lines"`
	Summary pricing.Summary `json:"summary"`
}

// Input carries the editable fields of an order. Discount and line prices are
// raw user text and are parsed leniently.
type Input struct {
	CustomerID     int64
	DeliveryAt     *time.Time
	ContactChannel string
	Notes          string
	Discount       string
	Lines          []LineInput
}

// LineInput is one requested order line.
type LineInput struct {
	ProductID   int64
	Description string
	Quantity    int64
	UnitPrice   string
}

func toOrder(o store.Order, customerName string) Order {
	out := Order{
		ID:             o.ID,
		CustomerID:     o.CustomerID,
		CustomerName:   customerName,
		PlacedAt:       o.PlacedAt,
		Status:         o.Status,
		ContactChannel: o.ContactChannel,
		Notes:          o.Notes,
		DiscountPct:    o.DiscountPct,
		Total:          o.Total,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if o.DeliveryAt.Valid {
		at := o.DeliveryAt.Time
		out.DeliveryAt = &at
	}
	return out
}

func toLine(l store.OrderLine) Line {
	out := Line{
		ID:          l.ID,
		Position:    l.Position,
		Description: l.Description,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		UnitCost:    l.UnitCost,
		Subtotal:    l.Subtotal,
		Profit:      pricingLine(l).Profit(),
	}
	if l.ProductID.Valid {
		id := l.ProductID.Int64
		out.ProductID = &id
	}
	return out
}

func pricingLine(l store.OrderLine) pricing.Line {
	return pricing.Line{Quantity: int64(l.Quantity), UnitPrice: l.UnitPrice, UnitCost: l.UnitCost}
}
