package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusDelivered = "delivered"
)

// Ledger entry kinds.
const (
	LedgerDebit  = "debit"
	LedgerCredit = "credit"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	Description   string          `json:"description"`
	Content       string          `json:"content"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type Order struct {
	ID             int64
	CustomerID     int64
	PlacedAt       time.Time
	DeliveryAt     pgtype.Timestamptz
	Status         string
	ContactChannel string
	Notes          string
	DiscountPct    decimal.Decimal
	Total          decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderListRow is an order joined with its customer's name.
type OrderListRow struct {
	Order
	CustomerName string
}

type OrderLine struct {
	ID          int64
	OrderID     int64
	ProductID   pgtype.Int8
	Position    int32
	Description string
	Quantity    int32
	UnitPrice   decimal.Decimal
	UnitCost    decimal.Decimal
	Subtotal    decimal.Decimal
}

type LedgerEntry struct {
	ID          int64
	CustomerID  int64
	OrderID     pgtype.Int8
	Kind        string
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}

type AuditLog struct {
	ID           uuid.UUID       `json:"id"`
	ActorKind    string          `json:"actor_kind"`
	ActorUserID  pgtype.Int8     `json:"actor_user_id"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   pgtype.Text     `json:"resource_id"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	Route        pgtype.Text     `json:"route"`
	Status       int32           `json:"status"`
	Ip           pgtype.Text     `json:"ip"`
	UserAgent    pgtype.Text     `json:"user_agent"`
	RequestID    pgtype.Text     `json:"request_id"`
	Metadata     json.RawMessage `json:"metadata"`
	CreatedAt    time.Time       `json:"created_at"`
}
