package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backoffice/internal/common"
	"github.com/noah-isme/backoffice/internal/obs"
	"github.com/noah-isme/backoffice/internal/store"
)

const defaultPaymentDescription = "Payment"

// Querier is the subset of store.Queries used by the ledger.
type Querier interface {
	GetCustomer(ctx context.Context, id int64) (store.Customer, error)
	ListLedgerEntries(ctx context.Context, customerID int64) ([]store.LedgerEntry, error)
	CreateLedgerEntry(ctx context.Context, arg store.CreateLedgerEntryParams) (store.LedgerEntry, error)
}

// Service exposes customer statements and payment recording.
type Service struct {
	q   Querier
	now func() time.Time
}

// ServiceConfig configures the Service.
type ServiceConfig struct {
	Queries Querier
	Now     func() time.Time
}

// NewService constructs a ledger Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{q: cfg.Queries, now: cfg.Now}
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// CustomerStatement is a statement together with the customer it belongs to.
type CustomerStatement struct {
	Customer store.Customer `json:"customer"`
	Statement
}

// Statement loads every entry of the customer and reduces it.
func (s *Service) Statement(ctx context.Context, customerID int64) (CustomerStatement, error) {
	customer, err := s.q.GetCustomer(ctx, customerID)
	if err != nil {
		if store.IsNotFound(err) {
			return CustomerStatement{}, common.NotFound("customer")
		}
		return CustomerStatement{}, fmt.Errorf("load customer: %w", err)
	}
	rows, err := s.q.ListLedgerEntries(ctx, customerID)
	if err != nil {
		return CustomerStatement{}, fmt.Errorf("list ledger entries: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, fromStore(row))
	}
	return CustomerStatement{Customer: customer, Statement: Reduce(entries)}, nil
}

// PaymentInput describes a payment received from a customer.
type PaymentInput struct {
	Amount      decimal.Decimal
	Description string
}

// RecordPayment stores a credit entry for the customer.
func (s *Service) RecordPayment(ctx context.Context, customerID int64, in PaymentInput) (Entry, error) {
	amount := in.Amount.Round(2)
	if !amount.IsPositive() {
		return Entry{}, common.Validation("amount must be greater than zero", map[string]string{"amount": "gt"})
	}
	if _, err := s.q.GetCustomer(ctx, customerID); err != nil {
		if store.IsNotFound(err) {
			return Entry{}, common.NotFound("customer")
		}
		return Entry{}, fmt.Errorf("load customer: %w", err)
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = defaultPaymentDescription
	}
	created, err := s.q.CreateLedgerEntry(ctx, store.CreateLedgerEntryParams{
		CustomerID:  customerID,
		OrderID:     pgtype.Int8{},
		Kind:        string(Credit),
		Amount:      amount,
		Description: description,
		CreatedAt:   s.clock(),
	})
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return Entry{}, common.NotFound("customer")
		}
		return Entry{}, fmt.Errorf("create payment: %w", err)
	}
	obs.ObserveLedgerEntry(string(Credit))
	return fromStore(created), nil
}
