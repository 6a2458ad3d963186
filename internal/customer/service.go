// Package customer manages the customer directory.
package customer

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/backoffice/internal/common"
	"github.com/noah-isme/backoffice/internal/store"
)

// Querier is the subset of store.Queries used for customers.
type Querier interface {
	CreateCustomer(ctx context.Context, arg store.CustomerParams) (store.Customer, error)
	GetCustomer(ctx context.Context, id int64) (store.Customer, error)
	UpdateCustomer(ctx context.Context, arg store.CustomerParams) (store.Customer, error)
	ListCustomers(ctx context.Context, search string) ([]store.Customer, error)
}

// Service implements customer operations.
type Service struct {
	q Querier
}

// NewService constructs a Service.
func NewService(q Querier) *Service {
	return &Service{q: q}
}

// Input holds the editable customer fields.
type Input struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"max=50"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"max=255"`
	City    string `json:"city" validate:"max=100"`
	Notes   string `json:"notes" validate:"max=2000"`
}

func (in Input) params(id int64) store.CustomerParams {
	return store.CustomerParams{
		ID:      id,
		Name:    strings.TrimSpace(in.Name),
		Phone:   strings.TrimSpace(in.Phone),
		Email:   strings.TrimSpace(in.Email),
		Address: strings.TrimSpace(in.Address),
		City:    strings.TrimSpace(in.City),
		Notes:   strings.TrimSpace(in.Notes),
	}
}

// List returns customers whose name or phone contains search, by name.
func (s *Service) List(ctx context.Context, search string) ([]store.Customer, error) {
	items, err := s.q.ListCustomers(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return items, nil
}

// Get returns a customer by id.
func (s *Service) Get(ctx context.Context, id int64) (store.Customer, error) {
	c, err := s.q.GetCustomer(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Customer{}, common.NotFound("customer")
		}
		return store.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// Create stores a customer.
func (s *Service) Create(ctx context.Context, in Input) (store.Customer, error) {
	if err := common.Validate(in); err != nil {
		return store.Customer{}, err
	}
	c, err := s.q.CreateCustomer(ctx, in.params(0))
	if err != nil {
		return store.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// Update replaces a customer's fields.
func (s *Service) Update(ctx context.Context, id int64, in Input) (store.Customer, error) {
	if err := common.Validate(in); err != nil {
		return store.Customer{}, err
	}
	c, err := s.q.UpdateCustomer(ctx, in.params(id))
	if err != nil {
		if store.IsNotFound(err) {
			return store.Customer{}, common.NotFound("customer")
		}
		return store.Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}
