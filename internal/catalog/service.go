// Package catalog manages the products that order lines are priced from.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backoffice/internal/common"
	"github.com/noah-isme/backoffice/internal/store"
)

// activeProductsKey caches the unfiltered active product list used by order
// entry screens.
const activeProductsKey = "catalog:products:active"

type queryProvider interface {
	CreateProduct(ctx context.Context, arg store.ProductParams) (store.Product, error)
	GetProduct(ctx context.Context, id int64) (store.Product, error)
	UpdateProduct(ctx context.Context, arg store.ProductParams) (store.Product, error)
	ListProducts(ctx context.Context, arg store.ListProductsParams) ([]store.Product, error)
}

// Service orchestrates product queries and caching.
type Service struct {
	queries queryProvider
	cache   *Cache
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries queryProvider
	Cache   *Cache
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, fmt.Errorf("catalog: queries are required")
	}
	return &Service{queries: cfg.Queries, cache: cfg.Cache}, nil
}

// ProductInput holds the editable product fields.
type ProductInput struct {
	Name          string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	Description   string
	Content       string
	Active        bool
}

// ListParams filters the product list.
type ListParams struct {
	Query      string
	ActiveOnly bool
}

// List returns products ordered by name. The plain active list is served from
// cache when available.
func (s *Service) List(ctx context.Context, params ListParams) ([]store.Product, error) {
	params.Query = strings.TrimSpace(params.Query)
	cacheable := params.ActiveOnly && params.Query == ""
	if cacheable {
		var cached []store.Product
		if ok, err := s.cache.GetJSON(ctx, activeProductsKey, &cached); err == nil && ok {
			return cached, nil
		}
	}
	items, err := s.queries.ListProducts(ctx, store.ListProductsParams{Search: params.Query, ActiveOnly: params.ActiveOnly})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if cacheable {
		_ = s.cache.SetJSON(ctx, activeProductsKey, items)
	}
	return items, nil
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, id int64) (store.Product, error) {
	p, err := s.queries.GetProduct(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return store.Product{}, common.NotFound("product")
		}
		return store.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Create stores a new product.
func (s *Service) Create(ctx context.Context, in ProductInput) (store.Product, error) {
	p, err := s.queries.CreateProduct(ctx, productParams(0, in))
	if err != nil {
		return store.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx)
	return p, nil
}

// Update replaces a product's fields. Prices already copied into order lines
// are not affected.
func (s *Service) Update(ctx context.Context, id int64, in ProductInput) (store.Product, error) {
	p, err := s.queries.UpdateProduct(ctx, productParams(id, in))
	if err != nil {
		if store.IsNotFound(err) {
			return store.Product{}, common.NotFound("product")
		}
		return store.Product{}, fmt.Errorf("update product: %w", err)
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *Service) invalidate(ctx context.Context) {
	_ = s.cache.Delete(context.WithoutCancel(ctx), activeProductsKey)
}

func productParams(id int64, in ProductInput) store.ProductParams {
	return store.ProductParams{
		ID:            id,
		Name:          strings.TrimSpace(in.Name),
		PurchasePrice: in.PurchasePrice,
		SalePrice:     in.SalePrice,
		Description:   strings.TrimSpace(in.Description),
		Content:       strings.TrimSpace(in.Content),
		Active:        in.Active,
	}
}
