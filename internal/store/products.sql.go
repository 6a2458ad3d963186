package store

import (
	"context"

	"github.com/shopspring/decimal"
)

const productColumns = `id, name, purchase_price, sale_price, description, content, active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.PurchasePrice, &p.SalePrice, &p.Description, &p.Content, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type ProductParams struct {
	ID            int64
	Name          string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	Description   string
	Content       string
	Active        bool
}

const createProduct = `INSERT INTO products (name, purchase_price, sale_price, description, content, active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + productColumns

func (q *Queries) CreateProduct(ctx context.Context, arg ProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, createProduct, arg.Name, arg.PurchasePrice, arg.SalePrice, arg.Description, arg.Content, arg.Active)
	return scanProduct(row)
}

const getProduct = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

func (q *Queries) GetProduct(ctx context.Context, id int64) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProduct, id))
}

const updateProduct = `UPDATE products
SET name = $2, purchase_price = $3, sale_price = $4, description = $5, content = $6, active = $7, updated_at = NOW()
WHERE id = $1
RETURNING ` + productColumns

func (q *Queries) UpdateProduct(ctx context.Context, arg ProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, updateProduct, arg.ID, arg.Name, arg.PurchasePrice, arg.SalePrice, arg.Description, arg.Content, arg.Active)
	return scanProduct(row)
}

const listProducts = `SELECT ` + productColumns + ` FROM products
WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%')
  AND (NOT $2::boolean OR active)
ORDER BY name, id`

type ListProductsParams struct {
	Search     string
	ActiveOnly bool
}

func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProducts, arg.Search, arg.ActiveOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
