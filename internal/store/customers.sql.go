package store

import "context"

const customerColumns = `id, name, phone, email, address, city, notes, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.City, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const createCustomer = `INSERT INTO customers (name, phone, email, address, city, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + customerColumns

type CustomerParams struct {
	ID      int64
	Name    string
	Phone   string
	Email   string
	Address string
	City    string
	Notes   string
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, createCustomer, arg.Name, arg.Phone, arg.Email, arg.Address, arg.City, arg.Notes)
	return scanCustomer(row)
}

const getCustomer = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

func (q *Queries) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, getCustomer, id))
}

const updateCustomer = `UPDATE customers
SET name = $2, phone = $3, email = $4, address = $5, city = $6, notes = $7, updated_at = NOW()
WHERE id = $1
RETURNING ` + customerColumns

func (q *Queries) UpdateCustomer(ctx context.Context, arg CustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, updateCustomer, arg.ID, arg.Name, arg.Phone, arg.Email, arg.Address, arg.City, arg.Notes)
	return scanCustomer(row)
}

const listCustomers = `SELECT ` + customerColumns + ` FROM customers
WHERE $1::text = '' OR name ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%'
ORDER BY name, id`

func (q *Queries) ListCustomers(ctx context.Context, search string) ([]Customer, error) {
	rows, err := q.db.Query(ctx, listCustomers, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
