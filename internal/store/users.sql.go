package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, username, name, password_hash, is_admin, active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &u.IsAdmin, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const createUser = `INSERT INTO users (username, name, password_hash, is_admin, active)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns

type CreateUserParams struct {
	Username     string
	Name         string
	PasswordHash string
	IsAdmin      bool
	Active       bool
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.Username, arg.Name, arg.PasswordHash, arg.IsAdmin, arg.Active)
	return scanUser(row)
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = $1`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByUsername, username))
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY username`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const updateUser = `UPDATE users
SET username = $2,
    name = $3,
    is_admin = $4,
    active = $5,
    password_hash = COALESCE($6, password_hash),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + userColumns

type UpdateUserParams struct {
	ID           int64
	Username     string
	Name         string
	IsAdmin      bool
	Active       bool
	PasswordHash pgtype.Text
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUser, arg.ID, arg.Username, arg.Name, arg.IsAdmin, arg.Active, arg.PasswordHash)
	return scanUser(row)
}
