package db

import (
	"context"
	"time"
)

type Staff struct {
	ID           int64
	Username     string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

const staffColumns = `id, username, password_hash, display_name, created_at`

func scanStaff(row interface{ Scan(...any) error }) (Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.Username, &s.PasswordHash, &s.DisplayName, &s.CreatedAt)
	return s, err
}

type CreateStaffParams struct {
	Username     string
	PasswordHash string
	DisplayName  string
}

const createStaff = `
INSERT INTO staff (username, password_hash, display_name)
VALUES (?, ?, ?)
RETURNING ` + staffColumns

func (q *Queries) CreateStaff(ctx context.Context, arg CreateStaffParams) (Staff, error) {
	row := q.db.QueryRowContext(ctx, createStaff, arg.Username, arg.PasswordHash, arg.DisplayName)
	return scanStaff(row)
}

const getStaffByUsername = `
SELECT ` + staffColumns + ` FROM staff WHERE username = ?`

func (q *Queries) GetStaffByUsername(ctx context.Context, username string) (Staff, error) {
	return scanStaff(q.db.QueryRowContext(ctx, getStaffByUsername, username))
}

const listStaff = `
SELECT ` + staffColumns + ` FROM staff ORDER BY username`

func (q *Queries) ListStaff(ctx context.Context) ([]Staff, error) {
	rows, err := q.db.QueryContext(ctx, listStaff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
