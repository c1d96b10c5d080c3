package db

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Reservation lifecycle statuses. Transitions are guarded by the order
// handlers: pending -> checked_in -> checked_out, or -> cancelled.
const (
	ReservationStatusPending    = "pending"
	ReservationStatusCheckedIn  = "checked_in"
	ReservationStatusCheckedOut = "checked_out"
	ReservationStatusCancelled  = "cancelled"
)

type Reservation struct {
	ID              int64
	OrderNo         string
	GuestName       string
	GuestPhone      string
	RoomNumber      string
	CheckInDate     string
	CheckOutDate    string
	PaymentMethod   string
	Deposit         decimal.Decimal
	PriceAllocation string
	Status          string
	StayKind        string
	Remarks         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const reservationColumns = `id, order_no, guest_name, guest_phone, room_number,
	check_in_date, check_out_date, payment_method, deposit, price_allocation,
	status, stay_kind, remarks, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (Reservation, error) {
	var r Reservation
	err := row.Scan(
		&r.ID, &r.OrderNo, &r.GuestName, &r.GuestPhone, &r.RoomNumber,
		&r.CheckInDate, &r.CheckOutDate, &r.PaymentMethod, &r.Deposit, &r.PriceAllocation,
		&r.Status, &r.StayKind, &r.Remarks, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

type CreateReservationParams struct {
	OrderNo         string
	GuestName       string
	GuestPhone      string
	RoomNumber      string
	CheckInDate     string
	CheckOutDate    string
	PaymentMethod   string
	Deposit         decimal.Decimal
	PriceAllocation string
	StayKind        string
	Remarks         string
}

const createReservation = `
INSERT INTO reservations (
	order_no, guest_name, guest_phone, room_number, check_in_date, check_out_date,
	payment_method, deposit, price_allocation, stay_kind, remarks
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + reservationColumns

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, createReservation,
		arg.OrderNo, arg.GuestName, arg.GuestPhone, arg.RoomNumber,
		arg.CheckInDate, arg.CheckOutDate, arg.PaymentMethod, arg.Deposit,
		arg.PriceAllocation, arg.StayKind, arg.Remarks,
	)
	return scanReservation(row)
}

const getReservationByOrderNo = `
SELECT ` + reservationColumns + ` FROM reservations WHERE order_no = ?`

func (q *Queries) GetReservationByOrderNo(ctx context.Context, orderNo string) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, getReservationByOrderNo, orderNo)
	return scanReservation(row)
}

const listReservations = `
SELECT ` + reservationColumns + ` FROM reservations ORDER BY created_at DESC, id DESC LIMIT ?`

func (q *Queries) ListReservations(ctx context.Context, limit int64) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, listReservations, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// ListReservationsOverlapping returns non-cancelled reservations whose stay
// touches any date in [start, end]. Multi-night stays overlap when
// check_in <= end and check_out > start; a day-use stay when its single
// date falls inside the window. ISO dates compare correctly as strings.
const listReservationsOverlapping = `
SELECT ` + reservationColumns + `
FROM reservations
WHERE status != 'cancelled'
  AND (
	(check_in_date < check_out_date AND check_in_date <= ? AND check_out_date > ?)
	OR (check_in_date = check_out_date AND check_in_date >= ? AND check_in_date <= ?)
  )
ORDER BY check_in_date, id`

type ListReservationsOverlappingParams struct {
	Start string
	End   string
}

func (q *Queries) ListReservationsOverlapping(ctx context.Context, arg ListReservationsOverlappingParams) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, listReservationsOverlapping,
		arg.End, arg.Start, arg.Start, arg.End,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const updateReservationStatus = `
UPDATE reservations
SET status = ?, updated_at = CURRENT_TIMESTAMP
WHERE order_no = ?
RETURNING ` + reservationColumns

type UpdateReservationStatusParams struct {
	OrderNo string
	Status  string
}

func (q *Queries) UpdateReservationStatus(ctx context.Context, arg UpdateReservationStatusParams) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, updateReservationStatus, arg.Status, arg.OrderNo)
	return scanReservation(row)
}

const updateReservationStay = `
UPDATE reservations
SET check_in_date = ?, check_out_date = ?, price_allocation = ?,
	stay_kind = ?, remarks = ?, updated_at = CURRENT_TIMESTAMP
WHERE order_no = ?
RETURNING ` + reservationColumns

type UpdateReservationStayParams struct {
	OrderNo         string
	CheckInDate     string
	CheckOutDate    string
	PriceAllocation string
	StayKind        string
	Remarks         string
}

// UpdateReservationStay rewrites the stay window together with its
// re-validated price allocation and recomputed classification, so a date
// mutation can never leave a stale stay_kind behind.
func (q *Queries) UpdateReservationStay(ctx context.Context, arg UpdateReservationStayParams) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, updateReservationStay,
		arg.CheckInDate, arg.CheckOutDate, arg.PriceAllocation,
		arg.StayKind, arg.Remarks, arg.OrderNo,
	)
	return scanReservation(row)
}

const countReservationsOnDate = `
SELECT COUNT(*)
FROM reservations
WHERE status != 'cancelled'
  AND (
	(check_in_date < check_out_date AND check_in_date <= ? AND check_out_date > ?)
	OR check_in_date = ?
  )`

// CountReservationsOnDate reports how many active reservations touch the
// given business date. Used by the nightly reconciliation audit.
func (q *Queries) CountReservationsOnDate(ctx context.Context, date string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countReservationsOnDate, date, date, date).Scan(&count)
	return count, err
}
