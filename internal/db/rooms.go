package db

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Room statuses reflect the physical state of the room, flipped by the
// order lifecycle handlers on check-in and check-out.
const (
	RoomStatusVacant   = "vacant"
	RoomStatusOccupied = "occupied"
	RoomStatusCleaning = "cleaning"
)

type RoomType struct {
	ID          int64
	Name        string
	Description string
	BasePrice   decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const roomTypeColumns = `id, name, description, base_price, created_at, updated_at`

func scanRoomType(row interface{ Scan(...any) error }) (RoomType, error) {
	var rt RoomType
	err := row.Scan(&rt.ID, &rt.Name, &rt.Description, &rt.BasePrice, &rt.CreatedAt, &rt.UpdatedAt)
	return rt, err
}

type CreateRoomTypeParams struct {
	Name        string
	Description string
	BasePrice   decimal.Decimal
}

const createRoomType = `
INSERT INTO room_types (name, description, base_price)
VALUES (?, ?, ?)
RETURNING ` + roomTypeColumns

func (q *Queries) CreateRoomType(ctx context.Context, arg CreateRoomTypeParams) (RoomType, error) {
	row := q.db.QueryRowContext(ctx, createRoomType, arg.Name, arg.Description, arg.BasePrice)
	return scanRoomType(row)
}

const getRoomType = `
SELECT ` + roomTypeColumns + ` FROM room_types WHERE id = ?`

func (q *Queries) GetRoomType(ctx context.Context, id int64) (RoomType, error) {
	return scanRoomType(q.db.QueryRowContext(ctx, getRoomType, id))
}

const listRoomTypes = `
SELECT ` + roomTypeColumns + ` FROM room_types ORDER BY name`

func (q *Queries) ListRoomTypes(ctx context.Context) ([]RoomType, error) {
	rows, err := q.db.QueryContext(ctx, listRoomTypes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RoomType
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rt)
	}
	return items, rows.Err()
}

type UpdateRoomTypeParams struct {
	ID          int64
	Name        string
	Description string
	BasePrice   decimal.Decimal
}

const updateRoomType = `
UPDATE room_types
SET name = ?, description = ?, base_price = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
RETURNING ` + roomTypeColumns

func (q *Queries) UpdateRoomType(ctx context.Context, arg UpdateRoomTypeParams) (RoomType, error) {
	row := q.db.QueryRowContext(ctx, updateRoomType, arg.Name, arg.Description, arg.BasePrice, arg.ID)
	return scanRoomType(row)
}

const deleteRoomType = `DELETE FROM room_types WHERE id = ?`

func (q *Queries) DeleteRoomType(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRoomType, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type Room struct {
	ID         int64
	RoomNumber string
	RoomTypeID int64
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

const roomColumns = `id, room_number, room_type_id, status, created_at, updated_at`

func scanRoom(row interface{ Scan(...any) error }) (Room, error) {
	var r Room
	err := row.Scan(&r.ID, &r.RoomNumber, &r.RoomTypeID, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

type CreateRoomParams struct {
	RoomNumber string
	RoomTypeID int64
}

const createRoom = `
INSERT INTO rooms (room_number, room_type_id)
VALUES (?, ?)
RETURNING ` + roomColumns

func (q *Queries) CreateRoom(ctx context.Context, arg CreateRoomParams) (Room, error) {
	row := q.db.QueryRowContext(ctx, createRoom, arg.RoomNumber, arg.RoomTypeID)
	return scanRoom(row)
}

const getRoomByNumber = `
SELECT ` + roomColumns + ` FROM rooms WHERE room_number = ?`

func (q *Queries) GetRoomByNumber(ctx context.Context, roomNumber string) (Room, error) {
	return scanRoom(q.db.QueryRowContext(ctx, getRoomByNumber, roomNumber))
}

const listRooms = `
SELECT ` + roomColumns + ` FROM rooms ORDER BY room_number`

func (q *Queries) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := q.db.QueryContext(ctx, listRooms)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type UpdateRoomParams struct {
	RoomNumber string
	RoomTypeID int64
	Status     string
}

const updateRoom = `
UPDATE rooms
SET room_type_id = ?, status = ?, updated_at = CURRENT_TIMESTAMP
WHERE room_number = ?
RETURNING ` + roomColumns

func (q *Queries) UpdateRoom(ctx context.Context, arg UpdateRoomParams) (Room, error) {
	row := q.db.QueryRowContext(ctx, updateRoom, arg.RoomTypeID, arg.Status, arg.RoomNumber)
	return scanRoom(row)
}

const updateRoomStatus = `
UPDATE rooms
SET status = ?, updated_at = CURRENT_TIMESTAMP
WHERE room_number = ?
RETURNING ` + roomColumns

type UpdateRoomStatusParams struct {
	RoomNumber string
	Status     string
}

func (q *Queries) UpdateRoomStatus(ctx context.Context, arg UpdateRoomStatusParams) (Room, error) {
	row := q.db.QueryRowContext(ctx, updateRoomStatus, arg.Status, arg.RoomNumber)
	return scanRoom(row)
}

const deleteRoom = `DELETE FROM rooms WHERE room_number = ?`

func (q *Queries) DeleteRoom(ctx context.Context, roomNumber string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRoom, roomNumber)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
