package db

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Bill types. Deposit refunds are the only bill type the handover
// aggregation reads; corrections are compensating rows, never updates.
const (
	BillTypeDepositRefund = "deposit_refund"
	BillTypeRoomFee       = "room_fee"
)

type Bill struct {
	ID            int64
	OrderNo       string
	BillType      string
	PaymentMethod string
	Amount        decimal.Decimal
	BusinessType  string
	CreatedAt     time.Time
}

const billColumns = `id, order_no, bill_type, payment_method, amount, business_type, created_at`

func scanBill(row interface{ Scan(...any) error }) (Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.OrderNo, &b.BillType, &b.PaymentMethod, &b.Amount, &b.BusinessType, &b.CreatedAt)
	return b, err
}

type CreateBillParams struct {
	OrderNo       string
	BillType      string
	PaymentMethod string
	Amount        decimal.Decimal
	BusinessType  string
	CreatedAt     time.Time
}

const createBill = `
INSERT INTO bills (order_no, bill_type, payment_method, amount, business_type, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + billColumns

func (q *Queries) CreateBill(ctx context.Context, arg CreateBillParams) (Bill, error) {
	createdAt := arg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	row := q.db.QueryRowContext(ctx, createBill,
		arg.OrderNo, arg.BillType, arg.PaymentMethod, arg.Amount, arg.BusinessType,
		createdAt.Format("2006-01-02 15:04:05"),
	)
	return scanBill(row)
}

const listBillsByOrder = `
SELECT ` + billColumns + ` FROM bills WHERE order_no = ? ORDER BY created_at, id`

func (q *Queries) ListBillsByOrder(ctx context.Context, orderNo string) ([]Bill, error) {
	rows, err := q.db.QueryContext(ctx, listBillsByOrder, orderNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// ListRefundsBetween returns deposit-refund bills whose issue timestamp
// falls on a calendar date inside [start, end]. Refund attribution is by
// the moment the refund was issued, independent of the stay dates.
const listRefundsBetween = `
SELECT ` + billColumns + `
FROM bills
WHERE bill_type = ? AND date(created_at) >= ? AND date(created_at) <= ?
ORDER BY created_at, id`

type ListRefundsBetweenParams struct {
	Start string
	End   string
}

func (q *Queries) ListRefundsBetween(ctx context.Context, arg ListRefundsBetweenParams) ([]Bill, error) {
	rows, err := q.db.QueryContext(ctx, listRefundsBetween, BillTypeDepositRefund, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}
