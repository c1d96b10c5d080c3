package db

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type HandoverSnapshot struct {
	ID           int64
	SnapshotDate string
	Channel      string
	Amount       decimal.Decimal
	SavedBy      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const handoverSnapshotColumns = `id, snapshot_date, channel, amount, saved_by, created_at, updated_at`

func scanHandoverSnapshot(row interface{ Scan(...any) error }) (HandoverSnapshot, error) {
	var s HandoverSnapshot
	err := row.Scan(&s.ID, &s.SnapshotDate, &s.Channel, &s.Amount, &s.SavedBy, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

type UpsertHandoverSnapshotParams struct {
	SnapshotDate string
	Channel      string
	Amount       decimal.Decimal
	SavedBy      string
}

// UpsertHandoverSnapshot saves the finalized balance for one
// (date, channel) pair. Re-saving the same date overwrites: last write
// wins, which doubles as the correction mechanism.
const upsertHandoverSnapshot = `
INSERT INTO handover_snapshots (snapshot_date, channel, amount, saved_by)
VALUES (?, ?, ?, ?)
ON CONFLICT (snapshot_date, channel) DO UPDATE SET
	amount = excluded.amount,
	saved_by = excluded.saved_by,
	updated_at = CURRENT_TIMESTAMP
RETURNING ` + handoverSnapshotColumns

func (q *Queries) UpsertHandoverSnapshot(ctx context.Context, arg UpsertHandoverSnapshotParams) (HandoverSnapshot, error) {
	row := q.db.QueryRowContext(ctx, upsertHandoverSnapshot,
		arg.SnapshotDate, arg.Channel, arg.Amount, arg.SavedBy,
	)
	return scanHandoverSnapshot(row)
}

const getHandoverSnapshots = `
SELECT ` + handoverSnapshotColumns + `
FROM handover_snapshots
WHERE snapshot_date = ?
ORDER BY channel`

// GetHandoverSnapshots returns the saved per-channel balances for one
// date. An empty result is not an error; the caller defaults to zero.
func (q *Queries) GetHandoverSnapshots(ctx context.Context, snapshotDate string) ([]HandoverSnapshot, error) {
	rows, err := q.db.QueryContext(ctx, getHandoverSnapshots, snapshotDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []HandoverSnapshot
	for rows.Next() {
		s, err := scanHandoverSnapshot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const listHandoverSnapshotsBetween = `
SELECT ` + handoverSnapshotColumns + `
FROM handover_snapshots
WHERE snapshot_date >= ? AND snapshot_date <= ?
ORDER BY snapshot_date DESC, channel`

type ListHandoverSnapshotsBetweenParams struct {
	Start string
	End   string
}

// ListHandoverSnapshotsBetween returns saved snapshots newest-first for
// the audit history view.
func (q *Queries) ListHandoverSnapshotsBetween(ctx context.Context, arg ListHandoverSnapshotsBetweenParams) ([]HandoverSnapshot, error) {
	rows, err := q.db.QueryContext(ctx, listHandoverSnapshotsBetween, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []HandoverSnapshot
	for rows.Next() {
		s, err := scanHandoverSnapshot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const handoverSnapshotExists = `
SELECT COUNT(*) FROM handover_snapshots WHERE snapshot_date = ?`

func (q *Queries) HandoverSnapshotExists(ctx context.Context, snapshotDate string) (bool, error) {
	var count int64
	if err := q.db.QueryRowContext(ctx, handoverSnapshotExists, snapshotDate).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
