package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hotelops/frontdesk/internal/billing"
	"github.com/hotelops/frontdesk/internal/db"
)

const (
	// auditLookbackDays bounds the nightly scan; older gaps were already
	// reported on earlier runs.
	auditLookbackDays = 7
	auditTimeout      = 2 * time.Minute
)

// RunSnapshotAudit scans the recent business dates for days that had
// reservation activity but no saved handover snapshot. A missing snapshot
// means the next day's report has no opening reserve, so the gap is worth
// flagging before anyone builds that report.
func RunSnapshotAudit(ctx context.Context, queries *db.Queries) {
	ctx, cancel := context.WithTimeout(ctx, auditTimeout)
	defer cancel()

	logger := log.With().Str("job", "snapshot_audit").Logger()

	yesterday := billing.DateOf(time.Now()).Prev()
	missing := 0
	for i := 0; i < auditLookbackDays; i++ {
		day := yesterday.AddDays(-i)

		count, err := queries.CountReservationsOnDate(ctx, day.String())
		if err != nil {
			logger.Error().Err(err).Str("date", day.String()).Msg("Failed to count reservations")
			return
		}
		if count == 0 {
			continue
		}

		exists, err := queries.HandoverSnapshotExists(ctx, day.String())
		if err != nil {
			logger.Error().Err(err).Str("date", day.String()).Msg("Failed to check handover snapshot")
			return
		}
		if !exists {
			missing++
			logger.Warn().
				Str("date", day.String()).
				Int64("reservations", count).
				Msg("Business date has activity but no handover snapshot")
		}
	}

	if missing == 0 {
		logger.Info().Msg("Snapshot audit found no gaps")
	} else {
		logger.Warn().Int("missing_days", missing).Msg("Snapshot audit found unreconciled days")
	}
}

// RegisterSnapshotAudit schedules the nightly audit on the singleton
// scheduler using the configured cron expression.
func RegisterSnapshotAudit(cronExpr string, queries *db.Queries) error {
	_, err := AddJob("snapshot_audit", cronExpr, func() {
		RunSnapshotAudit(context.Background(), queries)
	})
	return err
}
