// internal/api/handover/handlers.go
package handover

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hotelops/frontdesk/internal/api/apiutil"
	"github.com/hotelops/frontdesk/internal/billing"
	"github.com/hotelops/frontdesk/internal/db"
	"github.com/hotelops/frontdesk/internal/email"
)

const handoverQueryTimeout = 15 * time.Second

var (
	database   *db.DB
	queries    *db.Queries
	aggregator *billing.Aggregator
	sender     email.Sender
	recipient  string
	initOnce   sync.Once
)

// InitHandlers wires the handover endpoints. The sender may be nil, in
// which case the email endpoint reports the feature as unavailable.
func InitHandlers(d *db.DB, cfg billing.Config, mailSender email.Sender, mailRecipient string) {
	if d == nil {
		return
	}
	initOnce.Do(func() {
		database = d
		queries = d.Queries
		aggregator = billing.NewAggregator(d.Queries, cfg)
		sender = mailSender
		recipient = mailRecipient
	})
}

// GET /api/v1/handover/report?date=YYYY-MM-DD
// GET /api/v1/handover/report?start=YYYY-MM-DD&end=YYYY-MM-DD
func HandleGetReport(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if aggregator == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	start, end, err := apiutil.DateRangeFromQuery(r)
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handoverQueryTimeout)
	defer cancel()

	report, err := buildReport(ctx, start, end)
	if err != nil {
		writeReportError(w, r, err)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, report); err != nil {
		logger.Error().Err(err).Msg("Failed to write report response")
	}
}

func isCanonicalChannel(c billing.Channel) bool {
	for _, canonical := range billing.AllChannels() {
		if c == canonical {
			return true
		}
	}
	return false
}

func buildReport(ctx context.Context, start, end billing.Date) (*billing.Report, error) {
	if start == end {
		return aggregator.BuildReport(ctx, start)
	}
	return aggregator.BuildRangeReport(ctx, start, end)
}

func writeReportError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())

	if billing.IsMissingPriceData(err) {
		// The report cannot be trusted until the order's nightly prices
		// are filled in; surface which order and day are broken.
		apiutil.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if errors.Is(err, billing.ErrInvalidDateRange) {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	logger.Error().Err(err).Msg("Failed to build handover report")
	apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to build handover report")
}

type snapshotRequest struct {
	Date    string            `json:"date"`
	SavedBy string            `json:"saved_by"`
	Amounts map[string]string `json:"amounts"`
}

type snapshotResponse struct {
	Date    string                     `json:"date"`
	SavedBy string                     `json:"saved_by,omitempty"`
	Amounts map[string]decimal.Decimal `json:"amounts"`
}

// POST /api/v1/handover/snapshots
//
// Saves the end-of-shift balance per channel. Re-saving a date replaces
// the previous snapshot row by row.
func HandleSaveSnapshots(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req snapshotRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	day, err := apiutil.ParseDateField(req.Date, "date")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Amounts) == 0 {
		apiutil.WriteError(w, r, http.StatusBadRequest, "amounts is required")
		return
	}

	type entry struct {
		channel billing.Channel
		amount  decimal.Decimal
	}
	entries := make([]entry, 0, len(req.Amounts))
	for channelRaw, amountRaw := range req.Amounts {
		channel := billing.Channel(strings.TrimSpace(channelRaw))
		if !isCanonicalChannel(channel) {
			// Free-form labels fold into their canonical channel.
			channel = billing.NormalizeChannel(channelRaw)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(amountRaw))
		if err != nil {
			apiutil.WriteError(w, r, http.StatusBadRequest, "amounts values must be decimal amounts")
			return
		}
		entries = append(entries, entry{channel: channel, amount: amount})
	}

	ctx, cancel := context.WithTimeout(r.Context(), handoverQueryTimeout)
	defer cancel()

	saved := make(map[string]decimal.Decimal, len(entries))
	err = database.RunInTx(ctx, func(tx *db.DB) error {
		for _, e := range entries {
			snap, err := tx.Queries.UpsertHandoverSnapshot(ctx, db.UpsertHandoverSnapshotParams{
				SnapshotDate: day.String(),
				Channel:      string(e.channel),
				Amount:       e.amount,
				SavedBy:      req.SavedBy,
			})
			if err != nil {
				return err
			}
			saved[snap.Channel] = snap.Amount
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Str("date", day.String()).Msg("Failed to save handover snapshots")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to save handover snapshots")
		return
	}

	logger.Info().Str("date", day.String()).Int("channels", len(saved)).Msg("Handover snapshots saved")
	if err := apiutil.WriteJSON(w, http.StatusCreated, snapshotResponse{
		Date:    day.String(),
		SavedBy: req.SavedBy,
		Amounts: saved,
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to write snapshot response")
	}
}

// GET /api/v1/handover/snapshots?start=YYYY-MM-DD&end=YYYY-MM-DD
func HandleListSnapshots(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	start, end, err := apiutil.DateRangeFromQuery(r)
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handoverQueryTimeout)
	defer cancel()

	rows, err := queries.ListHandoverSnapshotsBetween(ctx, db.ListHandoverSnapshotsBetweenParams{
		Start: start.String(),
		End:   end.String(),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list handover snapshots")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to list handover snapshots")
		return
	}

	// Group rows by date, preserving the newest-first order of the query.
	var dates []string
	grouped := map[string]*snapshotResponse{}
	for _, row := range rows {
		group, ok := grouped[row.SnapshotDate]
		if !ok {
			group = &snapshotResponse{
				Date:    row.SnapshotDate,
				SavedBy: row.SavedBy,
				Amounts: map[string]decimal.Decimal{},
			}
			grouped[row.SnapshotDate] = group
			dates = append(dates, row.SnapshotDate)
		}
		group.Amounts[row.Channel] = row.Amount
	}

	items := make([]snapshotResponse, 0, len(dates))
	for _, date := range dates {
		items = append(items, *grouped[date])
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"snapshots": items}); err != nil {
		logger.Error().Err(err).Msg("Failed to write snapshots response")
	}
}

type emailReportRequest struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// POST /api/v1/handover/report/email
func HandleEmailReport(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if aggregator == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if sender == nil || recipient == "" {
		apiutil.WriteError(w, r, http.StatusServiceUnavailable, "Email delivery is not configured")
		return
	}

	var req emailReportRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	var start, end billing.Date
	var err error
	switch {
	case req.Date != "":
		start, err = apiutil.ParseDateField(req.Date, "date")
		end = start
	case req.Start != "" && req.End != "":
		start, err = apiutil.ParseDateField(req.Start, "start")
		if err == nil {
			end, err = apiutil.ParseDateField(req.End, "end")
		}
	default:
		err = apiutil.FieldError{Field: "date", Reason: "is required (or start and end)"}
	}
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handoverQueryTimeout)
	defer cancel()

	report, err := buildReport(ctx, start, end)
	if err != nil {
		writeReportError(w, r, err)
		return
	}

	if err := sender.Send(ctx, recipient, email.ReportSubject(report), email.FormatReport(report)); err != nil {
		logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to email handover report")
		apiutil.WriteError(w, r, http.StatusBadGateway, "Failed to email handover report")
		return
	}

	logger.Info().Str("recipient", recipient).Str("start", start.String()).Str("end", end.String()).Msg("Handover report emailed")
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "sent", "recipient": recipient}); err != nil {
		logger.Error().Err(err).Msg("Failed to write email response")
	}
}
