package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/hotelops/frontdesk/internal/db"
)

// ErrInvalidDateRange rejects a report window whose end precedes its
// start. Checked before any query runs.
var ErrInvalidDateRange = errors.New("invalid date range: end is before start")

// Config is the reconciliation policy, fixed at construction so alternate
// policies stay testable.
type Config struct {
	// RetainedCash is deducted from the cash channel's handover amount
	// only; the electronic channels hand over everything.
	RetainedCash decimal.Decimal
}

// ChannelReport is one channel's line in the handover report.
type ChannelReport struct {
	Channel     Channel         `json:"channel"`
	Label       string          `json:"label"`
	Reserve     decimal.Decimal `json:"reserve"`
	HotelIncome decimal.Decimal `json:"hotel_income"`
	RestIncome  decimal.Decimal `json:"rest_income"`
	TotalIncome decimal.Decimal `json:"total_income"`
	HotelRefund decimal.Decimal `json:"hotel_refund"`
	RestRefund  decimal.Decimal `json:"rest_refund"`
	Retained    decimal.Decimal `json:"retained"`
	Handover    decimal.Decimal `json:"handover"`
}

// Report is the shift-handover reconciliation for a date window. All four
// canonical channels are always present, zero-valued when idle.
type Report struct {
	Start    Date            `json:"start"`
	End      Date            `json:"end"`
	Channels []ChannelReport `json:"channels"`
}

// Channel returns the line for the given channel.
func (r *Report) Channel(c Channel) ChannelReport {
	for _, line := range r.Channels {
		if line.Channel == c {
			return line
		}
	}
	return ChannelReport{Channel: c}
}

// Aggregator builds handover reports by composing the attribution engine,
// the refund ledger and the snapshot store.
type Aggregator struct {
	q   *db.Queries
	cfg Config
}

func NewAggregator(q *db.Queries, cfg Config) *Aggregator {
	return &Aggregator{q: q, cfg: cfg}
}

// BuildReport builds the reconciliation for a single business date.
func (a *Aggregator) BuildReport(ctx context.Context, day Date) (*Report, error) {
	return a.BuildRangeReport(ctx, day, day)
}

// BuildRangeReport builds the reconciliation for [start, end]. Income and
// refunds are summed per date across the window; the reserve is taken
// once from the day before the window starts, because carry-over is a
// single opening balance, not a per-day figure.
func (a *Aggregator) BuildRangeReport(ctx context.Context, start, end Date) (*Report, error) {
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	var (
		reservations []Reservation
		refunds      []RefundEvent
		reserve      map[Channel]decimal.Decimal
	)

	// The three reads are independent and read-only; fan out.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := a.q.ListReservationsOverlapping(gctx, db.ListReservationsOverlappingParams{
			Start: start.String(),
			End:   end.String(),
		})
		if err != nil {
			return fmt.Errorf("list reservations: %w", err)
		}
		reservations = make([]Reservation, 0, len(rows))
		for _, row := range rows {
			res, err := ReservationFromRow(row)
			if err != nil {
				return err
			}
			reservations = append(reservations, res)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		refunds, err = NewRefundLedger(a.q).RefundsBetween(gctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		reserve, err = a.reserveFor(gctx, start)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lines := make(map[Channel]*ChannelReport, 4)
	for _, c := range AllChannels() {
		lines[c] = &ChannelReport{
			Channel:     c,
			Label:       c.Label(),
			Reserve:     reserve[c],
			HotelIncome: decimal.Zero,
			RestIncome:  decimal.Zero,
			HotelRefund: decimal.Zero,
			RestRefund:  decimal.Zero,
			Retained:    decimal.Zero,
		}
	}
	lines[ChannelCash].Retained = a.cfg.RetainedCash

	for day := start; !day.After(end); day = day.Next() {
		for _, res := range reservations {
			event, ok, err := AttributeIncome(res, day)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			line := lines[event.Channel]
			if event.Business == BusinessRest {
				line.RestIncome = line.RestIncome.Add(event.Amount)
			} else {
				line.HotelIncome = line.HotelIncome.Add(event.Amount)
			}
		}
	}

	for _, refund := range refunds {
		line := lines[refund.Channel]
		if refund.Business == BusinessRest {
			line.RestRefund = line.RestRefund.Add(refund.Amount)
		} else {
			line.HotelRefund = line.HotelRefund.Add(refund.Amount)
		}
	}

	report := &Report{Start: start, End: end}
	for _, c := range AllChannels() {
		line := lines[c]
		line.TotalIncome = line.Reserve.Add(line.HotelIncome).Add(line.RestIncome)
		// May legitimately go negative on under-collection days.
		line.Handover = line.TotalIncome.Sub(line.HotelRefund).Sub(line.RestRefund).Sub(line.Retained)
		report.Channels = append(report.Channels, *line)
	}
	return report, nil
}

// reserveFor loads the carried-over balance saved at the close of the day
// before start. A missing snapshot is not an error: the reserve simply
// opens at zero for every channel.
func (a *Aggregator) reserveFor(ctx context.Context, start Date) (map[Channel]decimal.Decimal, error) {
	reserve := make(map[Channel]decimal.Decimal, 4)
	for _, c := range AllChannels() {
		reserve[c] = decimal.Zero
	}

	snapshots, err := a.q.GetHandoverSnapshots(ctx, start.Prev().String())
	if err != nil {
		return nil, fmt.Errorf("load prior snapshot: %w", err)
	}
	for _, snap := range snapshots {
		c := Channel(snap.Channel)
		if _, ok := reserve[c]; !ok {
			// Unknown channel rows are folded into Other rather than lost.
			c = ChannelOther
		}
		reserve[c] = reserve[c].Add(snap.Amount)
	}
	return reserve, nil
}

// ReservationFromRow converts a stored reservation into its billing view,
// decoding and re-validating the price allocation.
func ReservationFromRow(row db.Reservation) (Reservation, error) {
	checkIn, err := ParseDate(row.CheckInDate)
	if err != nil {
		return Reservation{}, fmt.Errorf("order %s: %w", row.OrderNo, err)
	}
	checkOut, err := ParseDate(row.CheckOutDate)
	if err != nil {
		return Reservation{}, fmt.Errorf("order %s: %w", row.OrderNo, err)
	}
	prices, err := ParsePriceAllocation([]byte(row.PriceAllocation))
	if err != nil {
		return Reservation{}, fmt.Errorf("order %s: %w", row.OrderNo, err)
	}

	kind := StayKind(row.StayKind)
	if kind != StayDayUse && kind != StayMultiNight {
		kind = ClassifyStay(checkIn, checkOut)
	}

	return Reservation{
		OrderNo:       row.OrderNo,
		RoomNumber:    row.RoomNumber,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		PaymentMethod: row.PaymentMethod,
		Deposit:       row.Deposit,
		Prices:        prices,
		Kind:          kind,
	}, nil
}
