package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hotelops/frontdesk/internal/db"
)

// RefundEvent is a deposit refund projected for reconciliation: always a
// non-negative amount, a canonical channel and the business bucket of the
// originating reservation. The ledger's negative-room-fee sign convention
// is normalized away here.
type RefundEvent struct {
	Day      Date
	Amount   decimal.Decimal
	Channel  Channel
	Business BusinessType
}

// RefundLedger reads deposit-refund bills for reporting. Refunds attach
// to the calendar date they were issued on, never to the stay dates.
type RefundLedger struct {
	q *db.Queries
}

func NewRefundLedger(q *db.Queries) RefundLedger {
	return RefundLedger{q: q}
}

// RefundsBetween returns the refund events issued in [start, end].
// No cap is applied against the originating deposit: partial, repeated
// and over-deposit refunds all pass through as recorded.
func (l RefundLedger) RefundsBetween(ctx context.Context, start, end Date) ([]RefundEvent, error) {
	bills, err := l.q.ListRefundsBetween(ctx, db.ListRefundsBetweenParams{
		Start: start.String(),
		End:   end.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list refunds: %w", err)
	}

	events := make([]RefundEvent, 0, len(bills))
	for _, bill := range bills {
		business := BusinessType(bill.BusinessType)
		if business != BusinessRest {
			business = BusinessHotel
		}
		events = append(events, RefundEvent{
			Day:      DateOf(bill.CreatedAt),
			Amount:   bill.Amount.Abs(),
			Channel:  NormalizeChannel(bill.PaymentMethod),
			Business: business,
		})
	}
	return events, nil
}

// RefundsOn returns the refund events issued on a single date, optionally
// filtered by business type (empty filter keeps everything).
func (l RefundLedger) RefundsOn(ctx context.Context, day Date, filter BusinessType) ([]RefundEvent, error) {
	events, err := l.RefundsBetween(ctx, day, day)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return events, nil
	}
	filtered := events[:0]
	for _, ev := range events {
		if ev.Business == filter {
			filtered = append(filtered, ev)
		}
	}
	return filtered, nil
}
