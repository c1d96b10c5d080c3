package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MissingPriceDataError reports a reservation whose price allocation does
// not cover a night it should. The aggregation must abort rather than
// treat the night as zero, otherwise the handover totals stop balancing.
type MissingPriceDataError struct {
	OrderNo string
	Day     Date
}

func (e *MissingPriceDataError) Error() string {
	return fmt.Sprintf("order %s: no room fee recorded for %s", e.OrderNo, e.Day)
}

// IsMissingPriceData reports whether err wraps a MissingPriceDataError.
func IsMissingPriceData(err error) bool {
	var target *MissingPriceDataError
	return errors.As(err, &target)
}

// IncomeEvent is the projection of a reservation onto a single report
// date: how much money that date earned, on which channel, in which
// business bucket.
type IncomeEvent struct {
	Amount   decimal.Decimal
	Channel  Channel
	Business BusinessType
}

// AttributeIncome computes the income a reservation contributes to a
// report date.
//
// The check-in date earns that night's room fee plus the full deposit.
// Every later night of a multi-night stay earns its room fee alone. The
// check-out date earns nothing: nights belong to the dates slept, the
// deposit belongs to arrival, and check-out is income-neutral (only
// refunds may land there).
//
// The second return value is false when the date is outside the stay.
func AttributeIncome(res Reservation, day Date) (IncomeEvent, bool, error) {
	kind := res.Kind
	if kind == "" {
		kind = ClassifyStay(res.CheckIn, res.CheckOut)
	}

	switch kind {
	case StayDayUse:
		if day != res.CheckIn {
			return IncomeEvent{}, false, nil
		}
	default:
		if day.Before(res.CheckIn) || !day.Before(res.CheckOut) {
			return IncomeEvent{}, false, nil
		}
	}

	fee, ok := res.Prices[day]
	if !ok {
		return IncomeEvent{}, false, &MissingPriceDataError{OrderNo: res.OrderNo, Day: day}
	}

	amount := fee
	if day == res.CheckIn {
		amount = amount.Add(res.Deposit)
	}

	return IncomeEvent{
		Amount:   amount,
		Channel:  NormalizeChannel(res.PaymentMethod),
		Business: kind.BusinessType(),
	}, true, nil
}
