package billing

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// PriceAllocation maps each priced night of a stay to its room fee.
// A multi-night stay prices every date in [checkIn, checkOut); a day-use
// stay prices exactly the check-in date.
type PriceAllocation map[Date]decimal.Decimal

// ParsePriceAllocation decodes the JSON form ({"2024-01-01": "100", ...}).
func ParsePriceAllocation(data []byte) (PriceAllocation, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("price allocation is required")
	}
	var alloc PriceAllocation
	if err := json.Unmarshal(data, &alloc); err != nil {
		return nil, fmt.Errorf("invalid price allocation: %w", err)
	}
	return alloc, nil
}

// Validate enforces the night-set invariant: the allocated dates must be
// exactly the nights stayed. Enforced at construction so the attribution
// engine never has to guess.
func (p PriceAllocation) Validate(checkIn, checkOut Date) error {
	if checkOut.Before(checkIn) {
		return fmt.Errorf("check-out %s is before check-in %s", checkOut, checkIn)
	}

	nights := map[Date]struct{}{}
	if checkIn == checkOut {
		nights[checkIn] = struct{}{}
	} else {
		for d := checkIn; d.Before(checkOut); d = d.Next() {
			nights[d] = struct{}{}
		}
	}

	for d := range nights {
		if _, ok := p[d]; !ok {
			return fmt.Errorf("price allocation missing night %s", d)
		}
	}
	for d := range p {
		if _, ok := nights[d]; !ok {
			return fmt.Errorf("price allocation has %s outside the stay", d)
		}
	}
	return nil
}

// Dates returns the allocated dates in ascending order.
func (p PriceAllocation) Dates() []Date {
	dates := make([]Date, 0, len(p))
	for d := range p {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Total sums the room fees across all nights.
func (p PriceAllocation) Total() decimal.Decimal {
	total := decimal.Zero
	for _, fee := range p {
		total = total.Add(fee)
	}
	return total
}

// Reservation is the billing view of an order: just the fields the
// attribution engine and handover aggregator need.
type Reservation struct {
	OrderNo       string
	RoomNumber    string
	CheckIn       Date
	CheckOut      Date
	PaymentMethod string
	Deposit       decimal.Decimal
	Prices        PriceAllocation
	Kind          StayKind
}

// NewReservation validates the stay window and price allocation and
// derives the stay classification.
func NewReservation(orderNo, roomNumber string, checkIn, checkOut Date, paymentMethod string, deposit decimal.Decimal, prices PriceAllocation) (Reservation, error) {
	if orderNo == "" {
		return Reservation{}, fmt.Errorf("order number is required")
	}
	if err := prices.Validate(checkIn, checkOut); err != nil {
		return Reservation{}, err
	}
	return Reservation{
		OrderNo:       orderNo,
		RoomNumber:    roomNumber,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		PaymentMethod: paymentMethod,
		Deposit:       deposit,
		Prices:        prices,
		Kind:          ClassifyStay(checkIn, checkOut),
	}, nil
}
