package billing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func threeNightCash(t *testing.T) Reservation {
	t.Helper()
	res, err := NewReservation(
		"ORD-100", "301",
		mustDate(t, "2024-01-01"), mustDate(t, "2024-01-04"),
		"现金", decimal.NewFromInt(200),
		allocFor(t, map[string]int64{"2024-01-01": 100, "2024-01-02": 110, "2024-01-03": 120}),
	)
	if err != nil {
		t.Fatalf("build reservation: %v", err)
	}
	return res
}

func TestAttributeIncomeMultiNight(t *testing.T) {
	res := threeNightCash(t)

	// First night carries the deposit on top of the room fee.
	event, ok, err := AttributeIncome(res, mustDate(t, "2024-01-01"))
	if err != nil || !ok {
		t.Fatalf("first night: ok=%v err=%v", ok, err)
	}
	if !event.Amount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("first night amount = %s, want 300", event.Amount)
	}
	if event.Channel != ChannelCash || event.Business != BusinessHotel {
		t.Errorf("first night event = %+v", event)
	}

	// Later nights earn the fee alone; the deposit is never repeated.
	event, ok, err = AttributeIncome(res, mustDate(t, "2024-01-02"))
	if err != nil || !ok {
		t.Fatalf("second night: ok=%v err=%v", ok, err)
	}
	if !event.Amount.Equal(decimal.NewFromInt(110)) {
		t.Errorf("second night amount = %s, want 110", event.Amount)
	}

	event, ok, err = AttributeIncome(res, mustDate(t, "2024-01-03"))
	if err != nil || !ok {
		t.Fatalf("third night: ok=%v err=%v", ok, err)
	}
	if !event.Amount.Equal(decimal.NewFromInt(120)) {
		t.Errorf("third night amount = %s, want 120", event.Amount)
	}
}

func TestAttributeIncomeCheckoutDayNeutral(t *testing.T) {
	res := threeNightCash(t)
	if _, ok, err := AttributeIncome(res, mustDate(t, "2024-01-04")); ok || err != nil {
		t.Errorf("check-out day attributed income: ok=%v err=%v", ok, err)
	}
}

func TestAttributeIncomeOutsideStay(t *testing.T) {
	res := threeNightCash(t)
	for _, day := range []string{"2023-12-31", "2024-01-05"} {
		if _, ok, err := AttributeIncome(res, mustDate(t, day)); ok || err != nil {
			t.Errorf("%s attributed income: ok=%v err=%v", day, ok, err)
		}
	}
}

func TestAttributeIncomeDayUse(t *testing.T) {
	res, err := NewReservation(
		"ORD-200", "305",
		mustDate(t, "2024-02-01"), mustDate(t, "2024-02-01"),
		"微信", decimal.NewFromInt(50),
		allocFor(t, map[string]int64{"2024-02-01": 80}),
	)
	if err != nil {
		t.Fatalf("build reservation: %v", err)
	}

	event, ok, err := AttributeIncome(res, mustDate(t, "2024-02-01"))
	if err != nil || !ok {
		t.Fatalf("day-use date: ok=%v err=%v", ok, err)
	}
	if !event.Amount.Equal(decimal.NewFromInt(130)) {
		t.Errorf("day-use amount = %s, want 130", event.Amount)
	}
	if event.Business != BusinessRest || event.Channel != ChannelWeChat {
		t.Errorf("day-use event = %+v", event)
	}

	// A day-use stay earns on exactly one date.
	if _, ok, _ := AttributeIncome(res, mustDate(t, "2024-02-02")); ok {
		t.Error("day-use attributed income past its date")
	}
}

func TestAttributeIncomeMissingPriceData(t *testing.T) {
	res := threeNightCash(t)
	delete(res.Prices, mustDate(t, "2024-01-02"))

	_, _, err := AttributeIncome(res, mustDate(t, "2024-01-02"))
	var missing *MissingPriceDataError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingPriceDataError, got %v", err)
	}
	if missing.OrderNo != "ORD-100" || missing.Day != mustDate(t, "2024-01-02") {
		t.Errorf("error detail = %+v", missing)
	}
}
