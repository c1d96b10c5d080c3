package billing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hotelops/frontdesk/internal/db"
	"github.com/hotelops/frontdesk/internal/testutil"
)

func seedRefundBill(t *testing.T, q *db.Queries, orderNo, paymentMethod, amount, business string, issued Date) {
	t.Helper()

	ctx := context.Background()
	if _, err := q.CreateReservation(ctx, db.CreateReservationParams{
		OrderNo:         orderNo,
		GuestName:       "guest",
		RoomNumber:      "101",
		CheckInDate:     issued.String(),
		CheckOutDate:    issued.Next().String(),
		PriceAllocation: `{"` + issued.String() + `": "100"}`,
		StayKind:        string(StayMultiNight),
	}); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
	if _, err := q.CreateBill(ctx, db.CreateBillParams{
		OrderNo:       orderNo,
		BillType:      db.BillTypeDepositRefund,
		PaymentMethod: paymentMethod,
		Amount:        decimal.RequireFromString(amount),
		BusinessType:  business,
		CreatedAt:     issued.Time().Add(10 * time.Hour),
	}); err != nil {
		t.Fatalf("seed refund: %v", err)
	}
}

func TestRefundsBetweenNormalizesSign(t *testing.T) {
	database := testutil.NewTestDB(t)
	ledger := NewRefundLedger(database.Queries)
	day := mustDate(t, "2024-04-10")

	seedRefundBill(t, database.Queries, "RF-1", "现金", "-150", "hotel", day)

	events, err := ledger.RefundsBetween(context.Background(), day, day)
	if err != nil {
		t.Fatalf("RefundsBetween() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ev := events[0]
	if !ev.Amount.Equal(decimal.NewFromInt(150)) {
		t.Errorf("amount = %s, want 150", ev.Amount)
	}
	if ev.Channel != ChannelCash {
		t.Errorf("channel = %s, want cash", ev.Channel)
	}
	if ev.Business != BusinessHotel {
		t.Errorf("business = %s, want hotel", ev.Business)
	}
	if ev.Day != day {
		t.Errorf("day = %s, want %s", ev.Day, day)
	}
}

func TestRefundsBetweenExcludesOutsideWindow(t *testing.T) {
	database := testutil.NewTestDB(t)
	ledger := NewRefundLedger(database.Queries)

	seedRefundBill(t, database.Queries, "RF-2", "微信", "-80", "rest", mustDate(t, "2024-04-10"))
	seedRefundBill(t, database.Queries, "RF-3", "微信", "-90", "rest", mustDate(t, "2024-04-20"))

	events, err := ledger.RefundsBetween(context.Background(), mustDate(t, "2024-04-09"), mustDate(t, "2024-04-11"))
	if err != nil {
		t.Fatalf("RefundsBetween() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if !events[0].Amount.Equal(decimal.NewFromInt(80)) {
		t.Errorf("amount = %s, want 80", events[0].Amount)
	}
}

func TestRefundsOnFiltersBusiness(t *testing.T) {
	database := testutil.NewTestDB(t)
	ledger := NewRefundLedger(database.Queries)
	day := mustDate(t, "2024-04-15")

	seedRefundBill(t, database.Queries, "RF-4", "现金", "-50", "hotel", day)
	seedRefundBill(t, database.Queries, "RF-5", "现金", "-60", "rest", day)

	events, err := ledger.RefundsOn(context.Background(), day, BusinessRest)
	if err != nil {
		t.Fatalf("RefundsOn() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if !events[0].Amount.Equal(decimal.NewFromInt(60)) {
		t.Errorf("amount = %s, want 60", events[0].Amount)
	}

	all, err := ledger.RefundsOn(context.Background(), day, "")
	if err != nil {
		t.Fatalf("RefundsOn() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("unfiltered events = %d, want 2", len(all))
	}
}

func TestRefundsUnknownBusinessDefaultsToHotel(t *testing.T) {
	database := testutil.NewTestDB(t)
	ledger := NewRefundLedger(database.Queries)
	day := mustDate(t, "2024-04-18")

	seedRefundBill(t, database.Queries, "RF-6", "现金", "-40", "legacy-imported", day)

	events, err := ledger.RefundsBetween(context.Background(), day, day)
	if err != nil {
		t.Fatalf("RefundsBetween() error = %v", err)
	}
	if len(events) != 1 || events[0].Business != BusinessHotel {
		t.Fatalf("events = %+v, want one hotel event", events)
	}
}
