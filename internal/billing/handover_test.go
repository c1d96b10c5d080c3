package billing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hotelops/frontdesk/internal/db"
	"github.com/hotelops/frontdesk/internal/testutil"
)

func newTestAggregator(t *testing.T) (*Aggregator, *db.DB) {
	t.Helper()
	database := testutil.NewTestDB(t)
	agg := NewAggregator(database.Queries, Config{RetainedCash: decimal.NewFromInt(320)})
	return agg, database
}

type seedOrder struct {
	orderNo  string
	room     string
	checkIn  string
	checkOut string
	payment  string
	deposit  int64
	fees     map[string]int64
}

func seedReservation(t *testing.T, database *db.DB, o seedOrder) {
	t.Helper()

	alloc := map[string]decimal.Decimal{}
	for day, fee := range o.fees {
		alloc[day] = decimal.NewFromInt(fee)
	}
	allocJSON, err := json.Marshal(alloc)
	if err != nil {
		t.Fatalf("marshal allocation: %v", err)
	}

	in := mustDate(t, o.checkIn)
	out := mustDate(t, o.checkOut)
	_, err = database.Queries.CreateReservation(context.Background(), db.CreateReservationParams{
		OrderNo:         o.orderNo,
		GuestName:       "测试客人",
		RoomNumber:      o.room,
		CheckInDate:     o.checkIn,
		CheckOutDate:    o.checkOut,
		PaymentMethod:   o.payment,
		Deposit:         decimal.NewFromInt(o.deposit),
		PriceAllocation: string(allocJSON),
		StayKind:        string(ClassifyStay(in, out)),
	})
	if err != nil {
		t.Fatalf("seed reservation %s: %v", o.orderNo, err)
	}
}

func seedRefund(t *testing.T, database *db.DB, orderNo, payment string, amount int64, business BusinessType, issuedOn string) {
	t.Helper()

	issued, err := time.Parse("2006-01-02", issuedOn)
	if err != nil {
		t.Fatalf("parse refund date: %v", err)
	}
	// Ledger convention: refunds are stored negative (money owed back).
	_, err = database.Queries.CreateBill(context.Background(), db.CreateBillParams{
		OrderNo:       orderNo,
		BillType:      db.BillTypeDepositRefund,
		PaymentMethod: payment,
		Amount:        decimal.NewFromInt(-amount),
		BusinessType:  string(business),
		CreatedAt:     issued.Add(10 * time.Hour),
	})
	if err != nil {
		t.Fatalf("seed refund for %s: %v", orderNo, err)
	}
}

func saveSnapshots(t *testing.T, database *db.DB, date string, amounts map[Channel]int64) {
	t.Helper()
	for channel, amount := range amounts {
		_, err := database.Queries.UpsertHandoverSnapshot(context.Background(), db.UpsertHandoverSnapshotParams{
			SnapshotDate: date,
			Channel:      string(channel),
			Amount:       decimal.NewFromInt(amount),
			SavedBy:      "night-shift",
		})
		if err != nil {
			t.Fatalf("seed snapshot: %v", err)
		}
	}
}

func reportLine(t *testing.T, agg *Aggregator, day string, channel Channel) ChannelReport {
	t.Helper()
	report, err := agg.BuildReport(context.Background(), mustDate(t, day))
	if err != nil {
		t.Fatalf("build report for %s: %v", day, err)
	}
	return report.Channel(channel)
}

func wantDecimal(t *testing.T, label string, got decimal.Decimal, want int64) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Errorf("%s = %s, want %d", label, got, want)
	}
}

// Three cash nights, deposit 200, no reserve, no refunds.
func TestBuildReportMultiNightCash(t *testing.T) {
	agg, database := newTestAggregator(t)
	seedReservation(t, database, seedOrder{
		orderNo: "ORD-1", room: "301",
		checkIn: "2024-01-01", checkOut: "2024-01-04",
		payment: "现金", deposit: 200,
		fees: map[string]int64{"2024-01-01": 100, "2024-01-02": 110, "2024-01-03": 120},
	})

	line := reportLine(t, agg, "2024-01-01", ChannelCash)
	wantDecimal(t, "hotel income 01-01", line.HotelIncome, 300)
	wantDecimal(t, "handover 01-01", line.Handover, -20) // 300 - 320 retained

	wantDecimal(t, "hotel income 01-02", reportLine(t, agg, "2024-01-02", ChannelCash).HotelIncome, 110)
	wantDecimal(t, "hotel income 01-03", reportLine(t, agg, "2024-01-03", ChannelCash).HotelIncome, 120)

	// Check-out day is income-neutral.
	checkout := reportLine(t, agg, "2024-01-04", ChannelCash)
	wantDecimal(t, "hotel income 01-04", checkout.HotelIncome, 0)
	wantDecimal(t, "rest income 01-04", checkout.RestIncome, 0)
}

// Refund issued on the check-out day lands there; income stays zero.
func TestBuildReportRefundOnCheckoutDay(t *testing.T) {
	agg, database := newTestAggregator(t)
	seedReservation(t, database, seedOrder{
		orderNo: "ORD-1", room: "301",
		checkIn: "2024-01-01", checkOut: "2024-01-04",
		payment: "现金", deposit: 200,
		fees: map[string]int64{"2024-01-01": 100, "2024-01-02": 110, "2024-01-03": 120},
	})
	seedRefund(t, database, "ORD-1", "现金", 150, BusinessHotel, "2024-01-04")

	line := reportLine(t, agg, "2024-01-04", ChannelCash)
	wantDecimal(t, "hotel refund", line.HotelRefund, 150)
	wantDecimal(t, "hotel income", line.HotelIncome, 0)
	wantDecimal(t, "handover", line.Handover, -470) // 0 - 150 - 320
}

// Day-use wechat: fee+deposit on the single date, rest bucket, no
// retained deduction off-cash.
func TestBuildReportDayUseWeChat(t *testing.T) {
	agg, database := newTestAggregator(t)
	seedReservation(t, database, seedOrder{
		orderNo: "ORD-2", room: "305",
		checkIn: "2024-02-01", checkOut: "2024-02-01",
		payment: "微信", deposit: 50,
		fees: map[string]int64{"2024-02-01": 80},
	})

	line := reportLine(t, agg, "2024-02-01", ChannelWeChat)
	wantDecimal(t, "rest income", line.RestIncome, 130)
	wantDecimal(t, "hotel income", line.HotelIncome, 0)
	wantDecimal(t, "handover", line.Handover, 130)

	cash := reportLine(t, agg, "2024-02-01", ChannelCash)
	wantDecimal(t, "cash hotel income", cash.HotelIncome, 0)
}

// No prior snapshot: every channel opens at zero.
func TestBuildReportMissingPriorSnapshot(t *testing.T) {
	agg, _ := newTestAggregator(t)

	report, err := agg.BuildReport(context.Background(), mustDate(t, "2024-03-02"))
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Channels) != 4 {
		t.Fatalf("expected 4 channel lines, got %d", len(report.Channels))
	}
	for _, line := range report.Channels {
		if !line.Reserve.IsZero() {
			t.Errorf("channel %s reserve = %s, want 0", line.Channel, line.Reserve)
		}
	}
}

// A stored allocation with a hole must abort the report, not zero-fill.
func TestBuildReportMissingPriceData(t *testing.T) {
	agg, database := newTestAggregator(t)

	alloc, _ := json.Marshal(map[string]string{"2024-01-01": "100"})
	_, err := database.Queries.CreateReservation(context.Background(), db.CreateReservationParams{
		OrderNo:     "ORD-BAD",
		GuestName:   "测试客人",
		RoomNumber:  "302",
		CheckInDate: "2024-01-01", CheckOutDate: "2024-01-03",
		PaymentMethod:   "现金",
		Deposit:         decimal.NewFromInt(100),
		PriceAllocation: string(alloc),
		StayKind:        string(StayMultiNight),
	})
	if err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	_, err = agg.BuildReport(context.Background(), mustDate(t, "2024-01-02"))
	if !IsMissingPriceData(err) {
		t.Fatalf("expected missing price data error, got %v", err)
	}
}

// Saved snapshots become the next day's reserve.
func TestBuildReportReserveCarryOver(t *testing.T) {
	agg, database := newTestAggregator(t)
	saveSnapshots(t, database, "2024-01-05", map[Channel]int64{
		ChannelCash:   1000,
		ChannelWeChat: 500,
	})

	report, err := agg.BuildReport(context.Background(), mustDate(t, "2024-01-06"))
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	wantDecimal(t, "cash reserve", report.Channel(ChannelCash).Reserve, 1000)
	wantDecimal(t, "wechat reserve", report.Channel(ChannelWeChat).Reserve, 500)
	wantDecimal(t, "weiyoufu reserve", report.Channel(ChannelWeiYouFu).Reserve, 0)
	wantDecimal(t, "cash total income", report.Channel(ChannelCash).TotalIncome, 1000)
	wantDecimal(t, "cash handover", report.Channel(ChannelCash).Handover, 680) // 1000 - 320
}

// Range report: income sums per day, reserve taken once from the day
// before the window.
func TestBuildRangeReport(t *testing.T) {
	agg, database := newTestAggregator(t)
	seedReservation(t, database, seedOrder{
		orderNo: "ORD-1", room: "301",
		checkIn: "2024-01-01", checkOut: "2024-01-04",
		payment: "现金", deposit: 200,
		fees: map[string]int64{"2024-01-01": 100, "2024-01-02": 110, "2024-01-03": 120},
	})
	saveSnapshots(t, database, "2023-12-31", map[Channel]int64{ChannelCash: 400})
	// Snapshots inside the window must NOT be re-added as reserve.
	saveSnapshots(t, database, "2024-01-01", map[Channel]int64{ChannelCash: 9999})

	report, err := agg.BuildRangeReport(context.Background(), mustDate(t, "2024-01-01"), mustDate(t, "2024-01-04"))
	if err != nil {
		t.Fatalf("build range report: %v", err)
	}
	line := report.Channel(ChannelCash)
	wantDecimal(t, "range hotel income", line.HotelIncome, 530) // 300+110+120
	wantDecimal(t, "range reserve", line.Reserve, 400)
	wantDecimal(t, "range total", line.TotalIncome, 930)
	wantDecimal(t, "range handover", line.Handover, 610) // 930 - 320
}

func TestBuildRangeReportInvalidRange(t *testing.T) {
	agg, _ := newTestAggregator(t)
	_, err := agg.BuildRangeReport(context.Background(), mustDate(t, "2024-01-05"), mustDate(t, "2024-01-01"))
	if err != ErrInvalidDateRange {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

// Conservation: per-channel buckets sum to exactly what the attributable
// reservations earned, nothing lost or duplicated across channels.
func TestBuildReportConservation(t *testing.T) {
	agg, database := newTestAggregator(t)
	seedReservation(t, database, seedOrder{
		orderNo: "ORD-1", room: "301",
		checkIn: "2024-01-01", checkOut: "2024-01-03",
		payment: "现金", deposit: 200,
		fees: map[string]int64{"2024-01-01": 100, "2024-01-02": 110},
	})
	seedReservation(t, database, seedOrder{
		orderNo: "ORD-2", room: "302",
		checkIn: "2024-01-01", checkOut: "2024-01-01",
		payment: "微信", deposit: 50,
		fees: map[string]int64{"2024-01-01": 80},
	})
	seedReservation(t, database, seedOrder{
		orderNo: "ORD-3", room: "303",
		checkIn: "2023-12-30", checkOut: "2024-01-02",
		payment: "支付宝", deposit: 0,
		fees: map[string]int64{"2023-12-30": 90, "2023-12-31": 90, "2024-01-01": 95},
	})

	report, err := agg.BuildReport(context.Background(), mustDate(t, "2024-01-01"))
	if err != nil {
		t.Fatalf("build report: %v", err)
	}

	total := decimal.Zero
	for _, line := range report.Channels {
		total = total.Add(line.HotelIncome).Add(line.RestIncome)
	}
	// ORD-1 first night 100+200, ORD-2 day-use 80+50, ORD-3 mid-stay 95.
	wantDecimal(t, "total attributed", total, 525)

	wantDecimal(t, "cash hotel", report.Channel(ChannelCash).HotelIncome, 300)
	wantDecimal(t, "wechat rest", report.Channel(ChannelWeChat).RestIncome, 130)
	wantDecimal(t, "weiyoufu hotel", report.Channel(ChannelWeiYouFu).HotelIncome, 95)
}

// Cancelled orders never contribute income.
func TestBuildReportSkipsCancelled(t *testing.T) {
	agg, database := newTestAggregator(t)
	seedReservation(t, database, seedOrder{
		orderNo: "ORD-1", room: "301",
		checkIn: "2024-01-01", checkOut: "2024-01-02",
		payment: "现金", deposit: 100,
		fees: map[string]int64{"2024-01-01": 100},
	})
	_, err := database.Queries.UpdateReservationStatus(context.Background(), db.UpdateReservationStatusParams{
		OrderNo: "ORD-1",
		Status:  "cancelled",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	line := reportLine(t, agg, "2024-01-01", ChannelCash)
	wantDecimal(t, "hotel income", line.HotelIncome, 0)
}
