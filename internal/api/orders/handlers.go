// internal/api/orders/handlers.go
package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hotelops/frontdesk/internal/api/apiutil"
	"github.com/hotelops/frontdesk/internal/billing"
	"github.com/hotelops/frontdesk/internal/db"
)

const (
	orderQueryTimeout = 5 * time.Second
	orderNoParam      = "order_no"
	defaultListLimit  = 50
)

var (
	queries     *db.Queries
	queriesOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q *db.Queries) {
	if q == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = q
	})
}

func loadQueries() *db.Queries {
	return queries
}

type createOrderRequest struct {
	OrderNo         string            `json:"order_no"`
	GuestName       string            `json:"guest_name"`
	GuestPhone      string            `json:"guest_phone"`
	RoomNumber      string            `json:"room_number"`
	CheckInDate     string            `json:"check_in_date"`
	CheckOutDate    string            `json:"check_out_date"`
	PaymentMethod   string            `json:"payment_method"`
	Deposit         string            `json:"deposit"`
	PriceAllocation map[string]string `json:"price_allocation"`
	Remarks         string            `json:"remarks"`
}

type orderResponse struct {
	OrderNo         string          `json:"order_no"`
	GuestName       string          `json:"guest_name"`
	GuestPhone      string          `json:"guest_phone,omitempty"`
	RoomNumber      string          `json:"room_number"`
	CheckInDate     string          `json:"check_in_date"`
	CheckOutDate    string          `json:"check_out_date"`
	PaymentMethod   string          `json:"payment_method"`
	Channel         billing.Channel `json:"channel"`
	Deposit         decimal.Decimal `json:"deposit"`
	PriceAllocation json.RawMessage `json:"price_allocation"`
	Status          string          `json:"status"`
	StayKind        string          `json:"stay_kind"`
	Remarks         string          `json:"remarks,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toOrderResponse(r db.Reservation) orderResponse {
	return orderResponse{
		OrderNo:         r.OrderNo,
		GuestName:       r.GuestName,
		GuestPhone:      r.GuestPhone,
		RoomNumber:      r.RoomNumber,
		CheckInDate:     r.CheckInDate,
		CheckOutDate:    r.CheckOutDate,
		PaymentMethod:   r.PaymentMethod,
		Channel:         billing.NormalizeChannel(r.PaymentMethod),
		Deposit:         r.Deposit,
		PriceAllocation: json.RawMessage(r.PriceAllocation),
		Status:          r.Status,
		StayKind:        r.StayKind,
		Remarks:         r.Remarks,
		CreatedAt:       r.CreatedAt,
	}
}

// POST /api/v1/orders
func HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req createOrderRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.GuestName) == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "guest_name is required")
		return
	}
	if strings.TrimSpace(req.RoomNumber) == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "room_number is required")
		return
	}

	phone, err := apiutil.ParsePhoneField(req.GuestPhone, "guest_phone")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	checkIn, err := apiutil.ParseDateField(req.CheckInDate, "check_in_date")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	checkOut, err := apiutil.ParseDateField(req.CheckOutDate, "check_out_date")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	deposit := decimal.Zero
	if strings.TrimSpace(req.Deposit) != "" {
		deposit, err = apiutil.ParseAmountField(req.Deposit, "deposit")
		if err != nil {
			apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	prices, err := priceAllocationFromRequest(req.PriceAllocation)
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	orderNo := strings.TrimSpace(req.OrderNo)
	if orderNo == "" {
		orderNo = generateOrderNo()
	}

	reservation, err := billing.NewReservation(orderNo, req.RoomNumber, checkIn, checkOut, req.PaymentMethod, deposit, prices)
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	remarks := req.Remarks
	if reservation.Kind == billing.StayDayUse {
		remarks = billing.TagDayUseRemarks(remarks)
	}

	ctx, cancel := context.WithTimeout(r.Context(), orderQueryTimeout)
	defer cancel()

	if _, err := q.GetRoomByNumber(ctx, req.RoomNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Room not found")
			return
		}
		logger.Error().Err(err).Str("room_number", req.RoomNumber).Msg("Failed to look up room")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to create order")
		return
	}

	allocJSON, err := json.Marshal(prices)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to encode price allocation")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to create order")
		return
	}

	created, err := q.CreateReservation(ctx, db.CreateReservationParams{
		OrderNo:         orderNo,
		GuestName:       req.GuestName,
		GuestPhone:      phone,
		RoomNumber:      req.RoomNumber,
		CheckInDate:     checkIn.String(),
		CheckOutDate:    checkOut.String(),
		PaymentMethod:   req.PaymentMethod,
		Deposit:         deposit,
		PriceAllocation: string(allocJSON),
		StayKind:        string(reservation.Kind),
		Remarks:         remarks,
	})
	if err != nil {
		if apiutil.IsSQLiteUniqueViolation(err) {
			apiutil.WriteError(w, r, http.StatusConflict, "Order number already exists")
			return
		}
		logger.Error().Err(err).Str("order_no", orderNo).Msg("Failed to create reservation")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to create order")
		return
	}

	logger.Info().Str("order_no", created.OrderNo).Str("stay_kind", created.StayKind).Msg("Order created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, toOrderResponse(created)); err != nil {
		logger.Error().Err(err).Msg("Failed to write order response")
	}
}

// GET /api/v1/orders/{order_no}
func HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	orderNo := strings.TrimSpace(r.PathValue(orderNoParam))
	if orderNo == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "order_no is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), orderQueryTimeout)
	defer cancel()

	reservation, err := q.GetReservationByOrderNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Order not found")
			return
		}
		logger.Error().Err(err).Str("order_no", orderNo).Msg("Failed to load order")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load order")
		return
	}

	bills, err := q.ListBillsByOrder(ctx, orderNo)
	if err != nil {
		logger.Error().Err(err).Str("order_no", orderNo).Msg("Failed to load bills")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load order")
		return
	}

	type billResponse struct {
		BillType      string          `json:"bill_type"`
		PaymentMethod string          `json:"payment_method"`
		Amount        decimal.Decimal `json:"amount"`
		BusinessType  string          `json:"business_type"`
		CreatedAt     time.Time       `json:"created_at"`
	}
	billItems := make([]billResponse, 0, len(bills))
	for _, b := range bills {
		billItems = append(billItems, billResponse{
			BillType:      b.BillType,
			PaymentMethod: b.PaymentMethod,
			Amount:        b.Amount,
			BusinessType:  b.BusinessType,
			CreatedAt:     b.CreatedAt,
		})
	}

	payload := struct {
		orderResponse
		Bills []billResponse `json:"bills"`
	}{toOrderResponse(reservation), billItems}

	if err := apiutil.WriteJSON(w, http.StatusOK, payload); err != nil {
		logger.Error().Err(err).Msg("Failed to write order response")
	}
}

// GET /api/v1/orders
func HandleListOrders(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	limit := int64(defaultListLimit)
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := apiutil.ParsePositiveInt64Field(raw, "limit")
		if err != nil {
			apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), orderQueryTimeout)
	defer cancel()

	reservations, err := q.ListReservations(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list orders")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	items := make([]orderResponse, 0, len(reservations))
	for _, reservation := range reservations {
		items = append(items, toOrderResponse(reservation))
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"orders": items}); err != nil {
		logger.Error().Err(err).Msg("Failed to write orders response")
	}
}

// POST /api/v1/orders/{order_no}/check-in
func HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	transitionStatus(w, r, db.ReservationStatusPending, db.ReservationStatusCheckedIn, db.RoomStatusOccupied)
}

// POST /api/v1/orders/{order_no}/check-out
func HandleCheckOut(w http.ResponseWriter, r *http.Request) {
	transitionStatus(w, r, db.ReservationStatusCheckedIn, db.ReservationStatusCheckedOut, db.RoomStatusCleaning)
}

// POST /api/v1/orders/{order_no}/cancel
func HandleCancel(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	orderNo := strings.TrimSpace(r.PathValue(orderNoParam))
	if orderNo == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "order_no is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), orderQueryTimeout)
	defer cancel()

	reservation, err := q.GetReservationByOrderNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Order not found")
			return
		}
		logger.Error().Err(err).Str("order_no", orderNo).Msg("Failed to load order")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to cancel order")
		return
	}

	// Checked-out orders are settled history; they cannot be cancelled.
	if reservation.Status == db.ReservationStatusCheckedOut {
		apiutil.WriteError(w, r, http.StatusConflict, "Order already checked out")
		return
	}

	updated, err := q.UpdateReservationStatus(ctx, db.UpdateReservationStatusParams{
		OrderNo: orderNo,
		Status:  db.ReservationStatusCancelled,
	})
	if err != nil {
		logger.Error().Err(err).Str("order_no", orderNo).Msg("Failed to cancel order")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to cancel order")
		return
	}

	logger.Info().Str("order_no", orderNo).Msg("Order cancelled")
	if err := apiutil.WriteJSON(w, http.StatusOK, toOrderResponse(updated)); err != nil {
		logger.Error().Err(err).Msg("Failed to write order response")
	}
}

func transitionStatus(w http.ResponseWriter, r *http.Request, from, to, roomStatus string) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	orderNo := strings.TrimSpace(r.PathValue(orderNoParam))
	if orderNo == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "order_no is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), orderQueryTimeout)
	defer cancel()

	reservation, err := q.GetReservationByOrderNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Order not found")
			return
		}
		logger.Error().Err(err).Str("order_no", orderNo).Msg("Failed to load order")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to update order")
		return
	}

	if reservation.Status != from {
		apiutil.WriteError(w, r, http.StatusConflict, "Order is "+reservation.Status)
		return
	}

	updated, err := q.UpdateReservationStatus(ctx, db.UpdateReservationStatusParams{
		OrderNo: orderNo,
		Status:  to,
	})
	if err != nil {
		logger.Error().Err(err).Str("order_no", orderNo).Msg("Failed to update order status")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to update order")
		return
	}

	// Best effort: the room row may be missing for imported legacy orders.
	if _, err := q.UpdateRoomStatus(ctx, db.UpdateRoomStatusParams{
		RoomNumber: reservation.RoomNumber,
		Status:     roomStatus,
	}); err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.Warn().Err(err).Str("room_number", reservation.RoomNumber).Msg("Failed to update room status")
	}

	logger.Info().Str("order_no", orderNo).Str("status", to).Msg("Order status updated")
	if err := apiutil.WriteJSON(w, http.StatusOK, toOrderResponse(updated)); err != nil {
		logger.Error().Err(err).Msg("Failed to write order response")
	}
}

type updateDatesRequest struct {
	CheckInDate     string            `json:"check_in_date"`
	CheckOutDate    string            `json:"check_out_date"`
	PriceAllocation map[string]string `json:"price_allocation"`
}

// PUT /api/v1/orders/{order_no}/dates
//
// Changing the stay window re-validates the price allocation and
// recomputes the stay classification; a mutated order can never keep a
// stale stay_kind.
func HandleUpdateDates(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	orderNo := strings.TrimSpace(r.PathValue(orderNoParam))
	if orderNo == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "order_no is required")
		return
	}

	var req updateDatesRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	checkIn, err := apiutil.ParseDateField(req.CheckInDate, "check_in_date")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	checkOut, err := apiutil.ParseDateField(req.CheckOutDate, "check_out_date")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	prices, err := priceAllocationFromRequest(req.PriceAllocation)
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := prices.Validate(checkIn, checkOut); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), orderQueryTimeout)
	defer cancel()

	reservation, err := q.GetReservationByOrderNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Order not found")
			return
		}
		logger.Error().Err(err).Str("order_no", orderNo).Msg("Failed to load order")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to update order")
		return
	}

	kind := billing.ClassifyStay(checkIn, checkOut)
	remarks := reservation.Remarks
	if kind == billing.StayDayUse {
		remarks = billing.TagDayUseRemarks(remarks)
	}

	allocJSON, err := json.Marshal(prices)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to encode price allocation")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to update order")
		return
	}

	updated, err := q.UpdateReservationStay(ctx, db.UpdateReservationStayParams{
		OrderNo:         orderNo,
		CheckInDate:     checkIn.String(),
		CheckOutDate:    checkOut.String(),
		PriceAllocation: string(allocJSON),
		StayKind:        string(kind),
		Remarks:         remarks,
	})
	if err != nil {
		logger.Error().Err(err).Str("order_no", orderNo).Msg("Failed to update stay")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to update order")
		return
	}

	logger.Info().Str("order_no", orderNo).Str("stay_kind", string(kind)).Msg("Stay dates updated")
	if err := apiutil.WriteJSON(w, http.StatusOK, toOrderResponse(updated)); err != nil {
		logger.Error().Err(err).Msg("Failed to write order response")
	}
}

type createRefundRequest struct {
	Amount        string `json:"amount"`
	PaymentMethod string `json:"payment_method"`
}

// POST /api/v1/orders/{order_no}/refunds
//
// Records a deposit refund as an immutable ledger row. No cap is applied
// against the remaining deposit; over-refunds pass through as recorded.
func HandleCreateRefund(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	orderNo := strings.TrimSpace(r.PathValue(orderNoParam))
	if orderNo == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "order_no is required")
		return
	}

	var req createRefundRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	amount, err := apiutil.ParseAmountField(req.Amount, "amount")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if amount.IsZero() {
		apiutil.WriteError(w, r, http.StatusBadRequest, "amount must be greater than 0")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), orderQueryTimeout)
	defer cancel()

	reservation, err := q.GetReservationByOrderNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Order not found")
			return
		}
		logger.Error().Err(err).Str("order_no", orderNo).Msg("Failed to load order")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to create refund")
		return
	}

	paymentMethod := apiutil.FirstNonEmpty(req.PaymentMethod, reservation.PaymentMethod)
	businessType := billing.StayKind(reservation.StayKind).BusinessType()

	// Ledger sign convention: refunds are negative room-fee equivalents.
	bill, err := q.CreateBill(ctx, db.CreateBillParams{
		OrderNo:       orderNo,
		BillType:      db.BillTypeDepositRefund,
		PaymentMethod: paymentMethod,
		Amount:        amount.Neg(),
		BusinessType:  string(businessType),
		CreatedAt:     time.Now(),
	})
	if err != nil {
		logger.Error().Err(err).Str("order_no", orderNo).Msg("Failed to create refund")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to create refund")
		return
	}

	logger.Info().
		Str("order_no", orderNo).
		Str("amount", amount.String()).
		Str("business_type", string(businessType)).
		Msg("Deposit refund recorded")

	payload := map[string]any{
		"order_no":       bill.OrderNo,
		"bill_type":      bill.BillType,
		"payment_method": bill.PaymentMethod,
		"amount":         bill.Amount,
		"business_type":  bill.BusinessType,
		"created_at":     bill.CreatedAt,
	}
	if err := apiutil.WriteJSON(w, http.StatusCreated, payload); err != nil {
		logger.Error().Err(err).Msg("Failed to write refund response")
	}
}

func priceAllocationFromRequest(raw map[string]string) (billing.PriceAllocation, error) {
	if len(raw) == 0 {
		return nil, apiutil.FieldError{Field: "price_allocation", Reason: "is required"}
	}
	alloc := billing.PriceAllocation{}
	for dateRaw, amountRaw := range raw {
		day, err := billing.ParseDate(dateRaw)
		if err != nil {
			return nil, apiutil.FieldError{Field: "price_allocation", Reason: "keys must be dates in YYYY-MM-DD form"}
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(amountRaw))
		if err != nil || amount.IsNegative() {
			return nil, apiutil.FieldError{Field: "price_allocation", Reason: "values must be non-negative decimal amounts"}
		}
		alloc[day] = amount
	}
	return alloc, nil
}

func generateOrderNo() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}
