// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hotelops/frontdesk/internal/api"
	"github.com/hotelops/frontdesk/internal/api/handover"
	"github.com/hotelops/frontdesk/internal/api/orders"
	"github.com/hotelops/frontdesk/internal/api/rooms"
	"github.com/hotelops/frontdesk/internal/api/staff"
	"github.com/hotelops/frontdesk/internal/config"
	"github.com/hotelops/frontdesk/internal/ratelimit"
)

func newServer(cfg *config.Config) *http.Server {
	router := http.NewServeMux()

	limiter := ratelimit.New(nil)

	handler := api.ChainMiddleware(
		router,
		api.WithRateLimit(limiter, false),
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	registerRoutes(router)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Room inventory
	mux.HandleFunc("POST /api/v1/room-types", rooms.HandleCreateRoomType)
	mux.HandleFunc("GET /api/v1/room-types", rooms.HandleListRoomTypes)
	mux.HandleFunc("GET /api/v1/room-types/{id}", rooms.HandleGetRoomType)
	mux.HandleFunc("PUT /api/v1/room-types/{id}", rooms.HandleUpdateRoomType)
	mux.HandleFunc("DELETE /api/v1/room-types/{id}", rooms.HandleDeleteRoomType)
	mux.HandleFunc("POST /api/v1/rooms", rooms.HandleCreateRoom)
	mux.HandleFunc("GET /api/v1/rooms", rooms.HandleListRooms)
	mux.HandleFunc("GET /api/v1/rooms/{room_number}", rooms.HandleGetRoom)
	mux.HandleFunc("PUT /api/v1/rooms/{room_number}", rooms.HandleUpdateRoom)
	mux.HandleFunc("PUT /api/v1/rooms/{room_number}/status", rooms.HandleUpdateRoomStatus)
	mux.HandleFunc("DELETE /api/v1/rooms/{room_number}", rooms.HandleDeleteRoom)

	// Orders
	mux.HandleFunc("POST /api/v1/orders", orders.HandleCreateOrder)
	mux.HandleFunc("GET /api/v1/orders", orders.HandleListOrders)
	mux.HandleFunc("GET /api/v1/orders/{order_no}", orders.HandleGetOrder)
	mux.HandleFunc("POST /api/v1/orders/{order_no}/check-in", orders.HandleCheckIn)
	mux.HandleFunc("POST /api/v1/orders/{order_no}/check-out", orders.HandleCheckOut)
	mux.HandleFunc("POST /api/v1/orders/{order_no}/cancel", orders.HandleCancel)
	mux.HandleFunc("PUT /api/v1/orders/{order_no}/dates", orders.HandleUpdateDates)
	mux.HandleFunc("POST /api/v1/orders/{order_no}/refunds", orders.HandleCreateRefund)

	// Shift handover
	mux.HandleFunc("GET /api/v1/handover/report", handover.HandleGetReport)
	mux.HandleFunc("POST /api/v1/handover/report/email", handover.HandleEmailReport)
	mux.HandleFunc("POST /api/v1/handover/snapshots", handover.HandleSaveSnapshots)
	mux.HandleFunc("GET /api/v1/handover/snapshots", handover.HandleListSnapshots)

	// Staff accounts
	mux.HandleFunc("POST /api/v1/staff", staff.HandleCreateStaff)
	mux.HandleFunc("GET /api/v1/staff", staff.HandleListStaff)
}
