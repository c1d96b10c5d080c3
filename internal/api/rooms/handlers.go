// internal/api/rooms/handlers.go
package rooms

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hotelops/frontdesk/internal/api/apiutil"
	"github.com/hotelops/frontdesk/internal/db"
)

const roomQueryTimeout = 5 * time.Second

var (
	queries     *db.Queries
	queriesOnce sync.Once
)

func InitHandlers(q *db.Queries) {
	if q == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = q
	})
}

type roomTypeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	BasePrice   string `json:"base_price"`
}

type roomTypeResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	BasePrice   decimal.Decimal `json:"base_price"`
}

func toRoomTypeResponse(rt db.RoomType) roomTypeResponse {
	return roomTypeResponse{
		ID:          rt.ID,
		Name:        rt.Name,
		Description: rt.Description,
		BasePrice:   rt.BasePrice,
	}
}

// POST /api/v1/room-types
func HandleCreateRoomType(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req roomTypeRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	basePrice, err := apiutil.ParseAmountField(req.BasePrice, "base_price")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	created, err := queries.CreateRoomType(ctx, db.CreateRoomTypeParams{
		Name:        req.Name,
		Description: req.Description,
		BasePrice:   basePrice,
	})
	if err != nil {
		if apiutil.IsSQLiteUniqueViolation(err) {
			apiutil.WriteError(w, r, http.StatusConflict, "Room type already exists")
			return
		}
		logger.Error().Err(err).Str("name", req.Name).Msg("Failed to create room type")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to create room type")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, toRoomTypeResponse(created)); err != nil {
		logger.Error().Err(err).Msg("Failed to write room type response")
	}
}

// GET /api/v1/room-types
func HandleListRoomTypes(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	roomTypes, err := queries.ListRoomTypes(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list room types")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to list room types")
		return
	}

	items := make([]roomTypeResponse, 0, len(roomTypes))
	for _, rt := range roomTypes {
		items = append(items, toRoomTypeResponse(rt))
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"room_types": items}); err != nil {
		logger.Error().Err(err).Msg("Failed to write room types response")
	}
}

// GET /api/v1/room-types/{id}
func HandleGetRoomType(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	id, err := apiutil.ParsePositiveInt64Field(r.PathValue("id"), "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	roomType, err := queries.GetRoomType(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Room type not found")
			return
		}
		logger.Error().Err(err).Int64("room_type_id", id).Msg("Failed to load room type")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load room type")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, toRoomTypeResponse(roomType)); err != nil {
		logger.Error().Err(err).Msg("Failed to write room type response")
	}
}

// PUT /api/v1/room-types/{id}
func HandleUpdateRoomType(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	id, err := apiutil.ParsePositiveInt64Field(r.PathValue("id"), "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req roomTypeRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	basePrice, err := apiutil.ParseAmountField(req.BasePrice, "base_price")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	updated, err := queries.UpdateRoomType(ctx, db.UpdateRoomTypeParams{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		BasePrice:   basePrice,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Room type not found")
			return
		}
		logger.Error().Err(err).Int64("room_type_id", id).Msg("Failed to update room type")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to update room type")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, toRoomTypeResponse(updated)); err != nil {
		logger.Error().Err(err).Msg("Failed to write room type response")
	}
}

// DELETE /api/v1/room-types/{id}
func HandleDeleteRoomType(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	id, err := apiutil.ParsePositiveInt64Field(r.PathValue("id"), "id")
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	affected, err := queries.DeleteRoomType(ctx, id)
	if err != nil {
		if apiutil.IsSQLiteForeignKeyViolation(err) {
			apiutil.WriteError(w, r, http.StatusConflict, "Room type is in use")
			return
		}
		logger.Error().Err(err).Int64("room_type_id", id).Msg("Failed to delete room type")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to delete room type")
		return
	}
	if affected == 0 {
		apiutil.WriteError(w, r, http.StatusNotFound, "Room type not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type roomRequest struct {
	RoomNumber string `json:"room_number"`
	RoomTypeID int64  `json:"room_type_id"`
	Status     string `json:"status"`
}

type roomResponse struct {
	ID         int64  `json:"id"`
	RoomNumber string `json:"room_number"`
	RoomTypeID int64  `json:"room_type_id"`
	Status     string `json:"status"`
}

func toRoomResponse(rm db.Room) roomResponse {
	return roomResponse{
		ID:         rm.ID,
		RoomNumber: rm.RoomNumber,
		RoomTypeID: rm.RoomTypeID,
		Status:     rm.Status,
	}
}

func validRoomStatus(status string) bool {
	switch status {
	case db.RoomStatusVacant, db.RoomStatusOccupied, db.RoomStatusCleaning:
		return true
	}
	return false
}

// POST /api/v1/rooms
func HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req roomRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.RoomNumber) == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "room_number is required")
		return
	}
	if req.RoomTypeID <= 0 {
		apiutil.WriteError(w, r, http.StatusBadRequest, "room_type_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	created, err := queries.CreateRoom(ctx, db.CreateRoomParams{
		RoomNumber: req.RoomNumber,
		RoomTypeID: req.RoomTypeID,
	})
	if err != nil {
		if apiutil.IsSQLiteUniqueViolation(err) {
			apiutil.WriteError(w, r, http.StatusConflict, "Room already exists")
			return
		}
		if apiutil.IsSQLiteForeignKeyViolation(err) {
			apiutil.WriteError(w, r, http.StatusBadRequest, "Unknown room type")
			return
		}
		logger.Error().Err(err).Str("room_number", req.RoomNumber).Msg("Failed to create room")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to create room")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, toRoomResponse(created)); err != nil {
		logger.Error().Err(err).Msg("Failed to write room response")
	}
}

// GET /api/v1/rooms
func HandleListRooms(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	allRooms, err := queries.ListRooms(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list rooms")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to list rooms")
		return
	}

	items := make([]roomResponse, 0, len(allRooms))
	for _, rm := range allRooms {
		items = append(items, toRoomResponse(rm))
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"rooms": items}); err != nil {
		logger.Error().Err(err).Msg("Failed to write rooms response")
	}
}

// GET /api/v1/rooms/{room_number}
func HandleGetRoom(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	roomNumber := strings.TrimSpace(r.PathValue("room_number"))
	if roomNumber == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "room_number is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	room, err := queries.GetRoomByNumber(ctx, roomNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Room not found")
			return
		}
		logger.Error().Err(err).Str("room_number", roomNumber).Msg("Failed to load room")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to load room")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, toRoomResponse(room)); err != nil {
		logger.Error().Err(err).Msg("Failed to write room response")
	}
}

// PUT /api/v1/rooms/{room_number}
func HandleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	roomNumber := strings.TrimSpace(r.PathValue("room_number"))
	if roomNumber == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "room_number is required")
		return
	}

	var req roomRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RoomTypeID <= 0 {
		apiutil.WriteError(w, r, http.StatusBadRequest, "room_type_id is required")
		return
	}
	if !validRoomStatus(req.Status) {
		apiutil.WriteError(w, r, http.StatusBadRequest, "status must be vacant, occupied or cleaning")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	updated, err := queries.UpdateRoom(ctx, db.UpdateRoomParams{
		RoomNumber: roomNumber,
		RoomTypeID: req.RoomTypeID,
		Status:     req.Status,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Room not found")
			return
		}
		if apiutil.IsSQLiteForeignKeyViolation(err) {
			apiutil.WriteError(w, r, http.StatusBadRequest, "Unknown room type")
			return
		}
		logger.Error().Err(err).Str("room_number", roomNumber).Msg("Failed to update room")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to update room")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, toRoomResponse(updated)); err != nil {
		logger.Error().Err(err).Msg("Failed to write room response")
	}
}

// PUT /api/v1/rooms/{room_number}/status
func HandleUpdateRoomStatus(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	roomNumber := strings.TrimSpace(r.PathValue("room_number"))
	if roomNumber == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "room_number is required")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validRoomStatus(req.Status) {
		apiutil.WriteError(w, r, http.StatusBadRequest, "status must be vacant, occupied or cleaning")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	updated, err := queries.UpdateRoomStatus(ctx, db.UpdateRoomStatusParams{
		RoomNumber: roomNumber,
		Status:     req.Status,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, http.StatusNotFound, "Room not found")
			return
		}
		logger.Error().Err(err).Str("room_number", roomNumber).Msg("Failed to update room status")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to update room status")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, toRoomResponse(updated)); err != nil {
		logger.Error().Err(err).Msg("Failed to write room response")
	}
}

// DELETE /api/v1/rooms/{room_number}
func HandleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	roomNumber := strings.TrimSpace(r.PathValue("room_number"))
	if roomNumber == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "room_number is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), roomQueryTimeout)
	defer cancel()

	affected, err := queries.DeleteRoom(ctx, roomNumber)
	if err != nil {
		logger.Error().Err(err).Str("room_number", roomNumber).Msg("Failed to delete room")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to delete room")
		return
	}
	if affected == 0 {
		apiutil.WriteError(w, r, http.StatusNotFound, "Room not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
