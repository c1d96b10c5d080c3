// internal/api/staff/handlers.go
package staff

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/hotelops/frontdesk/internal/api/apiutil"
	"github.com/hotelops/frontdesk/internal/db"
)

const (
	staffQueryTimeout = 5 * time.Second
	minPasswordLength = 8
)

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

type createStaffRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type staffResponse struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toStaffResponse(s db.Staff) staffResponse {
	return staffResponse{
		ID:          s.ID,
		Username:    s.Username,
		DisplayName: s.DisplayName,
		CreatedAt:   s.CreatedAt,
	}
}

// POST /api/v1/staff
func HandleCreateStaff(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req createStaffRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		apiutil.WriteError(w, r, http.StatusBadRequest, "username is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		apiutil.WriteError(w, r, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to create staff account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), staffQueryTimeout)
	defer cancel()

	created, err := queries.CreateStaff(ctx, db.CreateStaffParams{
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
	})
	if err != nil {
		if apiutil.IsSQLiteUniqueViolation(err) {
			apiutil.WriteError(w, r, http.StatusConflict, "Username already exists")
			return
		}
		logger.Error().Err(err).Str("username", username).Msg("Failed to create staff account")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to create staff account")
		return
	}

	logger.Info().Str("username", created.Username).Msg("Staff account created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, toStaffResponse(created)); err != nil {
		logger.Error().Err(err).Msg("Failed to write staff response")
	}
}

// GET /api/v1/staff
func HandleListStaff(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil {
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), staffQueryTimeout)
	defer cancel()

	accounts, err := queries.ListStaff(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list staff")
		apiutil.WriteError(w, r, http.StatusInternalServerError, "Failed to list staff")
		return
	}

	items := make([]staffResponse, 0, len(accounts))
	for _, s := range accounts {
		items = append(items, toStaffResponse(s))
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"staff": items}); err != nil {
		logger.Error().Err(err).Msg("Failed to write staff response")
	}
}
