package staff

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/hotelops/frontdesk/internal/db"
)

var testQueries *db.Queries

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "staff-test")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	database, err := db.New(filepath.Join(dir, "test.db"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	testQueries = database.Queries
	InitHandlers(database.Queries)

	code := m.Run()

	database.Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/staff", HandleCreateStaff)
	mux.HandleFunc("GET /api/v1/staff", HandleListStaff)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateStaff(t *testing.T) {
	mux := newMux()

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/staff", map[string]any{
		"username":     "frontdesk1",
		"password":     "correct-horse",
		"display_name": "小王",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response leaks password material: %s", rec.Body.String())
	}

	account, err := testQueries.GetStaffByUsername(context.Background(), "frontdesk1")
	if err != nil {
		t.Fatalf("load staff: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("correct-horse")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestCreateStaffShortPassword(t *testing.T) {
	mux := newMux()

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/staff", map[string]any{
		"username": "frontdesk2",
		"password": "short",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestCreateStaffDuplicateUsername(t *testing.T) {
	mux := newMux()

	payload := map[string]any{
		"username": "frontdesk3",
		"password": "a-long-password",
	}
	if rec := doJSON(t, mux, http.MethodPost, "/api/v1/staff", payload); rec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d, want 201", rec.Code)
	}
	if rec := doJSON(t, mux, http.MethodPost, "/api/v1/staff", payload); rec.Code != http.StatusConflict {
		t.Fatalf("second create status = %d, want 409", rec.Code)
	}
}

func TestListStaff(t *testing.T) {
	mux := newMux()

	if rec := doJSON(t, mux, http.MethodPost, "/api/v1/staff", map[string]any{
		"username": "frontdesk4",
		"password": "a-long-password",
	}); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", rec.Code)
	}

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/staff", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var got struct {
		Staff []struct {
			Username string `json:"username"`
		} `json:"staff"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode staff: %v", err)
	}
	found := false
	for _, s := range got.Staff {
		if s.Username == "frontdesk4" {
			found = true
		}
	}
	if !found {
		t.Errorf("staff list missing frontdesk4: %+v", got.Staff)
	}
}
