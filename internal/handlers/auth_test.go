package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/brewlog/internal/repo"
	"github.com/crucial707/brewlog/internal/service"
	"github.com/crucial707/brewlog/internal/testutil"
)

func newAuthHandler(t *testing.T, maxUsers int) *AuthHandler {
	t.Helper()
	return &AuthHandler{Auth: service.NewAuthService(testutil.NewSQLiteStore(t), maxUsers)}
}

func postJSON(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestAuthHandler_Register(t *testing.T) {
	h := newAuthHandler(t, 10)

	rr := httptest.NewRecorder()
	h.Register(rr, postJSON(t, "/api/auth/register", map[string]string{"username": "alice"}))

	if rr.Code != http.StatusCreated {
		t.Fatalf("Register status: got %d, want 201", rr.Code)
	}
	var out struct {
		Success bool `json:"success"`
		User    struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
			Token    string `json:"token"`
		} `json:"user"`
		SpotsRemaining int `json:"spotsRemaining"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out.Success || out.User.Username != "alice" || out.User.Token == "" || out.User.ID == 0 {
		t.Errorf("unexpected response: %+v", out)
	}
	if out.SpotsRemaining != 9 {
		t.Errorf("spotsRemaining: got %d, want 9", out.SpotsRemaining)
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	h := newAuthHandler(t, 10)

	rr := httptest.NewRecorder()
	h.Register(rr, postJSON(t, "/api/auth/register", map[string]string{"username": "alice"}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("first Register: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Register(rr, postJSON(t, "/api/auth/register", map[string]string{"username": "ALICE"}))
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate Register: got %d, want 409", rr.Code)
	}
	out := decodeBody(t, rr)
	if out["success"] != false || out["error"] != "Username already taken" {
		t.Errorf("unexpected body: %v", out)
	}
}

func TestAuthHandler_Register_Full(t *testing.T) {
	h := newAuthHandler(t, 1)

	rr := httptest.NewRecorder()
	h.Register(rr, postJSON(t, "/api/auth/register", map[string]string{"username": "alice"}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("first Register: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Register(rr, postJSON(t, "/api/auth/register", map[string]string{"username": "bob"}))
	if rr.Code != http.StatusForbidden {
		t.Errorf("Register when full: got %d, want 403", rr.Code)
	}
	out := decodeBody(t, rr)
	if out["spotsRemaining"] != float64(0) {
		t.Errorf("spotsRemaining: got %v, want 0", out["spotsRemaining"])
	}
}

func TestAuthHandler_Register_BadRequest(t *testing.T) {
	h := newAuthHandler(t, 10)

	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewReader([]byte("not json")))
	rr := httptest.NewRecorder()
	h.Register(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid json: got %d, want 400", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Register(rr, postJSON(t, "/api/auth/register", map[string]string{"username": "a"}))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("short username: got %d, want 400", rr.Code)
	}
}

func TestAuthHandler_Register_DatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnError(errors.New("connection refused"))

	h := &AuthHandler{Auth: service.NewAuthService(repo.NewPostgresStore(db), 10)}
	rr := httptest.NewRecorder()
	h.Register(rr, postJSON(t, "/api/auth/register", map[string]string{"username": "alice"}))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Register status: got %d, want 500", rr.Code)
	}
	out := decodeBody(t, rr)
	if out["error"] != ErrMessageInternal {
		t.Errorf("error message leaked: %v", out["error"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Validate(t *testing.T) {
	h := newAuthHandler(t, 10)
	res, err := h.Auth.Register(httptest.NewRequest("GET", "/", nil).Context(), "alice")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	rr := httptest.NewRecorder()
	h.Validate(rr, httptest.NewRequest("GET", "/api/auth/validate?token="+res.User.Token, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Validate status: got %d, want 200", rr.Code)
	}
	var out struct {
		Valid bool `json:"valid"`
		User  struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
			Token    string `json:"token"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out.Valid || out.User.Username != "alice" || out.User.ID != res.User.ID {
		t.Errorf("unexpected response: %+v", out)
	}
	if out.User.Token != "" {
		t.Error("validate must not echo the token")
	}
}

func TestAuthHandler_Validate_Invalid(t *testing.T) {
	h := newAuthHandler(t, 10)

	rr := httptest.NewRecorder()
	h.Validate(rr, httptest.NewRequest("GET", "/api/auth/validate?token=nope", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("invalid token: got %d, want 401", rr.Code)
	}
	out := decodeBody(t, rr)
	if out["valid"] != false || out["error"] != "Invalid token" {
		t.Errorf("unexpected body: %v", out)
	}

	rr = httptest.NewRecorder()
	h.Validate(rr, httptest.NewRequest("GET", "/api/auth/validate", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing token: got %d, want 400", rr.Code)
	}
}

func TestAuthHandler_Spots(t *testing.T) {
	h := newAuthHandler(t, 3)

	rr := httptest.NewRecorder()
	h.Spots(rr, httptest.NewRequest("GET", "/api/auth/spots", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Spots status: got %d, want 200", rr.Code)
	}
	out := decodeBody(t, rr)
	if out["spotsRemaining"] != float64(3) || out["maxUsers"] != float64(3) {
		t.Errorf("unexpected body: %v", out)
	}
}
