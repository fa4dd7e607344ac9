package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/crucial707/brewlog/internal/service"
)

// ==========================
// CoffeeHandler
// ==========================
type CoffeeHandler struct {
	Auth    *service.AuthService
	Coffees *service.CoffeeService
}

// ==========================
// List Coffees (?token=)
// ==========================
func (h *CoffeeHandler) List(w http.ResponseWriter, r *http.Request) {
	coffees, err := h.Coffees.List(r.Context(), queryToken(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"coffees": coffees})
}

// ==========================
// Save Coffees (full replace; token in body)
// ==========================
func (h *CoffeeHandler) Save(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token   string          `json:"token"`
		Coffees json.RawMessage `json:"coffees"`
	}

	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, err, "invalid json")
		return
	}

	token := strings.TrimSpace(input.Token)
	if token == "" {
		token = bearerToken(r)
	}

	// Authenticate before looking at the payload so a bad token is always a 401.
	user, err := h.Auth.Authenticate(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var coffees []json.RawMessage
	if len(input.Coffees) == 0 || string(input.Coffees) == "null" || json.Unmarshal(input.Coffees, &coffees) != nil {
		JSONError(w, "coffees must be an array", http.StatusBadRequest)
		return
	}

	saved, err := h.Coffees.ReplaceForUser(r.Context(), user.ID, coffees)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": saved})
}
