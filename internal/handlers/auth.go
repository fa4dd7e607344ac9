package handlers

import (
	"net/http"

	"github.com/crucial707/brewlog/internal/apperr"
	"github.com/crucial707/brewlog/internal/models"
	"github.com/crucial707/brewlog/internal/service"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Auth *service.AuthService
}

// ==========================
// Register (username only; returns a permanent token)
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
	}

	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, err, "invalid json")
		return
	}

	res, err := h.Auth.Register(r.Context(), input.Username)
	if err != nil {
		var extra map[string]any
		if apperr.Is(err, apperr.KindCapacity) {
			extra = map[string]any{"spotsRemaining": 0}
		}
		writeErrorWith(w, r, err, extra)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":           res.User,
		"spotsRemaining": res.SpotsRemaining,
	})
}

// ==========================
// Validate (?token=)
// ==========================
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	user, err := h.Auth.Validate(r.Context(), queryToken(r))
	if err != nil {
		var extra map[string]any
		if apperr.Is(err, apperr.KindUnauthorized) {
			extra = map[string]any{"valid": false}
		}
		writeErrorWith(w, r, err, extra)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user":  models.PublicUser{ID: user.ID, Username: user.Username},
	})
}

// ==========================
// Spots (remaining registrations)
// ==========================
func (h *AuthHandler) Spots(w http.ResponseWriter, r *http.Request) {
	n, err := h.Auth.SpotsRemaining(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"spotsRemaining": n,
		"maxUsers":       h.Auth.MaxUsers(),
	})
}
