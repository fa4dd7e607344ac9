package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crucial707/brewlog/internal/apperr"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// JSONError sends the error envelope {"success": false, "error": message}.
func JSONError(w http.ResponseWriter, message string, status int) {
	JSONErrorWith(w, message, status, nil)
}

// JSONErrorWith sends the error envelope plus extra top-level fields.
func JSONErrorWith(w http.ResponseWriter, message string, status int, extra map[string]any) {
	out := map[string]any{"success": false, "error": message}
	for k, v := range extra {
		out[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(out)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation, apperr.KindBadRequest, apperr.KindMissingToken:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindCapacity:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError reports err to the client. Errors without a client-safe message are
// logged and answered with ErrMessageInternal.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorWith(w, r, err, nil)
}

func writeErrorWith(w http.ResponseWriter, r *http.Request, err error, extra map[string]any) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)

	msg := ErrMessageInternal
	var e *apperr.Error
	if errors.As(err, &e) && e.Message != "" {
		msg = e.Message
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"kind", kind.String(),
			"error", err)
	}
	JSONErrorWith(w, msg, status, extra)
}
