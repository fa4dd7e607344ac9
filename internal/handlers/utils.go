package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// writeJSON sends a success payload. payload fields are merged with "success": true.
func writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	out := map[string]any{"success": true}
	for k, v := range payload {
		out[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(out)
}

// decodeJSON reads the request body into v. An empty body leaves v unchanged.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeDecodeError answers a failed decodeJSON. Bodies cut off by MaxBytes get 413;
// anything else is a 400 with msg.
func writeDecodeError(w http.ResponseWriter, err error, msg string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		JSONError(w, fmt.Sprintf("Request body too large (limit %d bytes)", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		return
	}
	JSONError(w, msg, http.StatusBadRequest)
}

// bearerToken returns the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// queryToken returns the token query parameter, falling back to the Authorization header.
func queryToken(r *http.Request) string {
	if t := strings.TrimSpace(r.URL.Query().Get("token")); t != "" {
		return t
	}
	return bearerToken(r)
}
