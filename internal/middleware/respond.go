package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes the API error envelope. It mirrors handlers.JSONError
// without importing the handlers package.
func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
}
