package handlers

import (
	"context"
	"net/http"

	"github.com/crucial707/brewlog/internal/models"
)

// CoffeeAnalyzer extracts label data from a base64 image.
type CoffeeAnalyzer interface {
	Analyze(ctx context.Context, imageData, mediaType string) (*models.CoffeeLabel, error)
}

// ==========================
// AnalyzeHandler
// ==========================
type AnalyzeHandler struct {
	Analyzer CoffeeAnalyzer
}

// ==========================
// Analyze Coffee (base64 photo -> label fields)
// ==========================
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ImageData string `json:"imageData"`
		MediaType string `json:"mediaType"`
	}

	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, err, "invalid json")
		return
	}

	label, err := h.Analyzer.Analyze(r.Context(), input.ImageData, input.MediaType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": label})
}
