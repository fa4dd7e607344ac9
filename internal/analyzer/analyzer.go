// Package analyzer extracts structured coffee-label data from a photo using an
// external vision model.
package analyzer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/crucial707/brewlog/internal/apperr"
	"github.com/crucial707/brewlog/internal/metrics"
	"github.com/crucial707/brewlog/internal/models"
	"github.com/crucial707/brewlog/internal/textjson"
)

const (
	DefaultMediaType = "image/jpeg"

	// genericFailure is the only failure message clients see for upstream and parse errors.
	genericFailure = "Failed to analyze image"
)

// Prompt is the fixed instruction sent with every photo.
const Prompt = `You are looking at a photo of a specialty coffee bag or label.
Extract the following information and respond with ONLY a JSON object, no other text:
{
  "name": "coffee name or farm/lot name",
  "origin": "country and region of origin",
  "process": "processing method (washed, natural, honey, anaerobic, ...)",
  "cultivar": "coffee variety or varieties",
  "altitude": "growing altitude in meters, digits only",
  "roaster": "roaster or brand name",
  "tastingNotes": "tasting notes, comma separated"
}
If a field is not visible on the label, use an empty string for it.`

var supportedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Field defaults applied when the model omits a value.
var defaults = map[string]string{
	"name":         "Unknown",
	"origin":       "Unknown",
	"process":      "washed",
	"cultivar":     "Unknown",
	"altitude":     "1500",
	"roaster":      "Unknown",
	"tastingNotes": "Unknown",
}

// Analyzer turns a base64 photo into a CoffeeLabel.
type Analyzer struct {
	client VisionClient
	now    func() time.Time
}

// New returns an Analyzer. client may be nil when no API key is configured, in
// which case every analysis fails with an upstream error.
func New(client VisionClient) *Analyzer {
	return &Analyzer{client: client, now: time.Now}
}

// Analyze sends imageData (base64, optionally a data: URL) to the vision model and
// parses the reply. Upstream and parse failures carry a generic message only.
func (a *Analyzer) Analyze(ctx context.Context, imageData, mediaType string) (*models.CoffeeLabel, error) {
	imageData, mediaType = splitDataURL(strings.TrimSpace(imageData), strings.TrimSpace(mediaType))
	if imageData == "" {
		metrics.IncAnalyze("bad_request")
		return nil, apperr.BadRequest("No image data provided")
	}
	if mediaType == "" {
		mediaType = DefaultMediaType
	}
	mediaType = strings.ToLower(mediaType)
	if !supportedMediaTypes[mediaType] {
		metrics.IncAnalyze("bad_request")
		return nil, apperr.BadRequest("Unsupported media type: " + mediaType)
	}

	if a.client == nil {
		metrics.IncAnalyze("upstream")
		slog.Error("analyze called without a configured vision client")
		return nil, apperr.Upstream(genericFailure, nil)
	}

	start := time.Now()
	text, err := a.client.DescribeImage(ctx, Prompt, mediaType, imageData)
	metrics.ObserveAnalyzeUpstream(time.Since(start).Seconds())
	if err != nil {
		metrics.IncAnalyze("upstream")
		slog.Error("vision model call failed", "error", err)
		return nil, apperr.Upstream(genericFailure, err)
	}

	var fields map[string]any
	if err := textjson.Decode(text, &fields); err != nil {
		metrics.IncAnalyze("parse")
		slog.Error("could not parse vision model reply", "error", err, "reply_len", len(text))
		return nil, apperr.Parse(genericFailure, err)
	}

	metrics.IncAnalyze("ok")
	return &models.CoffeeLabel{
		Name:         field(fields, "name"),
		Origin:       field(fields, "origin"),
		Process:      field(fields, "process"),
		Cultivar:     field(fields, "cultivar"),
		Altitude:     field(fields, "altitude"),
		Roaster:      field(fields, "roaster"),
		TastingNotes: field(fields, "tastingNotes"),
		AddedDate:    a.now().UTC().Format(time.RFC3339),
	}, nil
}

// field returns fields[key] as a string, or the default when absent or empty.
func field(fields map[string]any, key string) string {
	if s := stringify(fields[key]); s != "" {
		return s
	}
	return defaults[key]
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// splitDataURL accepts "data:image/png;base64,AAAA" and returns the payload and
// its media type. An explicit mediaType wins over the one in the URL.
func splitDataURL(data, mediaType string) (string, string) {
	if !strings.HasPrefix(data, "data:") {
		return data, mediaType
	}
	header, payload, ok := strings.Cut(data, ",")
	if !ok {
		return "", mediaType
	}
	if mediaType == "" {
		mt := strings.TrimPrefix(header, "data:")
		mt, _, _ = strings.Cut(mt, ";")
		mediaType = mt
	}
	return payload, mediaType
}
