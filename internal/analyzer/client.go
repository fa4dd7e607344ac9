package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL    = "https://api.anthropic.com"
	DefaultMaxTokens  = 1024
	DefaultMaxRetries = 2
)

// ErrNoText is returned when the upstream reply contains no text block.
var ErrNoText = errors.New("response contains no text content")

// VisionClient sends one image plus an instruction to a vision-capable model
// and returns the model's text reply.
type VisionClient interface {
	DescribeImage(ctx context.Context, prompt, mediaType, base64Data string) (string, error)
}

// UpstreamStatusError is a non-2xx reply from the model API. Message is the
// upstream explanation and must only be logged.
type UpstreamStatusError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *UpstreamStatusError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("anthropic error (status %d, %s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("anthropic error (status %d): %s", e.StatusCode, e.Message)
}

// AnthropicConfig configures AnthropicClient.
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	// MaxRetries is passed to the SDK; zero disables retries.
	MaxRetries int
}

// AnthropicClient calls the Messages API through the official SDK.
type AnthropicClient struct {
	cfg    AnthropicConfig
	client anthropic.Client
}

func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &AnthropicClient{
		cfg: cfg,
		client: anthropic.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
			option.WithRequestTimeout(cfg.Timeout),
			option.WithMaxRetries(cfg.MaxRetries),
		),
	}
}

// DescribeImage sends the image followed by prompt and returns the first text block of the reply.
func (c *AnthropicClient) DescribeImage(ctx context.Context, prompt, mediaType, base64Data string) (string, error) {
	slog.Debug("sending image to anthropic", "model", c.cfg.Model, "media_type", mediaType, "bytes", len(base64Data))

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mediaType, base64Data),
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	if err != nil {
		return "", upstreamError(err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", ErrNoText
}

// upstreamError turns an SDK status error into *UpstreamStatusError. Transport
// errors are wrapped as they are.
func upstreamError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("anthropic request: %w", err)
	}
	e := &UpstreamStatusError{StatusCode: apiErr.StatusCode}
	if raw := apiErr.RawJSON(); gjson.Valid(raw) {
		e.Type = gjson.Get(raw, "error.type").String()
		e.Message = gjson.Get(raw, "error.message").String()
	}
	if e.Message == "" {
		e.Message = apiErr.Error()
	}
	return e
}
