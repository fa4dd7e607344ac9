package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/brewlog/internal/analyzer"
	"github.com/crucial707/brewlog/internal/config"
	"github.com/crucial707/brewlog/internal/db"
	"github.com/crucial707/brewlog/internal/scheduler"
)

func main() {

	// Load configuration
	cfg := config.Load()
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the store FIRST; nothing can be served without it
	store, err := db.OpenStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var vision analyzer.VisionClient
	if cfg.AnthropicAPIKey != "" {
		vision = analyzer.NewAnthropicClient(analyzer.AnthropicConfig{
			APIKey:     cfg.AnthropicAPIKey,
			BaseURL:    cfg.AnthropicBaseURL,
			Model:      cfg.AnthropicModel,
			MaxTokens:  cfg.AnthropicMaxTokens,
			Timeout:    cfg.AnthropicTimeout,
			MaxRetries: cfg.AnthropicMaxRetries,
		})
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set; /api/analyze-coffee will fail")
	}

	handler, lim := newRouter(cfg, store, vision)

	go func() {
		if err := scheduler.Run(ctx, scheduler.DefaultSweepSpec, lim.sweepers()...); err != nil {
			slog.Error("scheduler failed", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Analyze calls can take the upstream timeout once per attempt.
		WriteTimeout: time.Duration(cfg.AnthropicMaxRetries+1)*cfg.AnthropicTimeout + 15*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", cfg.Port, "env", cfg.Env, "tls", cfg.TLSCertFile != "")
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
