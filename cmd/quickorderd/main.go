// Quick-order sync daemon - keeps storefront quick-order pages, the live
// Shopify cart, and the per-customer saved snapshot in agreement.
// Designed for Cloud Run deployment.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Akshay-i95/quick-order-app/internal/compat"
	"github.com/Akshay-i95/quick-order-app/internal/config"
	"github.com/Akshay-i95/quick-order-app/internal/handler"
	"github.com/Akshay-i95/quick-order-app/internal/middleware"
	"github.com/Akshay-i95/quick-order-app/internal/session"
	"github.com/Akshay-i95/quick-order-app/internal/shopify"
)

// maxRequestBody caps sync request payloads; quantity edits and line
// reports are tiny, so anything larger is abuse.
const maxRequestBody = 64 << 10

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration first so the logger picks up the level.
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := initLogger(cfg)

	logger.Info("configuration loaded",
		slog.String("shop_id", cfg.ShopID),
		slog.String("environment", cfg.Environment),
		slog.String("store_domain", cfg.Shop.StoreDomain),
	)

	// Storefront cart client (AJAX cart API).
	cart, err := shopify.New(shopify.Config{
		StoreURL: cfg.Shop.StoreURL,
	})
	if err != nil {
		return fmt.Errorf("creating cart client: %w", err)
	}

	// Admin API client for the customer snapshot metafield.
	snapshots, err := shopify.NewMetafieldClient(shopify.MetafieldConfig{
		StoreURL:   cfg.Shop.StoreURL,
		AdminToken: cfg.Shop.AdminToken,
		APIVersion: cfg.Shop.APIVersion,
		Namespace:  cfg.Shop.SnapshotNamespace,
		Key:        cfg.Shop.SnapshotKey,
	})
	if err != nil {
		return fmt.Errorf("creating metafield client: %w", err)
	}

	sessions := session.NewManager(session.ManagerConfig{
		Cart:           cart,
		Snapshots:      snapshots,
		Logger:         logger,
		DebounceWindow: cfg.Engine.DebounceWindow(),
		SweepInterval:  cfg.Engine.SweepInterval(),
		IdleTTL:        cfg.Engine.SessionTTL(),
	})

	// Reap idle sessions in the background for the process lifetime.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sessions.Run(sweepCtx)

	h := handler.New(sessions, logger)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → logging → body cap → client header.
	// Recovery must be outermost to catch panics from logging middleware.
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.MaxBody(maxRequestBody),
		compat.Middleware(logger),
	)(mux)

	// WriteTimeout is 0 because the stream endpoint holds its connection
	// open; the other handlers respond in milliseconds regardless.
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     httpHandler,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests and in-flight flushes time to finish.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		stopSweep()
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
