package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gradlift/ranking-go/config"
	"github.com/gradlift/ranking-go/internal/domain/webhook"
	httpx "github.com/gradlift/ranking-go/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	var signer *webhook.Signer
	if appCfg.HTTP.IngestSecret != "" {
		s, err := webhook.NewSigner(appCfg.HTTP.IngestSecret, appCfg.HTTP.IngestSkewTolerance)
		if err != nil {
			logger.Error("invalid ingest signer configuration", "error", err)
		} else {
			signer = s
		}
	} else {
		logger.Warn("HTTP_INGEST_SECRET not set, score event ingestion disabled")
	}

	handler := httpx.NewRouter(httpx.RouterServices{
		Jobs:     cfg.Services.Jobs,
		Rankings: cfg.Services.Rankings,
		Rescore:  cfg.Services.Rescore,
		Signer:   signer,
		DB:       cfg.Services.DB,
		Queue:    cfg.Services.Queue,
		Cache:    cfg.Services.Cache,
		Logger:   logger,
	})

	// Start server (logs "starting HTTP server" internally)
	return startServer(logger, handler, appCfg.HTTP)
}

func startServer(logger *slog.Logger, handler http.Handler, cfg config.HTTPConfig) *http.Server {
	addr := cfg.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(cfg.Context, timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
