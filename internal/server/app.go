// Package server builds the relay's dependencies and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/summary-relay/internal/api"
	"github.com/JakeFAU/summary-relay/internal/config"
	"github.com/JakeFAU/summary-relay/internal/id/uuid"
	"github.com/JakeFAU/summary-relay/internal/logging"
	"github.com/JakeFAU/summary-relay/internal/submission"
	"github.com/JakeFAU/summary-relay/internal/telemetry"
	"github.com/JakeFAU/summary-relay/internal/webhook"
)

// App contains the application's dependencies.
type App struct {
	cfg            *config.Config
	logger         *zap.Logger
	service        *submission.Service
	apiServer      *api.Server
	tracerShutdown func(context.Context) error
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development, cfg.App.Name)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return build(ctx, cfg, logger)
}

func build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{cfg: cfg, logger: logger}

	var tracer *telemetry.Tracer
	if cfg.Telemetry.Enabled {
		tp, err := telemetry.InitTracerProvider(ctx, cfg.App.Name, cfg.App.Version)
		if err != nil {
			return nil, fmt.Errorf("tracer init failed: %w", err)
		}
		app.tracerShutdown = tp.Shutdown
		tracer = telemetry.NewTracer(tp)
	}

	// Only presence is logged; the URL itself can embed a secret path.
	logger.Info("building application dependencies",
		zap.Int("port", cfg.Server.Port),
		zap.Bool("webhook_configured", cfg.WebhookConfigured()),
		zap.Bool("strict_status", cfg.Downstream.StrictStatus),
		zap.Duration("downstream_timeout", cfg.DownstreamTimeout()),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
	)
	if !cfg.WebhookConfigured() {
		logger.Warn("no downstream webhook configured; submissions will fail until one is set")
	}

	app.service = submission.NewService(
		submission.Config{
			WebhookURL:   cfg.Downstream.WebhookURL,
			StrictStatus: cfg.Downstream.StrictStatus,
		},
		webhook.NewClient(cfg.DownstreamTimeout(), cfg.Downstream.UserAgent),
		uuid.New(),
		tracer,
		logger.Named("submission"),
	)
	app.apiServer = api.NewServer(app.service, *cfg, logger.Named("api"))
	return app, nil
}

// Service exposes the submission service for one-shot CLI use.
func (a *App) Service() *submission.Service {
	return a.service
}

// Handler returns the HTTP handler serving the relay API.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run starts the HTTP server and blocks until ctx is canceled or a
// termination signal arrives, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", a.cfg.Server.Port, err)
	}
	return a.serve(ctx, ln)
}

func (a *App) serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: seconds(a.cfg.Server.ReadHeaderTimeoutSeconds, 5),
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), seconds(a.cfg.Server.ShutdownTimeoutSeconds, 10))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	closeErr := a.Close(shutdownCtx)

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
		return closeErr
	}
}

// Close flushes telemetry and logs. It is safe to call more than once.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}
	// Sync on stdout/stderr returns EINVAL on some platforms; it is not fatal.
	_ = a.logger.Sync()
	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}
