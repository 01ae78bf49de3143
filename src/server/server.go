package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	logger "github.com/sirupsen/logrus"

	"riskengine/src/handler"
	"riskengine/src/model"
	"riskengine/src/risk"
	"riskengine/src/service"
)

// API is everything the HTTP surface needs from the risk service.
type API interface {
	Validate(ctx context.Context, signal model.Signal) (model.RiskCheckResult, error)
	Status(ctx context.Context, accountID uint) (model.RiskStatus, error)
	EmergencyStop(ctx context.Context, reason string) error
	Resume(ctx context.Context, operator string) error
	Stats() risk.Stats
	State() risk.State
	RecentEvents(ctx context.Context, accountID uint, limit int) ([]model.RiskEvent, error)
	Performance(ctx context.Context, accountID uint, lookback time.Duration) (*service.PerformanceReport, error)
}

// NewRouter mounts the risk and performance routes. A nil telemetry handler
// leaves the websocket path unmounted.
func NewRouter(api API, telemetryPath string, telemetry http.Handler) http.Handler {
	r := chi.NewRouter()
	// === Global Middleware ===
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error(" \"/health error")
		}
	})

	r.Route("/risk", func(r chi.Router) {
		r.Post("/validate", handler.ValidateHandler(api))
		r.Get("/status/{accountID}", handler.StatusHandler(api))
		r.Post("/emergency-stop", handler.EmergencyStopHandler(api))
		r.Post("/resume", handler.ResumeHandler(api))
		r.Get("/stats", handler.StatsHandler(api))
		r.Get("/events", handler.EventsHandler(api))
	})
	r.Get("/performance/{accountID}", handler.PerformanceHandler(api))

	if telemetry != nil && telemetryPath != "" {
		r.Handle(telemetryPath, telemetry)
	}
	return r
}

// StartServer serves h on port until SIGINT or SIGTERM, then drains in-flight
// requests for at most shutdownTimeout.
func StartServer(port string, h http.Handler, shutdownTimeout time.Duration) {
	// Server setup
	addr := ":" + port
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
