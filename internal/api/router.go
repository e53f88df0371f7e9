package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hackgods/practice-calendar/internal/appointment"
	"github.com/hackgods/practice-calendar/internal/metrics"
)

var errNotConfigured = errors.New("not configured")

type RouterConfig struct {
	Service  *appointment.Service
	Postgres Pinger
	Redis    Pinger
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger, cfg.Metrics))
	r.Use(middleware.Recoverer)

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	svc := cfg.Service

	r.Get("/calendar/settings", calendarSettingsHandler(svc))

	r.Route("/practitioners/{practitionerID}/days/{date}", func(r chi.Router) {
		r.Get("/", dayViewHandler(svc))
		r.Get("/slots", slotsHandler(svc))
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", bookAppointmentHandler(svc))
		r.Get("/{id}", getAppointmentHandler(svc))
		r.Post("/{id}/status", changeStatusHandler(svc))
		r.Post("/{id}/reschedule", rescheduleHandler(svc))
	})

	r.Route("/time-blocks", func(r chi.Router) {
		r.Post("/", createTimeBlocksHandler(svc))
		r.Put("/{id}", updateTimeBlockHandler(svc))
		r.Delete("/{id}", deleteTimeBlockHandler(svc))
	})

	r.Route("/series", func(r chi.Router) {
		r.Post("/", createSeriesHandler(svc))
		r.Get("/{id}", getSeriesHandler(svc))
	})

	return r
}
