package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fakegateway/internal/admin"
	"fakegateway/internal/cardpolicy"
	cchandler "fakegateway/internal/creditcard/handler"
	ccmetrics "fakegateway/internal/creditcard/metrics"
	ccservice "fakegateway/internal/creditcard/service"
	"fakegateway/internal/failure"
	"fakegateway/internal/platform/config"
	"fakegateway/internal/platform/health"
	"fakegateway/internal/platform/metrics"
	"fakegateway/internal/platform/tracer"
	"fakegateway/internal/registry"
	adminmw "fakegateway/pkg/platform/middleware/admin"
	request "fakegateway/pkg/platform/middleware/request"
)

// Dependencies are the process-wide objects the router wires into handlers.
type Dependencies struct {
	Config   config.Server
	Logger   *slog.Logger
	Registry *registry.Registry
	Policy   *cardpolicy.Policy
	Tracer   tracer.Tracer
	// Metrics receives every collector and backs /metrics. Each router needs
	// its own registry.
	Metrics *prometheus.Registry
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(deps Dependencies) http.Handler {
	cfg, logger := deps.Config, deps.Logger
	if deps.Tracer == nil {
		deps.Tracer = tracer.NewNoop()
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(logger))
	r.Use(request.LatencyMiddleware(request.NewMetricsWithRegisterer(deps.Metrics)))
	r.Use(request.Timeout(cfg.RequestTimeout))
	r.Use(request.BodyLimit(cfg.MaxBodyBytes))

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("registry", deps.Registry.Ping)
	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))

	cards := ccservice.New(deps.Registry, deps.Policy,
		ccservice.WithLogger(logger),
		ccservice.WithTracer(deps.Tracer),
		ccservice.WithMetrics(ccmetrics.NewWithRegisterer(deps.Metrics)),
		ccservice.WithFailureTemplate(FailureTemplate(cfg)),
	)
	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeXML)
		cchandler.New(cards, logger).Register(r)
	})

	fixtureMetrics := metrics.NewWithRegisterer(deps.Metrics)
	metrics.RegisterTableGauges(deps.Metrics, registry.Tables, func() map[string]int {
		return deps.Registry.Stats().Tables()
	})
	control := admin.NewService(deps.Registry, deps.Policy,
		admin.WithLogger(logger),
		admin.WithMetrics(fixtureMetrics),
	)
	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(cfg.AdminAPIToken, logger))
		admin.New(control, logger).Register(r)
	})

	return r
}

// FailureTemplate is the default decline with the configured overrides.
func FailureTemplate(cfg config.Server) failure.Template {
	t := failure.Default()
	if cfg.FailureMessage != "" {
		t.Message = cfg.FailureMessage
		t.ProcessorResponseText = cfg.FailureMessage
	}
	if cfg.FailureProcessorCode != "" {
		t.ProcessorResponseCode = cfg.FailureProcessorCode
	}
	return t
}
