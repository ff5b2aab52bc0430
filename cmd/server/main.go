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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"fakegateway/internal/cardpolicy"
	"fakegateway/internal/platform/config"
	"fakegateway/internal/platform/logger"
	"fakegateway/internal/platform/tracer"
	"fakegateway/internal/registry"
	"fakegateway/internal/seeder"
	httptransport "fakegateway/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Gateway behavior lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy := cardpolicy.New(cardpolicy.Settings{
		DeclineAll: cfg.DeclineAllCards,
		VerifyAll:  cfg.VerifyAllCards,
	}, cfg.ValidCreditCards)
	store := registry.New()

	log.Info("initializing fake gateway",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"policy_mode", policy.Settings().Mode(),
		"valid_cards", len(cfg.ValidCreditCards),
		"admin_token_set", cfg.AdminAPIToken != "",
	)

	if cfg.SeedDemoData {
		if err := seeder.New(store, store, log).SeedAll(ctx); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := httptransport.NewRouter(httptransport.Dependencies{
		Config:   cfg,
		Logger:   log,
		Registry: store,
		Policy:   policy,
		Tracer:   tracer.NewOTel(),
		Metrics:  reg,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		// Writes may take as long as the request timeout plus encoding.
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
