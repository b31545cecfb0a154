package main

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/sjc5/dispatch/internal/demo"
	"github.com/sjc5/dispatch/pkg/config"
	"github.com/sjc5/dispatch/pkg/cryptoutil"
	"github.com/sjc5/dispatch/pkg/dispatch"
	"github.com/sjc5/dispatch/pkg/middleware/healthcheck"
	"github.com/sjc5/dispatch/pkg/middleware/metrics"
	"github.com/sjc5/dispatch/pkg/middleware/secureheaders"
	"github.com/sjc5/dispatch/pkg/middleware/tracing"
	"github.com/sjc5/dispatch/pkg/mux"
)

const (
	MetricsPath   = "/metrics"
	HeartbeatPath = "/ping"
)

// app is everything dispatchd builds from a config.
type app struct {
	cfg        *config.Config
	log        *slog.Logger
	dispatcher *dispatch.Dispatcher
	mux        *mux.Mux
	registry   *prometheus.Registry
	tracer     *sdktrace.TracerProvider
}

func newApp(cfg *config.Config, log *slog.Logger) (*app, error) {
	secrets := cfg.SessionSecrets
	if len(secrets) == 0 {
		b, err := cryptoutil.RandomBytes(cryptoutil.KeySize)
		if err != nil {
			return nil, err
		}
		secrets = []string{base64.StdEncoding.EncodeToString(b)}
		log.Warn("no session secrets configured, using an ephemeral one")
	}

	demoApp, err := demo.New(demo.Opts{Secrets: secrets})
	if err != nil {
		return nil, fmt.Errorf("failed to build endpoints: %w", err)
	}

	a := &app{cfg: cfg, log: log}

	opts := cfg.DispatchOptions(log)
	opts.Tasks = demoApp.Tasks
	if cfg.Metrics {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts.Observers = append(opts.Observers, metrics.New(metrics.WithRegistry(a.registry)))
	}
	if cfg.Tracing {
		a.tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(newLogSpanProcessor(log)))
		opts.Observers = append(opts.Observers, tracing.New(tracing.WithTracerProvider(a.tracer)))
	}

	a.dispatcher, err = dispatch.New(demoApp.Endpoints, opts)
	if err != nil {
		return nil, err
	}
	a.mux = mux.New(a.dispatcher, cfg.MuxOptions(log))
	return a, nil
}

// handler mounts the mux under chi with the transport middleware stack.
func (a *app) handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Heartbeat(HeartbeatPath))
	r.Use(healthcheck.Healthz)
	r.Use(secureheaders.Middleware)

	if a.registry != nil {
		r.Handle(MetricsPath, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	}
	r.Handle("/*", a.mux)
	return r
}
