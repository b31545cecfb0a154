// Package metrics records Prometheus metrics for every dispatch.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sjc5/dispatch/pkg/dispatch"
)

// UnmatchedLabel is the identifier label of requests that matched no
// endpoint. Raw paths are never used as labels.
const UnmatchedLabel = "unmatched"

type Config struct {
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels
	Buckets     []float64
	Registry    prometheus.Registerer
}

type Option func(*Config)

func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "dispatch",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Observer implements dispatch.Observer.
type Observer struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
}

func New(opts ...Option) *Observer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Observer{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "requests_total",
			Help:        "Total number of dispatched requests",
			ConstLabels: config.ConstLabels,
		}, []string{"identifier", "method", "outcome"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "duration_seconds",
			Help:        "Dispatch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"identifier"}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of dispatches that errored, by last stage reached",
			ConstLabels: config.ConstLabels,
		}, []string{"identifier", "stage"}),
	}
}

func (o *Observer) DispatchStarted(ctx context.Context, _ dispatch.Request) context.Context {
	return ctx
}

func (o *Observer) DispatchFinished(_ context.Context, info dispatch.Info) {
	identifier := info.Identifier
	if identifier == "" {
		identifier = UnmatchedLabel
	}
	o.requestsTotal.WithLabelValues(identifier, info.Method, info.Response.Kind().String()).Inc()
	o.requestDuration.WithLabelValues(identifier).Observe(info.Duration.Seconds())
	if info.Errored {
		o.errorsTotal.WithLabelValues(identifier, info.Stage.String()).Inc()
	}
}
