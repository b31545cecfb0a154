// Package tracing opens an OpenTelemetry span around every dispatch.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sjc5/dispatch/pkg/dispatch"
	"github.com/sjc5/dispatch/pkg/response"
)

const defaultTracerName = "github.com/sjc5/dispatch"

const (
	AttrIdentifier = attribute.Key("dispatch.identifier")
	AttrMethod     = attribute.Key("dispatch.method")
	AttrPath       = attribute.Key("dispatch.path")
	AttrOutcome    = attribute.Key("dispatch.outcome")
	AttrStage      = attribute.Key("dispatch.stage")
	AttrStatus     = attribute.Key("dispatch.status")
	AttrGoURL      = attribute.Key("dispatch.go_url")
)

type Config struct {
	TracerName     string
	TracerProvider trace.TracerProvider
}

type Option func(*Config)

func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider overrides the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = tp
	}
}

// Observer implements dispatch.Observer.
type Observer struct {
	tracer trace.Tracer
}

func New(opts ...Option) *Observer {
	config := Config{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Observer{tracer: tp.Tracer(config.TracerName)}
}

func (o *Observer) DispatchStarted(ctx context.Context, req dispatch.Request) context.Context {
	ctx, _ = o.tracer.Start(ctx, "dispatch",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			AttrMethod.String(req.Method()),
			AttrPath.String(req.Path()),
		),
	)
	return ctx
}

func (o *Observer) DispatchFinished(ctx context.Context, info dispatch.Info) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	if info.Identifier != "" {
		span.SetName("dispatch " + info.Identifier)
	}
	res := info.Response
	span.SetAttributes(
		AttrIdentifier.String(info.Identifier),
		AttrOutcome.String(res.Kind().String()),
		AttrStage.String(info.Stage.String()),
		AttrStatus.Int(res.Status()),
	)

	switch res.Kind() {
	case response.KindGo:
		span.SetAttributes(AttrGoURL.String(res.GoURL()))
	case response.KindError:
		if res.Status() >= 500 {
			span.SetStatus(codes.Error, res.Err().Message)
		}
		if err, ok := res.Err().Cause.(error); ok && info.Errored {
			span.RecordError(err)
		}
	}
}
