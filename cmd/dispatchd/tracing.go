package main

import (
	"context"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// logSpanProcessor writes every ended span to the log at debug level.
type logSpanProcessor struct {
	log *slog.Logger
}

func newLogSpanProcessor(log *slog.Logger) sdktrace.SpanProcessor {
	return &logSpanProcessor{log: log}
}

func (p *logSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *logSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	attrs := []any{
		"trace_id", s.SpanContext().TraceID().String(),
		"duration", s.EndTime().Sub(s.StartTime()),
	}
	for _, kv := range s.Attributes() {
		attrs = append(attrs, string(kv.Key), kv.Value.Emit())
	}
	p.log.Debug(s.Name(), attrs...)
}

func (p *logSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *logSpanProcessor) ForceFlush(context.Context) error { return nil }
