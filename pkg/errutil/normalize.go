package errutil

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sjc5/dispatch/pkg/colorlog"
	"github.com/sjc5/dispatch/pkg/response"
	"github.com/sjc5/dispatch/pkg/validate"
)

const ValidationMessage = "Validation failed"

type NormalizerOptions struct {
	// LogErrors logs every normalized error along with its cause and any
	// recovered stack. It never changes the envelope. Contract violations
	// are logged regardless.
	LogErrors      bool
	Logger         *slog.Logger
	DefaultMessage string
}

// Normalizer converts anything a dispatch stage can fail with (errors,
// recovered panic values, validation failures, redirect signals) into a
// Response.
type Normalizer struct {
	logErrors      bool
	log            *slog.Logger
	defaultMessage string
}

func NewNormalizer(opts NormalizerOptions) *Normalizer {
	n := &Normalizer{
		logErrors:      opts.LogErrors,
		log:            opts.Logger,
		defaultMessage: opts.DefaultMessage,
	}
	if n.log == nil {
		n.log = colorlog.New("errutil")
	}
	if n.defaultMessage == "" {
		n.defaultMessage = response.DefaultErrorMessage
	}
	return n
}

type statusCoder interface {
	HTTPStatus() int
}

type messager interface {
	Message() string
}

// Normalize applies, in order: redirect signal, validation failure, error
// message, plain string, default message.
func (n *Normalizer) Normalize(ctx context.Context, v any) *response.Response {
	if err, ok := v.(error); ok {
		if g, ok := response.AsGoSignal(err); ok {
			return response.Go(g.URL)
		}
	}

	shape, stack := n.shape(v)
	n.logShape(ctx, v, shape, stack)
	return response.Error(shape)
}

// Shape is Normalize without logging. It reports false for redirect
// signals, which have no error shape.
func (n *Normalizer) Shape(v any) (*response.ErrorShape, bool) {
	if err, ok := v.(error); ok {
		if _, ok := response.AsGoSignal(err); ok {
			return nil, false
		}
	}
	shape, _ := n.shape(v)
	return shape, true
}

func (n *Normalizer) shape(v any) (*response.ErrorShape, []byte) {
	shape := &response.ErrorShape{Cause: v}

	var stack []byte
	thrown := v
	if err, ok := v.(error); ok {
		var pe *PanicError
		if errors.As(err, &pe) {
			stack = pe.Stack
			thrown = pe.Value
		}
	}

	if err, ok := v.(error); ok && IsContractViolation(err) {
		shape.Message = n.defaultMessage
		shape.Status = http.StatusInternalServerError
		return shape, stack
	}

	switch t := thrown.(type) {
	case error:
		if ve, ok := validate.AsError(t); ok {
			shape.Message = ValidationMessage
			if len(ve.Fields) == 0 && ve.Message != "" {
				shape.Message = ve.Message
			}
			shape.FieldMessages = ve.Fields
			shape.Status = http.StatusBadRequest
			return shape, stack
		}
		shape.Message = t.Error()
		shape.Status = statusOf(t)
	case messager:
		shape.Message = t.Message()
		shape.Status = http.StatusInternalServerError
	case string:
		shape.Message = t
		shape.Status = http.StatusInternalServerError
	default:
		shape.Status = http.StatusInternalServerError
	}

	if shape.Message == "" {
		shape.Message = n.defaultMessage
	}
	return shape, stack
}

func statusOf(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		if s := sc.HTTPStatus(); s >= 400 && s <= 599 {
			return s
		}
	}
	return http.StatusInternalServerError
}

func (n *Normalizer) logShape(ctx context.Context, v any, shape *response.ErrorShape, stack []byte) {
	violation := false
	if err, ok := v.(error); ok {
		violation = IsContractViolation(err)
	}
	if !n.logErrors && !violation {
		return
	}

	attrs := []any{
		"status", shape.Status,
		"message", shape.Message,
	}
	if v != nil {
		attrs = append(attrs, "cause", v)
	}
	if len(shape.FieldMessages) > 0 {
		attrs = append(attrs, "fields", shape.FieldMessages)
	}
	if len(stack) > 0 {
		attrs = append(attrs, "stack", string(stack))
	}

	switch {
	case violation:
		n.log.ErrorContext(ctx, "contract violation", attrs...)
	case shape.Status >= 500:
		n.log.ErrorContext(ctx, "request failed", attrs...)
	default:
		n.log.WarnContext(ctx, "request failed", attrs...)
	}
}
