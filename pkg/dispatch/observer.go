package dispatch

import (
	"context"
	"time"

	"github.com/sjc5/dispatch/pkg/response"
)

type Stage uint8

const (
	StageUnmatched Stage = iota
	StageMatched
	StageValidated
	StageIntercepted
	StageResolved
	StageResponded
	StageErrored
)

func (s Stage) String() string {
	switch s {
	case StageUnmatched:
		return "unmatched"
	case StageMatched:
		return "matched"
	case StageValidated:
		return "validated"
	case StageIntercepted:
		return "intercepted"
	case StageResolved:
		return "resolved"
	case StageResponded:
		return "responded"
	case StageErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Observer is told when a dispatch starts and finishes. The context returned
// by DispatchStarted becomes the request context, so an Observer may attach
// values such as a trace span. Observers never change the response.
type Observer interface {
	DispatchStarted(ctx context.Context, req Request) context.Context
	DispatchFinished(ctx context.Context, info Info)
}

type Info struct {
	Identifier string
	Method     string
	// Stage is the last stage reached before the request was responded to
	// or errored.
	Stage    Stage
	Errored  bool
	Response *response.Response
	Duration time.Duration
}
