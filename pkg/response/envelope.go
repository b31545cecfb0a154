// Package response defines the single result type every dispatch produces,
// the JSON envelope it is written as, and the header-carried redirect
// ("Go") protocol.
package response

import (
	"errors"
	"net/http"
)

// DefaultGoHeader carries the redirect target of a Go response. It is the
// authoritative signal: any layer that sees it navigates and ignores the body.
const DefaultGoHeader = "X-Dispatch-Go"

// DefaultErrorMessage is used whenever nothing more specific can be said.
const DefaultErrorMessage = "An unexpected error occurred"

type ErrorShape struct {
	Message       string              `json:"message"`
	Status        int                 `json:"status,omitempty"`
	FieldMessages map[string][]string `json:"fieldMessages,omitempty"`
	Cause         any                 `json:"-"`
}

type Envelope struct {
	Data  any         `json:"data,omitempty"`
	Error *ErrorShape `json:"error,omitempty"`
	Go    string      `json:"go,omitempty"`
}

// GoSignal lets code that can only return an error request a redirect. The
// error normalizer turns it into a Go response and never logs it.
type GoSignal struct {
	URL string
}

func (g *GoSignal) Error() string {
	return "go: " + g.URL
}

func Redirect(url string) error {
	return &GoSignal{URL: url}
}

func AsGoSignal(err error) (*GoSignal, bool) {
	var g *GoSignal
	if errors.As(err, &g) {
		return g, true
	}
	return nil, false
}

func defaultErrorShape() *ErrorShape {
	return &ErrorShape{Message: DefaultErrorMessage, Status: http.StatusInternalServerError}
}
