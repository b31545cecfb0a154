package errutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Maybe wraps err with msg, passing nil through.
func Maybe(msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

var (
	ErrNotFound         = &StatusError{Status: http.StatusNotFound, Message: "Not Found"}
	ErrMethodNotAllowed = &StatusError{Status: http.StatusMethodNotAllowed, Message: "Method Not Allowed"}
)

// StatusError is an application error that knows its HTTP status.
type StatusError struct {
	Status  int
	Message string
	Cause   error
}

func New(status int, message string) *StatusError {
	return &StatusError{Status: status, Message: message}
}

func Wrap(status int, message string, cause error) *StatusError {
	return &StatusError{Status: status, Message: message, Cause: cause}
}

func (e *StatusError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *StatusError) Unwrap() error {
	return e.Cause
}

func (e *StatusError) HTTPStatus() int {
	return e.Status
}

// PanicError carries a value recovered from a panic along with the stack at
// the point of recovery.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	switch v := e.Value.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprintf("panic: %v", v)
	}
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ContractViolation marks a programming error: a stage returned something
// that is not a valid result. It is always logged and never shown on the
// wire beyond a generic message.
type ContractViolation struct {
	Stage  string
	Detail string
	Cause  error
}

func (e *ContractViolation) Error() string {
	msg := "contract violation in " + e.Stage + ": " + e.Detail
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ContractViolation) Unwrap() error {
	return e.Cause
}

func IsContractViolation(err error) bool {
	var cv *ContractViolation
	return errors.As(err, &cv)
}
