// Package contextutil stores typed values in a context.Context under a
// private key.
package contextutil

import (
	"context"
	"net/http"
)

type Store[T any] struct {
	key keyWrapper
}

type keyWrapper struct {
	name string
}

func NewStore[T any](key string) *Store[T] {
	return &Store[T]{key: keyWrapper{name: key}}
}

func (s *Store[T]) WithValue(ctx context.Context, val T) context.Context {
	return context.WithValue(ctx, s.key, val)
}

// Get returns the stored value, or the zero T when none is present.
func (s *Store[T]) Get(ctx context.Context) T {
	val, _ := s.Lookup(ctx)
	return val
}

func (s *Store[T]) Lookup(ctx context.Context) (T, bool) {
	val, ok := ctx.Value(s.key).(T)
	return val, ok
}

func (s *Store[T]) GetRequestWithValue(r *http.Request, val T) *http.Request {
	return r.WithContext(s.WithValue(r.Context(), val))
}
