package validate

import (
	"context"
	"io"
	"net/url"
)

// PathFunc, QueryFunc and BodyFunc are the adapter boundary: each takes the
// raw input for one parameter group and returns the typed value, or an
// *Error. Any other error is treated by callers as a programming mistake.
type (
	PathFunc  func(ctx context.Context, params map[string]string) (any, error)
	QueryFunc func(ctx context.Context, query url.Values) (any, error)
	BodyFunc  func(ctx context.Context, body io.Reader) (any, error)
)

// Path decodes path params into a T and validates it.
func Path[T any](v *Validate) PathFunc {
	return func(_ context.Context, params map[string]string) (any, error) {
		var dst T
		if err := v.ParamsInto(params, &dst); err != nil {
			return nil, err
		}
		return dst, nil
	}
}

// Query decodes query values into a T and validates it.
func Query[T any](v *Validate) QueryFunc {
	return func(_ context.Context, query url.Values) (any, error) {
		var dst T
		if err := v.URLValuesInto(query, &dst); err != nil {
			return nil, err
		}
		return dst, nil
	}
}

// JSONBody decodes a JSON body into a T and validates it.
func JSONBody[T any](v *Validate) BodyFunc {
	return func(_ context.Context, body io.Reader) (any, error) {
		var dst T
		if err := v.JSONBodyInto(body, &dst); err != nil {
			return nil, err
		}
		return dst, nil
	}
}
