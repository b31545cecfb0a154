package response

import (
	"fmt"
	"net/http"
)

type Kind uint8

const (
	KindInvalid Kind = iota
	KindData
	KindError
	KindGo
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindError:
		return "error"
	case KindGo:
		return "go"
	default:
		return "invalid"
	}
}

// Response is a tagged union of Data, Error and Go. The zero value is
// invalid, and so is a nil *Response.
type Response struct {
	kind    Kind
	status  int
	data    any
	err     *ErrorShape
	goURL   string
	header  http.Header
	cookies []*http.Cookie
}

func Data(v any) *Response {
	return &Response{kind: KindData, data: v}
}

func Error(shape *ErrorShape) *Response {
	return &Response{kind: KindError, err: shape}
}

// Errorf builds an Error response with the given status and message.
func Errorf(status int, format string, args ...any) *Response {
	return Error(&ErrorShape{Message: fmt.Sprintf(format, args...), Status: status})
}

// Go builds a redirect response. Whatever status is requested later, it is
// written as 200 with the target in the Go header.
func Go(url string) *Response {
	return &Response{kind: KindGo, goURL: url}
}

func (r *Response) Kind() Kind {
	if r == nil {
		return KindInvalid
	}
	return r.kind
}

func (r *Response) Valid() bool {
	if r == nil {
		return false
	}
	switch r.kind {
	case KindData:
		return true
	case KindError:
		return r.err != nil
	case KindGo:
		return r.goURL != ""
	default:
		return false
	}
}

func (r *Response) Status() int {
	switch r.Kind() {
	case KindData:
		if r.status != 0 {
			return r.status
		}
		return http.StatusOK
	case KindError:
		if r.err != nil && r.err.Status != 0 {
			return r.err.Status
		}
		if r.status != 0 {
			return r.status
		}
		return http.StatusInternalServerError
	case KindGo:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// WithStatus overrides the status of a Data or Error response. It has no
// effect on Go responses.
func (r *Response) WithStatus(status int) *Response {
	r.status = status
	if r.kind == KindError && r.err != nil {
		r.err.Status = status
	}
	return r
}

func (r *Response) Value() any {
	if r.Kind() != KindData {
		return nil
	}
	return r.data
}

func (r *Response) Err() *ErrorShape {
	if r.Kind() != KindError {
		return nil
	}
	return r.err
}

func (r *Response) GoURL() string {
	if r.Kind() != KindGo {
		return ""
	}
	return r.goURL
}

func (r *Response) Header() http.Header {
	if r.header == nil {
		r.header = make(http.Header)
	}
	return r.header
}

func (r *Response) SetHeader(key, value string) *Response {
	r.Header().Set(key, value)
	return r
}

func (r *Response) AddHeader(key, value string) *Response {
	r.Header().Add(key, value)
	return r
}

func (r *Response) SetCookie(cookie *http.Cookie) *Response {
	r.cookies = append(r.cookies, cookie)
	return r
}

func (r *Response) Cookies() []*http.Cookie {
	return r.cookies
}

// Envelope returns the wire body for r.
func (r *Response) Envelope() Envelope {
	switch r.Kind() {
	case KindData:
		return Envelope{Data: r.data}
	case KindError:
		shape := *r.err
		shape.Status = r.Status()
		return Envelope{Error: &shape}
	case KindGo:
		return Envelope{Go: r.goURL}
	default:
		return Envelope{Error: defaultErrorShape()}
	}
}

func (r *Response) String() string {
	switch r.Kind() {
	case KindData:
		return fmt.Sprintf("data(%d)", r.Status())
	case KindError:
		return fmt.Sprintf("error(%d: %s)", r.Status(), r.err.Message)
	case KindGo:
		return "go(" + r.goURL + ")"
	default:
		return "invalid"
	}
}
