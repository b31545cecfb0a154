// Package validate turns raw request input (path params, query values, JSON
// bodies) into typed, validated values. Every failure it reports is an
// *Error carrying per-field messages.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate wraps a go-playground validator configured to report fields by
// their JSON names.
type Validate struct {
	Instance *validator.Validate
}

const ValidationErrorPrefix = "validation error: "

var ErrValidation = errors.New("validation failed")

type FieldMessages = map[string][]string

// Error is the one failure shape a validator may produce.
type Error struct {
	Message string
	Fields  FieldMessages
	cause   error
}

func NewError(message string, fields FieldMessages) *Error {
	return &Error{Message: message, Fields: fields}
}

// Add appends a message for field.
func (e *Error) Add(field, message string) *Error {
	if e.Fields == nil {
		e.Fields = make(FieldMessages)
	}
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(ValidationErrorPrefix)
	sb.WriteString(e.Message)

	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i == 0 {
				sb.WriteString(": ")
			} else {
				sb.WriteString("; ")
			}
			sb.WriteString(k + " " + strings.Join(e.Fields[k], ", "))
		}
	}
	if e.cause != nil {
		sb.WriteString(" (" + e.cause.Error() + ")")
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return ErrValidation
}

func (e *Error) HTTPStatus() int {
	return http.StatusBadRequest
}

// Cause returns the decoding error behind e, if any.
func (e *Error) Cause() error {
	return e.cause
}

func IsValidationError(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

func AsError(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func New() *Validate {
	instance := validator.New(validator.WithRequiredStructEnabled())
	instance.RegisterTagNameFunc(jsonFieldName)
	return &Validate{Instance: instance}
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}

// Struct validates destStructPtr against its `validate` tags.
func (v *Validate) Struct(destStructPtr any) error {
	err := v.Instance.Struct(destStructPtr)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return &Error{Message: "invalid validation target", cause: err}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Error{Message: "validation failed", cause: err}
	}

	out := &Error{Message: "validation failed"}
	for _, fe := range fieldErrs {
		out.Add(fieldPath(fe), fieldMessage(fe))
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace, leaving the
// dotted JSON path of the field.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	param := fe.Param()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required", "required_if", "required_unless", "required_with", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", param)
		}
		return "must be at least " + param
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", param)
		}
		return "must be at most " + param
	case "len":
		if isString {
			return fmt.Sprintf("must be exactly %s characters", param)
		}
		return "must have length " + param
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "gt":
		return "must be greater than " + param
	case "lt":
		return "must be less than " + param
	case "alphanum":
		return "must contain only letters and digits"
	case "numeric":
		return "must be numeric"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}

// JSONBodyInto decodes a JSON body into destStructPtr and validates it. An
// empty body decodes as an empty object.
func (v *Validate) JSONBodyInto(body io.Reader, destStructPtr any) error {
	if body == nil {
		return v.Struct(destStructPtr)
	}
	dec := json.NewDecoder(body)
	if err := dec.Decode(destStructPtr); err != nil && !errors.Is(err, io.EOF) {
		return decodeError(err)
	}
	if dec.More() {
		return decodeError(errors.New("unexpected data after top-level value"))
	}
	return v.Struct(destStructPtr)
}

// JSONBytesInto decodes JSON data into destStructPtr and validates it.
func (v *Validate) JSONBytesInto(data []byte, destStructPtr any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return v.Struct(destStructPtr)
	}
	if err := json.Unmarshal(data, destStructPtr); err != nil {
		return decodeError(err)
	}
	return v.Struct(destStructPtr)
}

func (v *Validate) JSONStrInto(data string, destStructPtr any) error {
	return v.JSONBytesInto([]byte(data), destStructPtr)
}

// URLValuesInto decodes query-style values into destStructPtr and validates
// it. Nested structs read dotted keys ("address.city").
func (v *Validate) URLValuesInto(values url.Values, destStructPtr any) error {
	if err := parseURLValues(values, destStructPtr); err != nil {
		return err
	}
	return v.Struct(destStructPtr)
}

// ParamsInto decodes matched path params into destStructPtr and validates it.
func (v *Validate) ParamsInto(params map[string]string, destStructPtr any) error {
	values := make(url.Values, len(params))
	for k, val := range params {
		values[k] = []string{val}
	}
	return v.URLValuesInto(values, destStructPtr)
}

// URLSearchParamsInto parses the query string of r into destStructPtr and
// validates it.
func (v *Validate) URLSearchParamsInto(r *http.Request, destStructPtr any) error {
	return v.URLValuesInto(r.URL.Query(), destStructPtr)
}

func decodeError(err error) *Error {
	out := &Error{Message: "error decoding JSON", cause: err}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		out.Add(typeErr.Field, "must be of type "+typeErr.Type.String())
	}
	return out
}
