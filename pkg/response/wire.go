package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Write is the one place a Response meets the transport. Every kind is
// handled here and nowhere else.
func (r *Response) Write(w http.ResponseWriter, goHeader string) error {
	if goHeader == "" {
		goHeader = DefaultGoHeader
	}

	if r != nil {
		for k, vs := range r.header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		for _, c := range r.cookies {
			http.SetCookie(w, c)
		}
	}

	switch r.Kind() {
	case KindData, KindError:
		return writeJSON(w, r.Status(), r.Envelope())
	case KindGo:
		w.Header().Set(goHeader, r.goURL)
		return writeJSON(w, http.StatusOK, r.Envelope())
	default:
		return writeJSON(w, http.StatusInternalServerError, Envelope{Error: defaultErrorShape()})
	}
}

func writeJSON(w http.ResponseWriter, status int, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		body, _ = json.Marshal(Envelope{Error: defaultErrorShape()})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, werr := w.Write(append(body, '\n'))
	if err != nil {
		return fmt.Errorf("error encoding envelope: %w", err)
	}
	return werr
}

type wireEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *ErrorShape     `json:"error"`
	Go    string          `json:"go"`
}

// Decode rebuilds a Response from a wire response. The Go header, when
// present, wins and the body is not read. Data comes back as
// json.RawMessage; use As to get a typed value.
func Decode(status int, header http.Header, body io.Reader, goHeader string) (*Response, error) {
	if goHeader == "" {
		goHeader = DefaultGoHeader
	}
	if target := header.Get(goHeader); target != "" {
		return Go(target), nil
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("error reading body: %w", err)
	}

	var env wireEnvelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("error decoding envelope: %w", err)
		}
	}

	var res *Response
	switch {
	case env.Error != nil:
		if env.Error.Status == 0 {
			env.Error.Status = status
		}
		res = Error(env.Error)
	case env.Go != "":
		res = Go(env.Go)
	case status >= http.StatusBadRequest:
		res = Error(&ErrorShape{Message: http.StatusText(status), Status: status})
	default:
		if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
			res = Data(env.Data)
		} else {
			res = Data(nil)
		}
		if status != http.StatusOK {
			res.WithStatus(status)
		}
	}

	for k, vs := range header {
		if k == "Content-Type" || k == "Content-Length" || k == "Set-Cookie" || k == "Date" {
			continue
		}
		for _, v := range vs {
			res.AddHeader(k, v)
		}
	}
	return res, nil
}

var ErrNotData = errors.New("response is not a data response")

// As returns the data of r as a T, whether r came from an in-process
// dispatch (typed value) or from Decode (raw JSON).
func As[T any](r *Response) (T, error) {
	var out T
	if r.Kind() != KindData {
		return out, fmt.Errorf("%w: %s", ErrNotData, r.Kind())
	}
	switch v := r.data.(type) {
	case nil:
		return out, nil
	case T:
		return v, nil
	case json.RawMessage:
		err := json.Unmarshal(v, &out)
		return out, err
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return out, err
		}
		err = json.Unmarshal(b, &out)
		return out, err
	}
}
