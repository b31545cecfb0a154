package response

import (
	"encoding/json"
	"net/http"
)

// Writer wraps an http.ResponseWriter for transport code that has to answer
// without a Response, such as a recovered panic or a health check.
type Writer struct {
	http.ResponseWriter
	committed bool
}

func NewWriter(w http.ResponseWriter) *Writer {
	return &Writer{ResponseWriter: w}
}

func (w *Writer) WriteHeader(status int) {
	w.committed = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *Writer) Write(b []byte) (int, error) {
	w.committed = true
	return w.ResponseWriter.Write(b)
}

func (w *Writer) IsCommitted() bool {
	return w.committed
}

func (w *Writer) JSON(status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (w *Writer) Text(status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(text))
}

// Error writes an error envelope with status and message, falling back to
// the status text.
func (w *Writer) Error(status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	w.JSON(status, Envelope{Error: &ErrorShape{Message: message, Status: status}})
}

func (w *Writer) InternalServerError() {
	w.JSON(http.StatusInternalServerError, Envelope{Error: defaultErrorShape()})
}
