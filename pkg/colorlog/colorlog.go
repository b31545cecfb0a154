// Package colorlog provides a compact, colorized slog handler for
// development logs.
package colorlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	colorDebug = "\033[90m"
	colorInfo  = "\033[36m"
	colorWarn  = "\033[33m"
	colorError = "\033[31m"
	colorReset = "\033[0m"

	timeFormat = "2006/01/02 15:04:05"
)

type ColorLogHandler struct {
	mu     sync.Mutex
	output io.Writer
	label  string
	plain  bool
}

// New returns a logger writing to stdout. Color is on unless NO_COLOR is set.
func New(label string) *slog.Logger {
	_, noColor := os.LookupEnv("NO_COLOR")
	return slog.New(&ColorLogHandler{output: os.Stdout, label: label, plain: noColor})
}

// ForWriter returns a logger writing to w, with color only when w is a
// terminal.
func ForWriter(label string, w io.Writer) *slog.Logger {
	plain := true
	if f, ok := w.(*os.File); ok {
		plain = !term.IsTerminal(int(f.Fd()))
	}
	return slog.New(&ColorLogHandler{output: w, label: label, plain: plain})
}

func (h *ColorLogHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *ColorLogHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	sb.WriteString(r.Time.Format(timeFormat))
	sb.WriteByte(' ')
	sb.WriteString(h.paint(levelColor(r.Level), r.Level.String()))
	if h.label != "" {
		sb.WriteByte(' ')
		sb.WriteString(h.label)
	}
	sb.WriteByte(' ')
	sb.WriteString(r.Message)

	r.Attrs(func(a slog.Attr) bool {
		sb.WriteByte(' ')
		sb.WriteString(h.paint(colorDebug, "["))
		sb.WriteString(" " + a.Key)
		sb.WriteString(h.paint(colorDebug, "="))
		sb.WriteString(fmt.Sprint(a.Value.Resolve().Any()) + " ")
		sb.WriteString(h.paint(colorDebug, "]"))
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.output, sb.String())
	return err
}

func (h *ColorLogHandler) WithAttrs([]slog.Attr) slog.Handler {
	return h
}

func (h *ColorLogHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *ColorLogHandler) paint(color, s string) string {
	if h.plain {
		return s
	}
	return color + s + colorReset
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorError
	case level >= slog.LevelWarn:
		return colorWarn
	case level >= slog.LevelInfo:
		return colorInfo
	default:
		return colorDebug
	}
}
