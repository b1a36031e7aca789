// Package logging wraps log/slog with a handler that writes structured
// lines to a configured destination and mirrors every record above debug
// level (and debug records too in debug mode) to stderr, the shape the
// teacher corpus's own logger wrapper uses.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler writes slog records as a single joined line ("time level msg
// attr attr...") to an underlying writer, additionally echoing to
// stderr whenever debug mode is on or the record is above debug level.
type Handler struct {
	out   io.Writer
	inner slog.Handler
	mu    *sync.Mutex
	debug bool
}

// NewHandler returns a Handler writing to w at the given level. A nil w
// disables file output; records still reach stderr per the debug/level
// rule in Handle.
func NewHandler(w io.Writer, opts *slog.HandlerOptions, debug bool) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &Handler{
		out:   w,
		inner: slog.NewTextHandler(w, opts),
		mu:    &sync.Mutex{},
		debug: debug,
	}
}

// Enabled reports whether level is enabled for the wrapped handler.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// WithAttrs returns a Handler with attrs attached to every future record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{out: h.out, inner: h.inner.WithAttrs(attrs), mu: h.mu, debug: h.debug}
}

// WithGroup returns a Handler that nests subsequent attrs under name.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{out: h.out, inner: h.inner.WithGroup(name), mu: h.mu, debug: h.debug}
}

// Handle writes one record as a single space-joined line, per the
// teacher's LogHandler.Handle layout.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	fields := []string{r.Time.Format("2006/01/02 15:04:05"), r.Level.String() + ":", r.Message}
	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, a.String())
		return true
	})
	line := []byte(strings.Join(fields, " ") + "\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil {
		_, err = h.out.Write(line)
	}
	if h.debug || r.Level > slog.LevelDebug {
		_, werr := os.Stderr.Write(line)
		if err == nil {
			err = werr
		}
	}
	return err
}

// SetDebug toggles whether debug-level records are also echoed to
// stderr.
func (h *Handler) SetDebug(debug bool) { h.debug = debug }

// New builds a *slog.Logger writing through a Handler at the given
// level, to w (or os.Stderr-only if w is nil).
func New(w io.Writer, level slog.Level, debug bool) *slog.Logger {
	return slog.New(NewHandler(w, &slog.HandlerOptions{Level: level}, debug))
}

// Discard is a logger that drops every record; useful as a library
// default so callers who never configure logging don't pay for it or
// see unexpected stderr noise.
func Discard() *slog.Logger {
	return slog.New(NewHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}, false))
}
