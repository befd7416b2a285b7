package logging

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

const timeFormat = "2006/01/02 15:04:05"

const componentKey = "component"

// Handler writes logs in a compact single-line form:
// timestamp + optional [component] prefix + level marker (warn/error only) +
// message + key=value attrs. The "component" attribute becomes the bracket
// prefix and is omitted from the attr list.
type Handler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Level
	attrs []slog.Attr
}

// NewHandler returns a handler writing to w at the given minimum level.
func NewHandler(w io.Writer, level slog.Level) *Handler {
	return &Handler{mu: &sync.Mutex{}, w: w, level: level}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats the record as:
// 2006/01/02 15:04:05 [component] WARN message key=value ...
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var component string
	var rest []slog.Attr
	collect := func(a slog.Attr) bool {
		if a.Key == componentKey && a.Value.Kind() == slog.KindString {
			component = a.Value.String()
			return true
		}
		rest = append(rest, a)
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	buf := make([]byte, 0, 256)
	buf = append(buf, r.Time.Format(timeFormat)...)
	buf = append(buf, ' ')
	if component != "" {
		buf = append(buf, '[')
		buf = append(buf, component...)
		buf = append(buf, "] "...)
	}
	if r.Level >= slog.LevelWarn {
		buf = append(buf, r.Level.String()...)
		buf = append(buf, ' ')
	}
	buf = append(buf, r.Message...)
	for _, a := range rest {
		buf = append(buf, ' ')
		buf = append(buf, a.Key...)
		buf = append(buf, '=')
		buf = append(buf, a.Value.String()...)
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

// WithAttrs returns a handler that prepends attrs to every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &Handler{mu: h.mu, w: h.w, level: h.level, attrs: merged}
}

// WithGroup is a no-op; compact output has no nesting.
func (h *Handler) WithGroup(string) slog.Handler {
	return h
}
