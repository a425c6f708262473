package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Hidden replaces secret values in log output.
const Hidden = "/HIDDEN/"

// RedactingHandler masks configured secrets in messages and attribute values
// before they reach the wrapped handler.
type RedactingHandler struct {
	next     slog.Handler
	replacer *strings.Replacer
}

// NewRedactingHandler wraps next. Empty secrets are ignored.
func NewRedactingHandler(next slog.Handler, secrets ...string) *RedactingHandler {
	var pairs []string
	for _, secret := range secrets {
		if secret != "" {
			pairs = append(pairs, secret, Hidden)
		}
	}
	h := &RedactingHandler{next: next}
	if len(pairs) > 0 {
		h.replacer = strings.NewReplacer(pairs...)
	}
	return h
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.replacer == nil {
		return h.next.Handle(ctx, record)
	}
	redacted := slog.NewRecord(record.Time, record.Level, h.replacer.Replace(record.Message), record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		redacted.AddAttrs(h.redactAttr(attr))
		return true
	})
	return h.next.Handle(ctx, redacted)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if h.replacer == nil {
		return &RedactingHandler{next: h.next.WithAttrs(attrs)}
	}
	out := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		out[i] = h.redactAttr(attr)
	}
	return &RedactingHandler{next: h.next.WithAttrs(out), replacer: h.replacer}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name), replacer: h.replacer}
}

func (h *RedactingHandler) redactAttr(attr slog.Attr) slog.Attr {
	value := attr.Value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		return slog.String(attr.Key, h.replacer.Replace(value.String()))
	case slog.KindGroup:
		group := value.Group()
		out := make([]any, len(group))
		for i, member := range group {
			out[i] = h.redactAttr(member)
		}
		return slog.Group(attr.Key, out...)
	case slog.KindAny:
		switch v := value.Any().(type) {
		case error:
			return slog.String(attr.Key, h.replacer.Replace(v.Error()))
		case fmt.Stringer:
			return slog.String(attr.Key, h.replacer.Replace(v.String()))
		}
	}
	return slog.Attr{Key: attr.Key, Value: value}
}

// New builds the process logger: JSON records on w at level, with secrets masked.
func New(w io.Writer, level slog.Level, secrets ...string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewRedactingHandler(handler, secrets...))
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging: invalid level %q", value)
	}
	return level, nil
}
