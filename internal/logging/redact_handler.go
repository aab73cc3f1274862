package logging

import (
	"context"
	"log/slog"
	"strings"
)

const redactedValue = "[redacted]"

// sensitiveKeys are attribute keys whose values never reach a log sink.
var sensitiveKeys = map[string]struct{}{
	"authorization": {},
	"auth_token":    {},
	"credential":    {},
	"password":      {},
	"token":         {},
}

// redactHandler wraps another handler and masks credential-bearing attributes.
type redactHandler struct {
	base slog.Handler
}

func newRedactHandler(base slog.Handler) slog.Handler {
	if base == nil {
		return NoopHandler{}
	}
	return &redactHandler{base: base}
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		clean.AddAttrs(redactAttr(attr))
		return true
	})
	return h.base.Handle(ctx, clean)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cleaned := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		cleaned = append(cleaned, redactAttr(attr))
	}
	return &redactHandler{base: h.base.WithAttrs(cleaned)}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{base: h.base.WithGroup(name)}
}

func redactAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindGroup {
		group := attr.Value.Group()
		cleaned := make([]any, 0, len(group))
		for _, inner := range group {
			cleaned = append(cleaned, redactAttr(inner))
		}
		return slog.Group(attr.Key, cleaned...)
	}
	if IsSensitiveKey(attr.Key) {
		return slog.String(attr.Key, redactedValue)
	}
	return attr
}

// IsSensitiveKey reports whether values logged under key are masked.
func IsSensitiveKey(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}
