package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
)

// consoleHandler writes one line per record for a terminal:
//
//	15:04:05.000 WARN api: request failed [GET /dashboard/summary/{token}/ 401] request_id=...
//
// The component attribute becomes the line prefix and the method, path and
// status of an outbound call are grouped in brackets after the message. The
// process is short-lived, so the local wall clock is enough.
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     *slog.LevelVar
	component string
	prefix    string
	preset    []slog.Attr
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, out: w, level: lvl}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append([]slog.Attr(nil), h.preset...)
	for _, attr := range attrs {
		if h.prefix == "" && attr.Key == FieldComponent {
			next.component = attr.Value.Resolve().String()
			continue
		}
		next.preset = append(next.preset, qualify(h.prefix, attr))
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	component := h.component
	call := callFields{}
	var fields strings.Builder

	emit := func(attr slog.Attr) {
		for _, leaf := range leaves(attr) {
			if !call.take(leaf) {
				fields.WriteByte(' ')
				fields.WriteString(leaf.Key)
				fields.WriteByte('=')
				fields.WriteString(consoleValue(leaf.Value))
			}
		}
	}
	for _, attr := range h.preset {
		emit(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		if h.prefix == "" && attr.Key == FieldComponent {
			component = attr.Value.Resolve().String()
			return true
		}
		emit(qualify(h.prefix, attr))
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var line strings.Builder
	line.WriteString(ts.Local().Format("15:04:05.000"))
	line.WriteByte(' ')
	line.WriteString(record.Level.String())
	line.WriteByte(' ')
	if component != "" {
		line.WriteString(component)
		line.WriteString(": ")
	}
	line.WriteString(strings.TrimSpace(record.Message))
	if s := call.String(); s != "" {
		line.WriteString(" [")
		line.WriteString(s)
		line.WriteByte(']')
	}
	line.WriteString(fields.String())
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line.String())
	return err
}

// callFields collects the outbound call attributes shown in brackets.
type callFields struct {
	method, path, status string
}

func (c *callFields) take(attr slog.Attr) bool {
	switch attr.Key {
	case FieldMethod:
		c.method = attr.Value.String()
	case FieldPath:
		c.path = attr.Value.String()
	case FieldStatus:
		c.status = attr.Value.String()
	default:
		return false
	}
	return true
}

func (c callFields) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.method, c.path, c.status} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func qualify(prefix string, attr slog.Attr) slog.Attr {
	if prefix != "" && attr.Key != "" {
		attr.Key = prefix + attr.Key
	}
	return attr
}

// leaves expands group attributes into dotted keys.
func leaves(attr slog.Attr) []slog.Attr {
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() != slog.KindGroup {
		if attr.Key == "" {
			return nil
		}
		return []slog.Attr{attr}
	}
	var out []slog.Attr
	for _, member := range attr.Value.Group() {
		if attr.Key != "" {
			member.Key = attr.Key + "." + member.Key
		}
		out = append(out, leaves(member)...)
	}
	return out
}

func consoleValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	case slog.KindFloat64:
		s = strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || r == '='
	}) {
		return strconv.Quote(s)
	}
	return s
}
