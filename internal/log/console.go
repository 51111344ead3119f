package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[2m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiBlue   = "\033[34m"
)

// ConsoleHandler writes one line per record for people watching the server:
//
//	15:04:05.000 INF [a1b2c3] image classified tag=bale probability=0.87
//
// The correlation ID becomes the bracketed tag and an "error" attribute is
// highlighted. Durations are rounded to the millisecond.
type ConsoleHandler struct {
	w      io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	colour bool

	group  string
	pre    []byte
	corrID string
}

// NewConsoleHandler creates a ConsoleHandler. A nil opts logs at INFO.
func NewConsoleHandler(w io.Writer, opts *slog.HandlerOptions, colour bool) *ConsoleHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &ConsoleHandler{
		w:      w,
		mu:     &sync.Mutex{},
		level:  level,
		colour: colour,
	}
}

// Enabled implements slog.Handler.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	corrID := h.corrID
	var attrs bytes.Buffer
	attrs.Write(h.pre)
	r.Attrs(func(a slog.Attr) bool {
		if h.group == "" && a.Key == CorrelationIDAttr {
			corrID = a.Value.String()
			return true
		}
		h.appendAttr(&attrs, h.group, a)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var line bytes.Buffer
	line.Grow(96 + attrs.Len())

	h.paint(&line, ansiDim, ts.Format("15:04:05.000"))
	line.WriteByte(' ')
	colour, label := levelStyle(r.Level)
	h.paint(&line, colour, label)
	line.WriteByte(' ')
	if corrID != "" {
		h.paint(&line, ansiBlue, "["+corrID+"]")
		line.WriteByte(' ')
	}
	h.paint(&line, ansiBold, r.Message)
	line.Write(attrs.Bytes())
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(line.Bytes())
	return err
}

// WithAttrs implements slog.Handler. Attributes are rendered once, here.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	buf := bytes.NewBuffer(next.pre)
	for _, a := range attrs {
		if h.group == "" && a.Key == CorrelationIDAttr {
			next.corrID = a.Value.String()
			continue
		}
		h.appendAttr(buf, h.group, a)
	}
	next.pre = buf.Bytes()
	return next
}

// WithGroup implements slog.Handler.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.group = h.group + name + "."
	return next
}

func (h *ConsoleHandler) clone() *ConsoleHandler {
	next := *h
	next.pre = append([]byte(nil), h.pre...)
	return &next
}

func (h *ConsoleHandler) paint(buf *bytes.Buffer, code, s string) {
	if !h.colour {
		buf.WriteString(s)
		return
	}
	buf.WriteString(code)
	buf.WriteString(s)
	buf.WriteString(ansiReset)
}

func (h *ConsoleHandler) appendAttr(buf *bytes.Buffer, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			group += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(buf, group, ga)
		}
		return
	}

	buf.WriteByte(' ')
	h.paint(buf, ansiDim, group+a.Key+"=")
	if a.Key == "error" {
		h.paint(buf, ansiRed, formatValue(a.Value))
		return
	}
	buf.WriteString(formatValue(a.Value))
}

func levelStyle(level slog.Level) (colour, label string) {
	switch {
	case level < slog.LevelInfo:
		return ansiCyan, "DBG"
	case level < slog.LevelWarn:
		return ansiGreen, "INF"
	case level < slog.LevelError:
		return ansiYellow, "WRN"
	default:
		return ansiRed, "ERR"
	}
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString, slog.KindAny:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"\\=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindDuration:
		d := v.Duration()
		if d >= time.Millisecond {
			return d.Round(time.Millisecond).String()
		}
		return d.Round(time.Microsecond).String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		return v.String()
	}
}
