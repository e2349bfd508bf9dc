// Package logging writes leveled logfmt lines. Loggers are cheap to derive
// with With and travel through request contexts.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
	off
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Warn:
		return "warn"
	case Error:
		return "error"
	case off:
		return "off"
	default:
		return "info"
	}
}

// ParseLevel accepts debug, info, warn/warning and error in any case.
// Anything else is Info.
func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

type Field struct {
	Key   string
	Value any
}

func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Enabled(level Level) bool
}

// sink is shared by a logger and everything derived from it so lines from
// concurrent goroutines never interleave.
type sink struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

func (s *sink) write(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.out, line)
}

type logger struct {
	sink   *sink
	level  Level
	prefix string
}

func New(out io.Writer, level Level) Logger {
	if out == nil {
		out = os.Stderr
	}
	return &logger{sink: &sink{out: out, now: time.Now}, level: level}
}

func Nop() Logger {
	return &logger{sink: &sink{out: io.Discard, now: time.Now}, level: off}
}

func (l *logger) Enabled(level Level) bool {
	return l != nil && level >= l.level
}

// With returns a logger whose lines carry fields after msg. The fields are
// encoded once here rather than on every line.
func (l *logger) With(fields ...Field) Logger {
	if l == nil {
		return Nop()
	}
	var b strings.Builder
	b.WriteString(l.prefix)
	appendFields(&b, fields)
	return &logger{sink: l.sink, level: l.level, prefix: b.String()}
}

func (l *logger) Debug(msg string, fields ...Field) { l.emit(Debug, msg, fields) }
func (l *logger) Info(msg string, fields ...Field)  { l.emit(Info, msg, fields) }
func (l *logger) Warn(msg string, fields ...Field)  { l.emit(Warn, msg, fields) }
func (l *logger) Error(msg string, fields ...Field) { l.emit(Error, msg, fields) }

func (l *logger) emit(level Level, msg string, fields []Field) {
	if !l.Enabled(level) {
		return
	}
	var b strings.Builder
	b.WriteString("ts=")
	b.WriteString(l.sink.now().UTC().Format(time.RFC3339Nano))
	b.WriteString(" level=")
	b.WriteString(level.String())
	b.WriteString(" msg=")
	b.WriteString(encode(msg))
	b.WriteString(l.prefix)
	appendFields(&b, fields)
	b.WriteByte('\n')
	l.sink.write(b.String())
}

func appendFields(b *strings.Builder, fields []Field) {
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(field.Key)
		b.WriteByte('=')
		b.WriteString(encode(field.Value))
	}
}

func encode(value any) string {
	var s string
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		s = v
	case []byte:
		s = string(v)
	case error:
		s = v.Error()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	switch {
	case s == "":
		return `""`
	case strings.ContainsAny(s, " \t\n\r\"="):
		return strconv.Quote(s)
	}
	return s
}

type ctxKey struct{}

// WithContext stores l in ctx for handlers and services downstream.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored by WithContext, or fallback, or a
// no-op logger.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return Nop()
}

func NewRequestID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(buf[:])
}
