// Package logger configures structured logging: JSON in production, a
// one-line coloured console format everywhere else.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Logger is the process-wide logger. Packages take a *slog.Logger from
// Component rather than the Logger itself.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Writer      io.Writer
	Format      string // "json" or "pretty"; empty picks by Environment
	Environment string
	Level       slog.Level
	AddSource   bool
}

// New builds a logger from cfg.
func New(cfg Config) *Logger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.Format == "" {
		cfg.Format = "pretty"
		if cfg.Environment == "production" {
			cfg.Format = "json"
		}
	}

	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	if cfg.Format == "json" {
		opts.ReplaceAttr = trimSource
		return &Logger{Logger: slog.New(slog.NewJSONHandler(cfg.Writer, opts))}
	}
	return &Logger{Logger: slog.New(&console{out: cfg.Writer, opts: opts, mu: &sync.Mutex{}})}
}

// ParseLevel converts a string to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *slog.Logger {
	return l.With(slog.String(componentKey, name))
}

const componentKey = "component"

func trimSource(_ []string, a slog.Attr) slog.Attr {
	if src, ok := a.Value.Any().(*slog.Source); ok && a.Key == slog.SourceKey {
		src.File = filepath.Base(src.File)
	}
	return a
}

// console writes "15:04:05 INF [component] message key=value ...".
type console struct {
	out       io.Writer
	opts      *slog.HandlerOptions
	mu        *sync.Mutex
	component string
	attrs     []slog.Attr
	group     string
}

var levelTags = []struct {
	min   slog.Level
	tag   string
	color string
}{
	{slog.LevelError, "ERR", "\033[31m"},
	{slog.LevelWarn, "WRN", "\033[33m"},
	{slog.LevelInfo, "INF", "\033[32m"},
	{slog.LevelDebug, "DBG", "\033[35m"},
}

const (
	reset = "\033[0m"
	dim   = "\033[2m"
	cyan  = "\033[36m"
)

func (h *console) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *console) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(dim + r.Time.Format(time.TimeOnly) + reset + " ")

	tag, color := r.Level.String(), ""
	for _, lt := range levelTags {
		if r.Level >= lt.min {
			tag, color = lt.tag, lt.color
			break
		}
	}
	b.WriteString(color + tag + reset + " ")

	if h.component != "" {
		b.WriteString("[" + h.component + "] ")
	}
	if h.opts.AddSource && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fmt.Fprintf(&b, "%s%s:%d%s ", dim, filepath.Base(f.File), f.Line, reset)
	}
	b.WriteString(r.Message)

	attrs := append([]slog.Attr(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.qualify(a))
		return true
	})
	for _, a := range attrs {
		fmt.Fprintf(&b, " %s%s=%s%s", cyan, a.Key, render(a.Value), reset)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *console) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if a.Key == componentKey && h.group == "" {
			next.component = a.Value.String()
			continue
		}
		next.attrs = append(next.attrs, h.qualify(a))
	}
	return &next
}

func (h *console) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = h.group + name + "."
	return &next
}

func (h *console) qualify(a slog.Attr) slog.Attr {
	a.Key = h.group + a.Key
	return a
}

func render(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	default:
		return v.String()
	}
}
