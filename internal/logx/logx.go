// Package logx configures the process-wide slog logger.
package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/muesli/termenv"
)

// Verbosity turns a verbosity count into a level: 0 is warn, each step
// up lowers the level by one slog step, and negative counts give error.
func Verbosity(n int) slog.Level {
	lvl := slog.LevelWarn - slog.Level(4*n)
	return max(slog.LevelDebug, min(slog.LevelError, lvl))
}

// Handler writes one line per record: time, coloured level, message and
// key=value attributes. Colours are dropped when w is not a terminal.
type Handler struct {
	mu    *sync.Mutex
	out   *termenv.Output
	level slog.Leveler
	attrs string // pre-rendered WithAttrs output
	group string
}

// NewHandler returns a Handler writing to w at the given minimum level.
func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	return &Handler{
		mu:    &sync.Mutex{},
		out:   termenv.NewOutput(w),
		level: level,
	}
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString(r.Time.Format("15:04:05.000"))
		b.WriteByte(' ')
	}
	b.WriteString(h.levelString(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.group, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&b, h.group, a)
	}
	h2 := *h
	h2.attrs = b.String()
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	if h2.group != "" {
		h2.group += "." + name
	} else {
		h2.group = name
	}
	return &h2
}

func (h *Handler) levelString(l slog.Level) string {
	s := fmt.Sprintf("%-5s", l.String())
	var c termenv.Color
	switch {
	case l >= slog.LevelError:
		c = h.out.Color("1")
	case l >= slog.LevelWarn:
		c = h.out.Color("3")
	case l >= slog.LevelInfo:
		c = h.out.Color("4")
	default:
		c = h.out.Color("8")
	}
	return h.out.String(s).Foreground(c).Bold().String()
}

func writeAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		g := a.Key
		if group != "" {
			g = group + "." + a.Key
		}
		for _, ga := range a.Value.Group() {
			writeAttr(b, g, ga)
		}
		return
	}
	b.WriteByte(' ')
	if group != "" {
		b.WriteString(group)
		b.WriteByte('.')
	}
	b.WriteString(a.Key)
	b.WriteByte('=')
	v := a.Value.String()
	if strings.ContainsAny(v, " \t\"=") {
		v = fmt.Sprintf("%q", v)
	}
	b.WriteString(v)
}

// Setup installs a Handler on w as the slog default and returns the logger.
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	l := slog.New(NewHandler(w, level))
	slog.SetDefault(l)
	return l
}

// SetupFile is Setup on a log file, creating its directory. The caller
// closes the returned file.
func SetupFile(path string, level slog.Level) (*slog.Logger, *os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return Setup(f, level), f, nil
}

// Warn logs msg with err attached when err is non-nil and reports
// whether it did.
func Warn(msg string, err error) bool {
	if err == nil {
		return false
	}
	slog.Warn(msg, "err", err)
	return true
}
