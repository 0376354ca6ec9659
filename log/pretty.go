package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// prettyHandler renders records as single styled lines for interactive
// terminals.
type prettyHandler struct {
	opts  *slog.HandlerOptions
	attrs []slog.Attr
	group string

	mu *sync.Mutex
	w  io.Writer
}

var levelStyles = map[Level]lipgloss.Style{
	LevelTrace: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
}

var (
	msgStyle = lipgloss.NewStyle()
	keyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return &prettyHandler{
		opts: opts,
		mu:   &sync.Mutex{},
		w:    w,
	}
}

// Enabled implements slog.Handler.
func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.opts != nil && h.opts.Level != nil {
		min = h.opts.Level.Level()
	}

	return level >= min
}

// Handle implements slog.Handler.
func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	level := Level(r.Level)

	style, ok := levelStyles[level]
	if !ok {
		style = msgStyle
	}

	sb.WriteString(dimStyle.Render(r.Time.Format("15:04:05.000")))
	sb.WriteByte(' ')
	sb.WriteString(style.Render(strings.ToUpper(level.String())))
	sb.WriteByte(' ')
	sb.WriteString(msgStyle.Render(r.Message))

	write := func(a slog.Attr) {
		if a.Equal(slog.Attr{}) {
			return
		}

		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}

		sb.WriteByte(' ')
		sb.WriteString(keyStyle.Render(key))
		sb.WriteString(dimStyle.Render("="))
		sb.WriteString(valStyle.Render(fmt.Sprintf("%v", a.Value.Resolve())))
	}

	for _, a := range h.attrs {
		write(a)
	}

	r.Attrs(func(a slog.Attr) bool {
		write(a)

		return true
	})

	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.w, sb.String())

	return err
}

// WithAttrs implements slog.Handler.
func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)

	return &c
}

// WithGroup implements slog.Handler.
func (h *prettyHandler) WithGroup(name string) slog.Handler {
	c := *h

	if c.group != "" {
		c.group += "." + name
	} else {
		c.group = name
	}

	return &c
}
