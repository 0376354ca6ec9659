package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Level is the minimum severity a record must have to be written.
// It extends slog's levels downward with Trace.
type Level int

// Levels, in increasing severity.
const (
	LevelTrace Level = Level(slog.LevelDebug) - 4
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = LevelWarn

// String returns the level's display name.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// UnmarshalText parses a level name, satisfying encoding.TextUnmarshaler
// so levels can be used directly as CLI flag values.
func (l *Level) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "trace":
		*l = LevelTrace
	case "debug":
		*l = LevelDebug
	case "info":
		*l = LevelInfo
	case "warn", "warning":
		*l = LevelWarn
	case "error":
		*l = LevelError
	default:
		return fmt.Errorf("unknown log level %q", text)
	}

	return nil
}

// Format selects the output encoding.
type Format int

// Output formats.
const (
	FormatText Format = iota
	FormatJSON
	FormatPretty
)

// DefaultFormat is used when no format is configured.
const DefaultFormat = FormatText

// String returns the format's display name.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatPretty:
		return "pretty"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// UnmarshalText parses a format name.
func (f *Format) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "text":
		*f = FormatText
	case "json":
		*f = FormatJSON
	case "pretty":
		*f = FormatPretty
	default:
		return fmt.Errorf("unknown log format %q", text)
	}

	return nil
}

// config holds the logger's effective configuration.
type config struct {
	writer io.Writer
	level  Level
	format Format
	source bool
}

// Option configures a Logger.
type Option func(*config)

// WithLevel sets the minimum level.
func WithLevel(l Level) Option {
	return func(c *config) { c.level = l }
}

// WithFormat sets the output format.
func WithFormat(f Format) Option {
	return func(c *config) { c.format = f }
}

// WithSource includes the caller's file and line in each record.
func WithSource() Option {
	return func(c *config) { c.source = true }
}

func makeConfig(w io.Writer, opts ...Option) config {
	cfg := config{
		writer: w,
		level:  DefaultLevel,
		format: DefaultFormat,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// handler builds the slog handler for the configuration.
func (c config) handler() slog.Handler {
	hopts := &slog.HandlerOptions{
		Level:     slog.Level(c.level),
		AddSource: c.source,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			// Render the custom Trace level by name.
			if a.Key == slog.LevelKey {
				if lv, ok := a.Value.Any().(slog.Level); ok && Level(lv) == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}

			return a
		},
	}

	switch c.format {
	case FormatJSON:
		return slog.NewJSONHandler(c.writer, hopts)
	case FormatPretty:
		return newPrettyHandler(c.writer, hopts)
	default:
		return slog.NewTextHandler(c.writer, hopts)
	}
}
