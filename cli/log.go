package cli

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/dynexpr/dynexpr/log"
)

// logConfig holds the logger flags shared by every command.
type logConfig struct {
	Level  log.Level  `default:"warn" enum:"trace,debug,info,warn,error" help:"Minimum log level"`
	Format log.Format `default:"text" enum:"text,json,pretty"            help:"Log output format"`
	Source bool       `                                                  help:"Include caller info in log records"`
}

func (logConfig) group() kong.Group {
	var group kong.Group

	group.Key = "log"
	group.Title = "Logging"

	return group
}

// make builds the process logger from the parsed flags. Log output goes
// to stderr so command output remains pipeable.
func (f logConfig) make() log.Logger {
	opts := []log.Option{
		log.WithLevel(f.Level),
		log.WithFormat(f.Format),
	}

	if f.Source {
		opts = append(opts, log.WithSource())
	}

	return log.Make(os.Stderr, opts...)
}
