//go:build pprof

package cli

import (
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/pkg/profile"

	"github.com/dynexpr/dynexpr/log"
)

// pprofConfig holds the profiling flags, available when built with the
// pprof tag.
type pprofConfig struct {
	Mode string `default:"" enum:",cpu,mem,trace" help:"Enable profiling"         placeholder:"cpu|mem|trace" short:"p"`
	Dir  string `default:"."                      help:"Profile output directory" type:"path"`
}

func (pprofConfig) group() kong.Group {
	var group kong.Group

	group.Key = "pprof"
	group.Title = "Profiling (pprof)"

	return group
}

// start starts profiling if configured.
func (f pprofConfig) start(logger log.Logger) (stop func()) {
	if f.Mode == "" {
		return func() {}
	}

	logger.Debug("pprof start",
		slog.String("mode", f.Mode),
		slog.String("dir", f.Dir),
	)

	opts := []func(*profile.Profile){
		profile.ProfilePath(f.Dir),
		profile.Quiet,
	}

	switch f.Mode {
	case "mem":
		opts = append(opts, profile.MemProfile)
	case "trace":
		opts = append(opts, profile.TraceProfile)
	default:
		opts = append(opts, profile.CPUProfile)
	}

	profiler := profile.Start(opts...)

	return func() {
		logger.Debug("pprof stop", slog.String("mode", f.Mode))
		profiler.Stop()
	}
}
