//go:build !pprof

package cli

import (
	"github.com/alecthomas/kong"

	"github.com/dynexpr/dynexpr/log"
)

// pprofConfig is empty when built without the pprof tag.
type pprofConfig struct{}

func (pprofConfig) group() kong.Group { return kong.Group{} }

// start is a no-op when built without the pprof tag.
func (pprofConfig) start(log.Logger) (stop func()) { return func() {} }
