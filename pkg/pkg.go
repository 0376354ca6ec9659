//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

// version is the semantic version of the dynexpr module embedded at
// build time.
//
//go:embed VERSION
var version string

// Version returns the module version without surrounding whitespace.
func Version() string {
	return strings.TrimSpace(version)
}

const (
	// Name is the canonical command and module identifier used across
	// the project. It appears in help text and default config paths.
	Name = "dynexpr"

	// Description is a short, human-readable summary of the project used
	// in help output and documentation.
	Description = "Embeddable expression interpreter"
)
