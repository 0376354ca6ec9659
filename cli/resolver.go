package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/dynexpr/dynexpr/pkg"
)

// configPath returns the default configuration file location.
func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", pkg.Name+".yaml")
	}

	return filepath.Join(dir, pkg.Name, "config.yaml")
}

// resolve is a [kong.ConfigurationLoader] that parses YAML config files.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve, "/path/to/config.yaml")
//
// Flag names with hyphens (e.g., "log-level") may use either hyphens or
// underscores in the config file. Command-line flags override config
// file values.
func resolve(r io.Reader) (kong.Resolver, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, pkg.ErrReadInput.Wrap(err)
	}

	values := map[string]any{}

	if err := yaml.Unmarshal(data, &values); err != nil {
		// Malformed config files are ignored rather than fatal.
		return config{}, nil
	}

	return config(values), nil
}

// config implements [kong.Resolver] for YAML configs.
type config map[string]any

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	// Underscore variant of hyphenated flag names.
	if value, ok := c[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}
