// Package cmd implements the dynexpr CLI subcommands.
package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/dynexpr/dynexpr/lang"
	"github.com/dynexpr/dynexpr/log"
	"github.com/dynexpr/dynexpr/pkg"
)

// Options configures the interpreter shared by the subcommands.
type Options struct {
	CaseInsensitive bool
	NoAssign        bool
	VarsFiles       []string
	Logger          log.Logger
}

// MakeInterpreter builds the interpreter from the global flags,
// registering every variable found in the YAML vars files.
func MakeInterpreter(opts Options) (*lang.Interpreter, error) {
	iopts := []lang.Option{lang.WithLogger(opts.Logger)}

	if opts.CaseInsensitive {
		iopts = append(iopts, lang.WithCaseInsensitive())
	}

	interp := lang.New(iopts...)

	if opts.NoAssign {
		interp.EnableAssignment(lang.AssignNone)
	}

	for _, path := range opts.VarsFiles {
		if err := loadVars(interp, path); err != nil {
			return nil, err
		}
	}

	return interp, nil
}

// loadVars registers every top-level entry of a YAML document as an
// interpreter variable.
func loadVars(interp *lang.Interpreter, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return pkg.ErrReadInput.Wrap(err)
	}

	values := map[string]any{}

	if err := yaml.Unmarshal(data, &values); err != nil {
		return pkg.ErrVarsFile.Wrap(err)
	}

	for name, value := range values {
		if err := interp.SetVariable(name, value); err != nil {
			return pkg.ErrVarsFile.Wrap(err)
		}
	}

	return nil
}

// expression assembles the expression text from positional arguments or
// an input file. File reads go through an async read-ahead reader so
// large piped inputs stream while they decode.
func expression(args []string, file string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	if file == "" {
		return "", pkg.ErrNoExpression
	}

	var in io.Reader

	if file == "-" {
		in = os.Stdin
	} else {
		f, err := os.Open(file)
		if err != nil {
			return "", pkg.ErrReadInput.Wrap(err)
		}

		defer f.Close()

		in = f
	}

	ra := readahead.NewReader(in)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", pkg.ErrReadInput.Wrap(err)
	}

	return strings.TrimSpace(string(data)), nil
}
