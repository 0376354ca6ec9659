package cmd

import (
	"fmt"
	"os"

	"github.com/dynexpr/dynexpr/lang"
	"github.com/dynexpr/dynexpr/log"
)

// Detect classifies the identifiers an expression references without
// binding it: known identifiers, known type aliases, and unknown names
// that would have to be supplied as parameters.
type Detect struct {
	Expression []string `arg:"" help:"Expression text" name:"expression" optional:""`
	File       string   `       help:"Read the expression from a file, or '-' for stdin" short:"f"`
	JSON       bool     `       help:"Emit JSON instead of YAML"`
}

// Run executes the detect command.
func (d *Detect) Run(interp *lang.Interpreter, _ log.Logger) error {
	text, err := expression(d.Expression, d.File)
	if err != nil {
		return err
	}

	info, err := interp.Detect(text)
	if err != nil {
		return err
	}

	var out []byte

	if d.JSON {
		out, err = info.MarshalJSON()
	} else {
		out, err = info.MarshalYAML()
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(os.Stdout, string(out))

	return err
}
