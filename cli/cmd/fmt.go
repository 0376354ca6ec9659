package cmd

import (
	"fmt"

	"github.com/dynexpr/dynexpr/lang"
	"github.com/dynexpr/dynexpr/log"
)

// Fmt parses an expression and reprints it in canonical form, with
// precedence made explicit and implicit conversions elided.
type Fmt struct {
	Expression []string `arg:"" help:"Expression text" name:"expression" optional:""`
	File       string   `       help:"Read the expression from a file, or '-' for stdin" short:"f"`
}

// Run executes the fmt command.
func (f *Fmt) Run(interp *lang.Interpreter, _ log.Logger) error {
	text, err := expression(f.Expression, f.File)
	if err != nil {
		return err
	}

	l, err := interp.Parse(text)
	if err != nil {
		return err
	}

	fmt.Println(l.String())

	return nil
}
