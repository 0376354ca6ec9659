package cmd

import (
	"fmt"
	"log/slog"

	"github.com/dynexpr/dynexpr/lang"
	"github.com/dynexpr/dynexpr/log"
)

// Eval evaluates an expression and prints the result.
type Eval struct {
	Expression []string `arg:"" help:"Expression text" name:"expression" optional:""`
	File       string   `       help:"Read the expression from a file, or '-' for stdin" short:"f"`
}

// Run executes the eval command.
func (e *Eval) Run(interp *lang.Interpreter, logger log.Logger) error {
	text, err := expression(e.Expression, e.File)
	if err != nil {
		return err
	}

	result, err := interp.Eval(text)
	if err != nil {
		logger.Debug("eval failed",
			slog.String("expression", text),
			slog.Any("error", err),
		)

		return err
	}

	fmt.Println(lang.FormatResult(result))

	return nil
}
