// Package cli is the kong-driven command-line interface for dynexpr. It
// exists mainly as a demonstration harness around the lang package: the
// eval, detect, and fmt commands drive the pipeline once, and repl opens
// an interactive session.
package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/dynexpr/dynexpr/cli/cmd"
	"github.com/dynexpr/dynexpr/cli/cmd/repl"
	"github.com/dynexpr/dynexpr/pkg"
)

// CLI is the top-level command-line interface for dynexpr.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Vars            []string `help:"YAML file(s) of variables to register" name:"vars"             short:"V" type:"existingfile"`
	CaseInsensitive bool     `help:"Fold identifier and member case"       name:"case-insensitive" short:"i"`
	NoAssign        bool     `help:"Disable the assignment operator"       name:"no-assign"`

	Eval   cmd.Eval   `cmd:"" default:"withargs" help:"Evaluate an expression"`
	Detect cmd.Detect `cmd:""                    help:"Classify the identifiers an expression references"`
	Fmt    cmd.Fmt    `cmd:""                    help:"Reprint an expression in canonical form"`
	Repl   repl.Cmd   `cmd:""                    help:"Interactive session"`

	Version kong.VersionFlag `help:"Print version and exit"`
}

// Run executes the dynexpr CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon
// completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact: true,
				Summary: true,
			}),
		kong.Configuration(resolve, configPath()),
		kong.Vars{"version": pkg.Version()},
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger := cli.Log.make()

	defer cli.Pprof.start(logger)()

	interp, err := cmd.MakeInterpreter(cmd.Options{
		CaseInsensitive: cli.CaseInsensitive,
		NoAssign:        cli.NoAssign,
		VarsFiles:       cli.Vars,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	// Bindings are visible to every command's Run method.
	return ktx.Run(interp, logger)
}
