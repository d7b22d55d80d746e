package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/HayleyDeckers/register-block/cmd/regblock/interactive"
	"github.com/HayleyDeckers/register-block/pkg/compiler"
)

const exploreUsage = `
Usage: regblock explore [options] <file>

Opens an interactive shell over the blocks of one declaration file.

Options:
  -package <name>     Package name of generated code
  -runtime <path>     Import path of the mmio runtime
`

// RunExplore runs the explore command.
func RunExplore(args []string, stdout, stderr io.Writer) int {
	var opts commonOptions
	fs := newFlagSet("explore")
	opts.register(fs)
	if ok, code := parseFlags(fs, args, stderr, exploreUsage); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one declaration file required")
		fmt.Fprint(stderr, exploreUsage)
		return ExitCommandError
	}
	opts.Files = fs.Args()

	s, err := opts.resolve()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitCommandError
	}
	unit, err := compiler.Load(s.Inputs[0])
	if err != nil {
		printError(stderr, "", err)
		return exitCodeFor(err)
	}
	c, closeTrace, err := newCompiler(s, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitCommandError
	}
	defer closeTrace()

	ex, err := interactive.New(unit, c)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitCommandError
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()
	ex.Run(ctx)
	return ExitSuccess
}
