// Package commands implements the regblock subcommands. Each command is a
// Run function taking its arguments and output streams and returning the
// process exit code.
package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/HayleyDeckers/register-block/pkg/compiler"
	"github.com/HayleyDeckers/register-block/pkg/diag"
	"github.com/HayleyDeckers/register-block/pkg/emit"
	"github.com/HayleyDeckers/register-block/pkg/log"
	"github.com/HayleyDeckers/register-block/pkg/regmodel"
)

// Exit codes shared by all commands.
const (
	ExitSuccess      = 0
	ExitCommandError = 1
	ExitValidation   = 2
)

// commonOptions are the flags shared by commands that compile inputs.
type commonOptions struct {
	Config   string
	Package  string
	Runtime  string
	Trace    string
	LogLevel string
	Files    []string
}

func (o *commonOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.Config, "config", "", "Manifest file (default ./"+DefaultManifest+" if present)")
	fs.StringVar(&o.Package, "package", "", "Package name of generated code (default: from input)")
	fs.StringVar(&o.Runtime, "runtime", "", "Import path of the mmio runtime")
	fs.StringVar(&o.Trace, "trace", "", "Append a CBOR compile trace to this file")
	fs.StringVar(&o.LogLevel, "log-level", "", "Log level: debug, info, warn, error (default warn)")
}

// settings is the merged view of manifest and flags.
type settings struct {
	Manifest *Manifest
	Package  string
	Runtime  string
	Trace    string
	Inputs   []string
	Level    slog.Level
}

func (o *commonOptions) resolve() (*settings, error) {
	m, err := findManifest(o.Config)
	if err != nil {
		return nil, err
	}

	s := &settings{
		Manifest: m,
		Package:  pick(o.Package, m.Package),
		Runtime:  pick(o.Runtime, m.Runtime),
		Trace:    pick(o.Trace, m.Trace),
		Level:    slog.LevelWarn,
	}
	if lvl := pick(o.LogLevel, m.LogLevel); lvl != "" {
		if err := s.Level.UnmarshalText([]byte(lvl)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", lvl, err)
		}
	}

	patterns := o.Files
	if len(patterns) == 0 {
		patterns = m.Inputs
	}
	if len(patterns) == 0 {
		return nil, errors.New("no input files specified")
	}
	if s.Inputs, err = expandInputs(patterns); err != nil {
		return nil, err
	}

	if err := (emit.Options{Package: s.Package, RuntimeImport: s.Runtime}).Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func pick(flagValue, manifestValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return manifestValue
}

// newCompiler builds the compiler for s. The returned close function
// flushes the trace file.
func newCompiler(s *settings, stderr io.Writer) (*compiler.Compiler, func() error, error) {
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: s.Level}))
	c := &compiler.Compiler{
		Options: emit.Options{Package: s.Package, RuntimeImport: s.Runtime},
		Logger:  logger,
	}
	closeFn := func() error { return nil }

	if s.Trace != "" {
		fl, err := log.NewFileLogger(s.Trace)
		if err != nil {
			return nil, nil, err
		}
		c.Trace = log.NewMultiLogger(fl, log.NewSlogAdapter(logger))
		closeFn = fl.Close
	}
	return c, closeFn, nil
}

// exitCodeFor maps a compile error onto an exit code: declaration problems
// (malformed fields, overlaps) are validation failures, anything else is a
// command error.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, diag.ErrOverlap), errors.Is(err, regmodel.ErrMalformedField):
		return ExitValidation
	default:
		return ExitCommandError
	}
}

func worst(a, b int) int {
	if b == ExitCommandError || a == ExitCommandError {
		return ExitCommandError
	}
	if b > a {
		return b
	}
	return a
}

// printError writes an error, one line per joined error.
func printError(w io.Writer, prefix string, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fmt.Fprintf(w, "%s%s\n", prefix, line)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseFlags parses args, printing usage on -help. It returns false with the
// exit code when the command should stop.
func parseFlags(fs *flag.FlagSet, args []string, stderr io.Writer, usage string) (bool, int) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(stderr, usage)
			return false, ExitSuccess
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprint(stderr, usage)
		return false, ExitCommandError
	}
	return true, ExitSuccess
}
