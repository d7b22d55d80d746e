package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/HayleyDeckers/register-block/pkg/compiler"
	"github.com/HayleyDeckers/register-block/pkg/diag"
)

// CheckOptions configures the check command.
type CheckOptions struct {
	commonOptions
	JSON bool
}

// CheckOutput is the JSON result for one input file.
type CheckOutput struct {
	File   string        `json:"file"`
	Valid  bool          `json:"valid"`
	Blocks []BlockOutput `json:"blocks,omitempty"`
	Errors []string      `json:"errors,omitempty"`
}

// BlockOutput is the JSON result for one block.
type BlockOutput struct {
	Name       string        `json:"name"`
	Fields     int           `json:"fields"`
	Valid      bool          `json:"valid"`
	Violations []diag.Report `json:"violations,omitempty"`
	Error      string        `json:"error,omitempty"`
}

const checkUsage = `
Usage: regblock check [options] [files...]

Validates register block declarations and reports every overlap violation
of every block. Nothing is written.

Options:
  -json               Output results as JSON
  -config <file>      Manifest file
  -trace <file>       Append a CBOR compile trace
  -log-level <level>  debug, info, warn, error

Exit status is 2 if any block is malformed or has overlap violations.
`

// RunCheck runs the check command.
func RunCheck(args []string, stdout, stderr io.Writer) int {
	var opts CheckOptions
	fs := newFlagSet("check")
	opts.register(fs)
	fs.BoolVar(&opts.JSON, "json", false, "Output results as JSON")
	if ok, code := parseFlags(fs, args, stderr, checkUsage); !ok {
		return code
	}
	opts.Files = fs.Args()

	s, err := opts.resolve()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitCommandError
	}
	c, closeTrace, err := newCompiler(s, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitCommandError
	}
	defer closeTrace()

	exit := ExitSuccess
	var outputs []CheckOutput
	for _, path := range s.Inputs {
		out, code := checkFile(context.Background(), c, path)
		exit = worst(exit, code)
		outputs = append(outputs, out)
		if !opts.JSON {
			printCheck(stdout, out)
		}
	}

	if opts.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outputs); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitCommandError
		}
	}
	return exit
}

func checkFile(ctx context.Context, c *compiler.Compiler, path string) (CheckOutput, int) {
	out := CheckOutput{File: path, Valid: true}
	_, results, err := c.CompileFile(ctx, path)
	if err != nil && results == nil {
		out.Valid = false
		for _, e := range splitJoined(err) {
			out.Errors = append(out.Errors, e.Error())
		}
		return out, exitCodeFor(err)
	}

	exit := ExitSuccess
	for _, res := range results {
		b := BlockOutput{Name: res.Block.Name(), Fields: res.Block.Len(), Valid: res.Err == nil}
		if res.Err != nil {
			out.Valid = false
			b.Violations = res.Reports
			var oe *diag.OverlapError
			if !errors.As(res.Err, &oe) {
				b.Error = res.Err.Error()
			}
			exit = worst(exit, exitCodeFor(res.Err))
		}
		out.Blocks = append(out.Blocks, b)
	}
	return out, exit
}

func printCheck(w io.Writer, out CheckOutput) {
	if out.Valid {
		fmt.Fprintf(w, "%s: OK (%d blocks)\n", out.File, len(out.Blocks))
		return
	}

	violations := 0
	for _, b := range out.Blocks {
		violations += len(b.Violations)
	}
	fmt.Fprintf(w, "%s: FAILED (%d violations, %d errors)\n", out.File, violations, len(out.Errors))
	for _, e := range out.Errors {
		fmt.Fprintf(w, "  ERROR %s\n", e)
	}
	for _, b := range out.Blocks {
		for _, r := range b.Violations {
			fmt.Fprintf(w, "  %s\n", r)
		}
		if b.Error != "" {
			fmt.Fprintf(w, "  ERROR %s\n", b.Error)
		}
	}
}

// splitJoined flattens errors.Join trees into their leaves.
func splitJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, splitJoined(e)...)
		}
		return out
	}
	return []error{err}
}
