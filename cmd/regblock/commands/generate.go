package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/HayleyDeckers/register-block/pkg/compiler"
	"github.com/HayleyDeckers/register-block/pkg/diag"
	"github.com/HayleyDeckers/register-block/pkg/emit"
	"github.com/HayleyDeckers/register-block/pkg/log"
)

// GenerateOptions configures the generate command.
type GenerateOptions struct {
	commonOptions
	Output string
	Force  bool
	DryRun bool
}

const generateUsage = `
Usage: regblock generate [options] [files...]

Compiles register block declarations (.yaml, .yml or .go) and writes one
<block>_gen.go file per block. Files whose fingerprint is unchanged are left
untouched unless -force is given.

Options:
  -o, -output <dir>   Output directory (default: manifest output or .)
  -package <name>     Package name of generated code
  -runtime <path>     Import path of the mmio runtime
  -force              Rewrite files even when unchanged
  -dry-run            Compile and report, write nothing
  -trace <file>       Append a CBOR compile trace
  -config <file>      Manifest file
  -log-level <level>  debug, info, warn, error

Exit status is 2 if any block is malformed or has overlap violations.
`

// RunGenerate runs the generate command.
func RunGenerate(args []string, stdout, stderr io.Writer) int {
	var opts GenerateOptions
	fs := newFlagSet("generate")
	opts.register(fs)
	fs.StringVar(&opts.Output, "output", "", "Output directory")
	fs.StringVar(&opts.Output, "o", "", "Output directory (shorthand)")
	fs.BoolVar(&opts.Force, "force", false, "Rewrite unchanged files")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Do not write files")
	if ok, code := parseFlags(fs, args, stderr, generateUsage); !ok {
		return code
	}
	opts.Files = fs.Args()

	s, err := opts.resolve()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitCommandError
	}
	outDir := pick(opts.Output, s.Manifest.Output)
	if outDir == "" {
		outDir = "."
	}

	c, closeTrace, err := newCompiler(s, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitCommandError
	}
	defer func() {
		if err := closeTrace(); err != nil {
			fmt.Fprintf(stderr, "Error: writing trace: %v\n", err)
		}
	}()

	g := &generator{c: c, outDir: outDir, force: opts.Force, dryRun: opts.DryRun, stdout: stdout, stderr: stderr,
		written: make(map[string]string)}
	exit := ExitSuccess
	for _, path := range s.Inputs {
		exit = worst(exit, g.file(context.Background(), path))
	}
	return exit
}

type generator struct {
	c      *compiler.Compiler
	outDir string
	force  bool
	dryRun bool
	stdout io.Writer
	stderr io.Writer

	// written maps output paths to the input that produced them.
	written map[string]string
}

func (g *generator) file(ctx context.Context, path string) int {
	_, results, err := g.c.CompileFile(ctx, path)
	if err != nil && results == nil {
		printError(g.stderr, "", err)
		return exitCodeFor(err)
	}

	exit := ExitSuccess
	for _, res := range results {
		if res.Err != nil {
			exit = worst(exit, g.failed(path, res))
			continue
		}
		if err := g.write(path, res); err != nil {
			fmt.Fprintf(g.stderr, "Error: %v\n", err)
			exit = worst(exit, ExitCommandError)
		}
	}
	return exit
}

func (g *generator) failed(input string, res *compiler.Result) int {
	exit := exitCodeFor(res.Err)

	var oe *diag.OverlapError
	if errors.As(res.Err, &oe) {
		_ = diag.Render(g.stderr, oe.Reports)
	} else {
		printError(g.stderr, input+": ", res.Err)
	}

	var fe *emit.FormatError
	if errors.As(res.Err, &fe) && !g.dryRun {
		broken, err := g.writeBroken(res, fe)
		if err != nil {
			fmt.Fprintf(g.stderr, "Error: writing unformatted output: %v\n", err)
			return worst(exit, ExitCommandError)
		}
		fmt.Fprintf(g.stderr, "  unformatted output written to %s\n", broken)
	}
	return exit
}

// writeBroken saves the unformatted source next to where the generated file
// would have gone.
func (g *generator) writeBroken(res *compiler.Result, fe *emit.FormatError) (string, error) {
	broken := filepath.Join(g.outDir, emit.FileName(res.Block)+".broken")
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(broken, fe.Source, 0o644); err != nil {
		return "", err
	}
	return broken, nil
}

func (g *generator) write(input string, res *compiler.Result) error {
	out := filepath.Join(g.outDir, res.FileName)
	if prev, dup := g.written[out]; dup {
		return fmt.Errorf("%s: block %s would overwrite %s generated from %s", input, res.Block.Name(), out, prev)
	}
	g.written[out] = input

	unchanged := false
	if !g.force {
		if existing, err := os.ReadFile(out); err == nil {
			fp, ok := emit.ReadFingerprint(existing)
			unchanged = ok && fp == res.Fingerprint && bytes.Equal(existing, res.Code)
		}
	}

	start := time.Now()
	switch {
	case unchanged:
		fmt.Fprintf(g.stdout, "  unchanged %s\n", out)
	case g.dryRun:
		fmt.Fprintf(g.stdout, "  would generate %s (%d accessors)\n", out, len(res.Surface))
	default:
		if err := os.MkdirAll(g.outDir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
		if err := os.WriteFile(out, res.Code, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Fprintf(g.stdout, "  generated %s (%d accessors)\n", out, len(res.Surface))
	}

	if g.c.Trace != nil {
		g.c.Trace.Log(log.Event{
			Timestamp: time.Now(),
			RunID:     res.RunID,
			Block:     res.Block.Name(),
			Stage:     log.StageWrite,
			Category:  log.CategoryArtifact,
			Source:    input,
			Duration:  time.Since(start),
			Emit: &log.EmitEvent{
				FileName:    out,
				Fingerprint: res.Fingerprint,
				Size:        len(res.Code),
				Unchanged:   unchanged,
			},
		})
	}
	return nil
}
