// Package interactive implements the regblock explore shell.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/HayleyDeckers/register-block/pkg/compiler"
	"github.com/HayleyDeckers/register-block/pkg/diag"
	"github.com/HayleyDeckers/register-block/pkg/overlap"
	"github.com/HayleyDeckers/register-block/pkg/plan"
	"github.com/HayleyDeckers/register-block/pkg/regmodel"
)

// Explorer is an interactive shell over one loaded declaration file.
type Explorer struct {
	unit *compiler.Unit
	c    *compiler.Compiler
	rl   *readline.Instance
	out  io.Writer

	results map[string]*compiler.Result
}

// New creates an explorer reading commands from the terminal.
func New(unit *compiler.Unit, c *compiler.Compiler) (*Explorer, error) {
	names := make([]readline.PrefixCompleterInterface, 0, len(unit.Blocks))
	for _, b := range unit.Blocks {
		names = append(names, readline.PcItem(b.Name()))
	}
	completer := readline.NewPrefixCompleter(
		readline.PcItem("blocks"),
		readline.PcItem("fields", names...),
		readline.PcItem("check", names...),
		readline.PcItem("plan", names...),
		readline.PcItem("gen", names...),
		readline.PcItem("at", names...),
		readline.PcItem("classify"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "regblock> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	e := newExplorer(unit, c, rl.Stdout())
	e.rl = rl
	return e, nil
}

func newExplorer(unit *compiler.Unit, c *compiler.Compiler, out io.Writer) *Explorer {
	return &Explorer{unit: unit, c: c.ForUnit(unit), out: out, results: make(map[string]*compiler.Result)}
}

// Run starts the interactive command loop.
func (e *Explorer) Run(ctx context.Context) {
	defer e.rl.Close()

	fmt.Fprintf(e.out, "%s: %d blocks (type 'help' for commands)\n", e.unit.Path, len(e.unit.Blocks))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := e.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(e.out, "Exiting...")
			return
		}

		if quit := e.Execute(ctx, line); quit {
			return
		}
	}
}

// Execute runs one command line and reports whether the shell should exit.
func (e *Explorer) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	switch cmd {
	case "help", "?":
		e.printHelp()
	case "blocks", "b":
		e.cmdBlocks(ctx)
	case "fields", "f":
		e.withBlock(args, e.cmdFields)
	case "check", "c":
		if len(args) == 0 {
			for _, b := range e.unit.Blocks {
				e.cmdCheck(ctx, b)
			}
			return false
		}
		e.withBlock(args, func(b *regmodel.RegisterBlock) { e.cmdCheck(ctx, b) })
	case "plan", "p":
		e.withBlock(args, func(b *regmodel.RegisterBlock) { e.cmdPlan(ctx, b) })
	case "gen", "g":
		e.withBlock(args, func(b *regmodel.RegisterBlock) { e.cmdGen(ctx, b) })
	case "at":
		e.cmdAt(args)
	case "classify":
		e.cmdClassify(args)
	case "quit", "exit", "q":
		fmt.Fprintln(e.out, "Exiting...")
		return true
	default:
		fmt.Fprintf(e.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (e *Explorer) printHelp() {
	fmt.Fprintln(e.out, `
Commands:
  blocks               - List blocks and whether they compile
  fields <block>       - List the fields of a block
  check [block]        - Show overlap violations (all blocks if none given)
  plan <block>         - Show the accessor surface
  gen <block>          - Print the generated Go source
  at <block> <offset>  - Show the fields covering a byte offset
  classify <a> <b>     - Show how two access modes may overlap (RW, RO, WO, Clear)
  quit                 - Exit`)
}

func (e *Explorer) lookup(name string) *regmodel.RegisterBlock {
	for _, b := range e.unit.Blocks {
		if strings.EqualFold(b.Name(), name) {
			return b
		}
	}
	return nil
}

func (e *Explorer) withBlock(args []string, fn func(*regmodel.RegisterBlock)) {
	if len(args) < 1 {
		fmt.Fprintln(e.out, "Usage: <command> <block>")
		return
	}
	b := e.lookup(args[0])
	if b == nil {
		fmt.Fprintf(e.out, "No block %q\n", args[0])
		return
	}
	fn(b)
}

// result compiles b once and caches the outcome.
func (e *Explorer) result(ctx context.Context, b *regmodel.RegisterBlock) *compiler.Result {
	if res, ok := e.results[b.Name()]; ok {
		return res
	}
	res, _ := e.c.Compile(ctx, b)
	e.results[b.Name()] = res
	return res
}

func (e *Explorer) cmdBlocks(ctx context.Context) {
	for _, b := range e.unit.Blocks {
		res := e.result(ctx, b)
		status := "ok"
		switch {
		case len(res.Violations) > 0:
			status = fmt.Sprintf("%d violations", len(res.Violations))
		case res.Err != nil:
			status = "error"
		}
		fmt.Fprintf(e.out, "  %-20s %3d fields  size 0x%02X  %s\n", b.Name(), b.Len(), b.Size(), status)
	}
}

func (e *Explorer) cmdFields(b *regmodel.RegisterBlock) {
	if d := b.Description(); d != "" {
		fmt.Fprintf(e.out, "%s\n", d)
	}
	for _, f := range b.Fields() {
		fmt.Fprintf(e.out, "  %-16s %-6s %-16s %s\n", f.Range(), f.Access, f.Name, plan.For(f.Access))
	}
}

func (e *Explorer) cmdCheck(ctx context.Context, b *regmodel.RegisterBlock) {
	res := e.result(ctx, b)
	if len(res.Reports) == 0 {
		fmt.Fprintf(e.out, "%s: OK\n", b.Name())
		return
	}
	_ = diag.Render(e.out, res.Reports)
}

func (e *Explorer) cmdPlan(ctx context.Context, b *regmodel.RegisterBlock) {
	res := e.result(ctx, b)
	if res.Err != nil {
		fmt.Fprintf(e.out, "%s does not compile: %v\n", b.Name(), res.Err)
		return
	}
	for _, a := range res.Surface {
		fmt.Fprintf(e.out, "  %-20s %-20s %s\n", a.Name(), a.GoName(), a.Field)
	}
}

func (e *Explorer) cmdGen(ctx context.Context, b *regmodel.RegisterBlock) {
	res := e.result(ctx, b)
	if res.Err != nil {
		fmt.Fprintf(e.out, "%s does not compile: %v\n", b.Name(), res.Err)
		return
	}
	fmt.Fprintf(e.out, "// %s\n%s", res.FileName, res.Code)
}

func (e *Explorer) cmdAt(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(e.out, "Usage: at <block> <offset>")
		return
	}
	b := e.lookup(args[0])
	if b == nil {
		fmt.Fprintf(e.out, "No block %q\n", args[0])
		return
	}
	off, err := strconv.ParseUint(args[1], 0, 64)
	if err != nil {
		fmt.Fprintf(e.out, "Invalid offset %q\n", args[1])
		return
	}

	target := regmodel.Field{Offset: off, Width: 1}
	found := false
	for _, f := range b.Fields() {
		if f.Overlaps(target) {
			fmt.Fprintf(e.out, "  %s %s %s\n", f.Range(), f.Access, f.Name)
			found = true
		}
	}
	if !found {
		fmt.Fprintf(e.out, "No field covers 0x%02X\n", off)
	}
}

func (e *Explorer) cmdClassify(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(e.out, "Usage: classify <mode> <mode>")
		return
	}
	a, err := regmodel.ParseAccessMode(args[0])
	if err != nil {
		fmt.Fprintf(e.out, "%v\n", err)
		return
	}
	b, err := regmodel.ParseAccessMode(args[1])
	if err != nil {
		fmt.Fprintf(e.out, "%v\n", err)
		return
	}
	kind := overlap.Classify(a, b)
	if !kind.Conflict() {
		fmt.Fprintf(e.out, "%s/%s: may overlap\n", a, b)
		return
	}
	fmt.Fprintf(e.out, "%s/%s: conflict %s (%s)\n", a, b, kind.RuleID(), kind.Description())
}
