package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/HayleyDeckers/register-block/pkg/compiler"
	"github.com/HayleyDeckers/register-block/pkg/plan"
)

// PlanOutput is the JSON accessor surface of one block.
type PlanOutput struct {
	File      string           `json:"file"`
	Block     string           `json:"block"`
	Accessors []AccessorOutput `json:"accessors"`
}

// AccessorOutput is one generated accessor.
type AccessorOutput struct {
	Name   string `json:"name"`
	GoName string `json:"go_name"`
	Field  string `json:"field"`
	Offset uint64 `json:"offset"`
	Access string `json:"access"`
}

const planUsage = `
Usage: regblock plan [options] [files...]

Prints the accessor surface each block would generate. Blocks with
violations are reported as in check.

Options:
  -json               Output results as JSON
  -config <file>      Manifest file
`

// RunPlan runs the plan command.
func RunPlan(args []string, stdout, stderr io.Writer) int {
	var (
		opts   commonOptions
		asJSON bool
	)
	fs := newFlagSet("plan")
	opts.register(fs)
	fs.BoolVar(&asJSON, "json", false, "Output results as JSON")
	if ok, code := parseFlags(fs, args, stderr, planUsage); !ok {
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
	outputs := []PlanOutput{}
	for _, path := range s.Inputs {
		_, results, err := c.CompileFile(context.Background(), path)
		if err != nil && results == nil {
			printError(stderr, "", err)
			exit = worst(exit, exitCodeFor(err))
			continue
		}
		for _, res := range results {
			if res.Err != nil {
				printError(stderr, "", res.Err)
				exit = worst(exit, exitCodeFor(res.Err))
				continue
			}
			if asJSON {
				outputs = append(outputs, planOutput(path, res))
			} else {
				printPlan(stdout, res)
			}
		}
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outputs); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitCommandError
		}
	}
	return exit
}

func planOutput(path string, res *compiler.Result) PlanOutput {
	out := PlanOutput{File: path, Block: res.Block.Name(), Accessors: []AccessorOutput{}}
	for _, a := range res.Surface {
		out.Accessors = append(out.Accessors, AccessorOutput{
			Name:   a.Name(),
			GoName: a.GoName(),
			Field:  a.Field.Name,
			Offset: a.Field.Offset,
			Access: a.Field.Access.String(),
		})
	}
	return out
}

func printPlan(w io.Writer, res *compiler.Result) {
	fmt.Fprintf(w, "%s (%d fields, %d accessors) -> %s\n",
		res.Block.Name(), res.Block.Len(), len(res.Surface), res.FileName)
	for _, p := range res.Plans {
		fmt.Fprintf(w, "  %-16s %-6s %s\n", p.Field.Range(), p.Field.Access, p.Field.Name)
		for _, a := range plan.Surface([]plan.AccessorPlan{p}) {
			fmt.Fprintf(w, "      %-20s %s\n", a.Name(), a.GoName())
		}
	}
}
