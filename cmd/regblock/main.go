// Command regblock compiles memory-mapped register block declarations into
// Go accessor code.
//
// Usage:
//
//	regblock <command> [flags] [files...]
//
// Commands:
//
//	generate  Validate declarations and write <block>_gen.go files
//	check     Validate declarations and report every overlap violation
//	plan      Print the accessor surface of each block
//	trace     View a CBOR compile trace
//	explore   Interactive shell over a declaration file
//	version   Print version information
//
// Examples:
//
//	# Generate accessors for all blocks listed in ./regblock.yaml
//	regblock generate
//
//	# Check one file, machine-readable
//	regblock check -json periph.yaml
//
//	# Summarize the last run of a trace
//	regblock trace -last -format stats build/regblock.rbtrace
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/HayleyDeckers/register-block/cmd/regblock/commands"
	"github.com/HayleyDeckers/register-block/pkg/version"
)

const usage = `regblock - register block compiler

Usage:
  regblock <command> [flags] [files...]

Commands:
  generate   Validate declarations and write <block>_gen.go files
  check      Validate declarations and report every overlap violation
  plan       Print the accessor surface of each block
  trace      View a CBOR compile trace
  explore    Interactive shell over a declaration file
  version    Print version information

Declarations are read from .yaml/.yml files or from Go structs with
` + "`reg:\"offset=0x08,access=WO\"`" + ` field tags. Without file arguments the
inputs of ./regblock.yaml are used.

Use "regblock <command> -help" for more information about a command.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return commands.ExitCommandError
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "generate", "gen":
		return commands.RunGenerate(rest, stdout, stderr)
	case "check":
		return commands.RunCheck(rest, stdout, stderr)
	case "plan":
		return commands.RunPlan(rest, stdout, stderr)
	case "trace":
		return commands.RunTrace(rest, stdout, stderr)
	case "explore":
		return commands.RunExplore(rest, stdout, stderr)
	case "version", "-v", "--version":
		fmt.Fprintln(stdout, version.String())
		return commands.ExitSuccess
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return commands.ExitSuccess
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(stderr, usage)
		return commands.ExitCommandError
	}
}
