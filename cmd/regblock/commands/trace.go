package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/HayleyDeckers/register-block/pkg/log"
)

// TraceOptions configures the trace command.
type TraceOptions struct {
	Format   string
	RunID    string
	Block    string
	Stage    string
	Category string
	Last     bool
	Path     string
}

const traceUsage = `
Usage: regblock trace [options] <file>

Views a CBOR compile trace written with -trace.

Options:
  -format <fmt>       text (default), jsonl or stats
  -run <id>           Only events of this run (prefix match)
  -last               Only events of the most recent run
  -block <name>       Only events of this block
  -stage <stage>      load, validate, plan, emit or write
  -category <cat>     summary, violation, artifact or error
`

// RunTrace runs the trace command.
func RunTrace(args []string, stdout, stderr io.Writer) int {
	var opts TraceOptions
	fs := newFlagSet("trace")
	fs.StringVar(&opts.Format, "format", "text", "Output format")
	fs.StringVar(&opts.RunID, "run", "", "Run ID prefix")
	fs.BoolVar(&opts.Last, "last", false, "Most recent run only")
	fs.StringVar(&opts.Block, "block", "", "Block name")
	fs.StringVar(&opts.Stage, "stage", "", "Pipeline stage")
	fs.StringVar(&opts.Category, "category", "", "Event category")
	if ok, code := parseFlags(fs, args, stderr, traceUsage); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one trace file required")
		fmt.Fprint(stderr, traceUsage)
		return ExitCommandError
	}
	opts.Path = fs.Arg(0)

	events, err := readTrace(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitCommandError
	}

	switch opts.Format {
	case "text":
		for _, e := range events {
			formatEvent(stdout, e)
		}
	case "jsonl":
		enc := json.NewEncoder(stdout)
		for _, e := range events {
			if err := enc.Encode(e); err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return ExitCommandError
			}
		}
	case "stats":
		printTraceStats(stdout, computeStats(events))
	default:
		fmt.Fprintf(stderr, "Error: unknown format %q\n", opts.Format)
		return ExitCommandError
	}
	return ExitSuccess
}

func readTrace(opts TraceOptions) ([]log.Event, error) {
	filter := log.Filter{Block: opts.Block}
	if opts.Stage != "" {
		st, ok := log.ParseStage(opts.Stage)
		if !ok {
			return nil, fmt.Errorf("unknown stage %q", opts.Stage)
		}
		filter.Stage = &st
	}
	if opts.Category != "" {
		cat, ok := log.ParseCategory(opts.Category)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", opts.Category)
		}
		filter.Category = &cat
	}

	reader, err := log.NewFilteredReader(opts.Path, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer reader.Close()

	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read event: %w", err)
	}

	run := opts.RunID
	if opts.Last && len(all) > 0 {
		latest := all[0]
		for _, e := range all[1:] {
			if e.Timestamp.After(latest.Timestamp) {
				latest = e
			}
		}
		run = latest.RunID
	}
	if run == "" {
		return all, nil
	}
	var out []log.Event
	for _, e := range all {
		if strings.HasPrefix(e.RunID, run) {
			out = append(out, e)
		}
	}
	return out, nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, e log.Event) {
	ts := e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	block := e.Block
	if block == "" {
		block = "-"
	}
	fmt.Fprintf(w, "%s [run:%s] %-8s %-9s %s\n", ts, shortenRunID(e.RunID), e.Stage, e.Category, block)

	switch {
	case e.Summary != nil:
		s := e.Summary
		if s.Blocks > 0 {
			fmt.Fprintf(w, "  blocks=%d", s.Blocks)
		} else {
			fmt.Fprintf(w, "  fields=%d violations=%d accessors=%d", s.Fields, s.Violations, s.Accessors)
		}
		if e.Duration > 0 {
			fmt.Fprintf(w, " took=%s", formatDuration(e.Duration))
		}
		fmt.Fprintln(w)
	case e.Violation != nil:
		fmt.Fprintf(w, "  %s: %s overlaps %s\n", e.Violation.Rule, describeField(e.Violation.B), describeField(e.Violation.A))
	case e.Emit != nil:
		state := ""
		if e.Emit.Unchanged {
			state = " (unchanged)"
		}
		fmt.Fprintf(w, "  %s %d bytes %s%s\n", e.Emit.FileName, e.Emit.Size, e.Emit.Fingerprint, state)
		if len(e.Emit.Accessors) > 0 {
			fmt.Fprintf(w, "  accessors: %s\n", strings.Join(e.Emit.Accessors, ", "))
		}
	case e.Error != nil:
		fmt.Fprintf(w, "  error (%s): %s\n", e.Error.Kind, e.Error.Message)
	}
}

func describeField(f log.FieldInfo) string {
	s := fmt.Sprintf("%s [0x%02X,0x%02X) %s", f.Name, f.Offset, f.Offset+f.Width, f.Access)
	if f.Pos != "" {
		s += " at " + f.Pos
	}
	return s
}

// shortenRunID returns the first 8 characters of the run ID.
func shortenRunID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	default:
		return d.Round(time.Millisecond).String()
	}
}

// TraceStats holds aggregate statistics about a trace.
type TraceStats struct {
	TotalEvents      int
	Runs             int
	EventsByStage    map[log.Stage]int
	EventsByCategory map[log.Category]int
	ViolationsByRule map[string]int
	Blocks           map[string]int
	Artifacts        int
	Unchanged        int
	Errors           int
	Start, End       time.Time
}

func computeStats(events []log.Event) *TraceStats {
	stats := &TraceStats{
		EventsByStage:    make(map[log.Stage]int),
		EventsByCategory: make(map[log.Category]int),
		ViolationsByRule: make(map[string]int),
		Blocks:           make(map[string]int),
	}
	runs := make(map[string]bool)
	for _, e := range events {
		stats.TotalEvents++
		runs[e.RunID] = true
		stats.EventsByStage[e.Stage]++
		stats.EventsByCategory[e.Category]++
		if e.Block != "" {
			stats.Blocks[e.Block]++
		}
		if stats.Start.IsZero() || e.Timestamp.Before(stats.Start) {
			stats.Start = e.Timestamp
		}
		if e.Timestamp.After(stats.End) {
			stats.End = e.Timestamp
		}
		switch {
		case e.Violation != nil:
			stats.ViolationsByRule[e.Violation.Rule]++
		case e.Emit != nil && e.Stage == log.StageWrite:
			stats.Artifacts++
			if e.Emit.Unchanged {
				stats.Unchanged++
			}
		case e.Error != nil:
			stats.Errors++
		}
	}
	stats.Runs = len(runs)
	return stats
}

func printTraceStats(w io.Writer, stats *TraceStats) {
	fmt.Fprintln(w, "=== regblock Compile Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.Start.Format(time.RFC3339), stats.End.Format(time.RFC3339))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Runs:         %d\n", stats.Runs)
	fmt.Fprintf(w, "Blocks:       %d\n", len(stats.Blocks))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Stage:")
	for _, st := range log.Stages {
		if count := stats.EventsByStage[st]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", st.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range log.Categories {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}

	if len(stats.ViolationsByRule) > 0 {
		rules := make([]string, 0, len(stats.ViolationsByRule))
		for r := range stats.ViolationsByRule {
			rules = append(rules, r)
		}
		sort.Strings(rules)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Violations by Rule:")
		for _, r := range rules {
			fmt.Fprintf(w, "  %-12s %d\n", r+":", stats.ViolationsByRule[r])
		}
	}

	if stats.Artifacts > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Files: %d written, %d unchanged\n", stats.Artifacts-stats.Unchanged, stats.Unchanged)
	}
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
