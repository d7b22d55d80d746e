// Package compiler runs the register block pipeline: validate, plan, emit.
//
// A block with overlap violations never reaches the emitter. Blocks are
// independent, so CompileAll processes them in parallel and reports every
// failing block rather than the first.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/HayleyDeckers/register-block/pkg/diag"
	"github.com/HayleyDeckers/register-block/pkg/emit"
	"github.com/HayleyDeckers/register-block/pkg/log"
	"github.com/HayleyDeckers/register-block/pkg/overlap"
	"github.com/HayleyDeckers/register-block/pkg/plan"
	"github.com/HayleyDeckers/register-block/pkg/regmodel"
)

// ErrDuplicateBlock is returned by CompileAll when two blocks share a name.
var ErrDuplicateBlock = errors.New("duplicate block name")

// Compiler compiles register blocks to Go accessor code.
// The zero value is usable.
type Compiler struct {
	// Options configures code generation.
	Options emit.Options

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Trace receives compile trace events. If nil, tracing is disabled.
	Trace log.Logger

	// Parallelism bounds the number of blocks compiled at once by
	// CompileAll. Zero means GOMAXPROCS.
	Parallelism int

	now func() time.Time
}

// Result holds the outcome of compiling one block. Fields after Block are
// filled up to the stage that failed.
type Result struct {
	Block *regmodel.RegisterBlock
	RunID string

	// Violations and Reports describe overlap conflicts, if any.
	Violations []overlap.Violation
	Reports    []diag.Report

	Plans   []plan.AccessorPlan
	Surface []plan.Accessor

	// Code is the formatted generated source.
	Code        []byte
	FileName    string
	Fingerprint string

	// Err is the error Compile returned for this block.
	Err error
}

// OK reports whether the block compiled.
func (r *Result) OK() bool { return r.Err == nil }

// Compile compiles a single block under a fresh run ID. The returned Result
// is never nil; on failure it carries the error in Err as well.
func (c *Compiler) Compile(ctx context.Context, b *regmodel.RegisterBlock) (*Result, error) {
	res := c.compile(ctx, NewRunID(), b)
	return res, res.Err
}

// CompileAll compiles every block under one run ID. Results are in input
// order and never nil. The returned error joins the error of every failed
// block.
func (c *Compiler) CompileAll(ctx context.Context, blocks []*regmodel.RegisterBlock) ([]*Result, error) {
	runID := NewRunID()
	if err := checkNames(blocks); err != nil {
		c.trace(log.Event{RunID: runID, Stage: log.StageLoad, Category: log.CategoryError,
			Error: &log.ErrorEventData{Message: err.Error(), Kind: "duplicate"}})
		return nil, err
	}

	limit := c.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	start := c.clock()
	results := make([]*Result, len(blocks))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, b := range blocks {
		g.Go(func() error {
			results[i] = c.compile(ctx, runID, b)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
			failed++
		}
	}
	c.debugLog("compile run finished", "run", runID, "blocks", len(blocks), "failed", failed)
	c.trace(log.Event{RunID: runID, Stage: log.StageEmit, Category: log.CategorySummary,
		Source: c.Options.Source, Duration: c.clock().Sub(start), Summary: &log.SummaryEvent{Blocks: len(blocks)}})
	return results, errors.Join(errs...)
}

func (c *Compiler) compile(ctx context.Context, runID string, b *regmodel.RegisterBlock) *Result {
	res := &Result{Block: b, RunID: runID}
	fail := func(stage log.Stage, kind string, err error) *Result {
		res.Err = err
		c.debugLog("compile failed", "run", runID, "block", b.Name(), "stage", stage.String(), "error", err)
		c.trace(c.event(runID, b, stage, log.CategoryError, 0, func(e *log.Event) {
			e.Error = &log.ErrorEventData{Message: err.Error(), Kind: kind}
		}))
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(log.StageValidate, "canceled", err)
	}

	// Validate.
	start := c.clock()
	res.Violations = overlap.ValidateBlock(b)
	res.Reports = diag.Reports(b, res.Violations)
	c.trace(c.event(runID, b, log.StageValidate, log.CategorySummary, c.clock().Sub(start), func(e *log.Event) {
		e.Summary = &log.SummaryEvent{Fields: b.Len(), Violations: len(res.Violations)}
	}))
	for _, r := range res.Reports {
		c.trace(c.event(runID, b, log.StageValidate, log.CategoryViolation, 0, func(e *log.Event) {
			e.Violation = &log.ViolationEvent{Rule: r.Rule, A: fieldInfo(r.A), B: fieldInfo(r.B), Message: r.String()}
		}))
	}
	if len(res.Violations) > 0 {
		return fail(log.StageValidate, "overlap", &diag.OverlapError{Block: b.Name(), Reports: res.Reports})
	}

	// Plan.
	res.Plans = plan.Block(b)
	res.Surface = plan.Surface(res.Plans)
	c.trace(c.event(runID, b, log.StagePlan, log.CategorySummary, 0, func(e *log.Event) {
		e.Summary = &log.SummaryEvent{Fields: b.Len(), Accessors: len(res.Surface)}
	}))

	if err := ctx.Err(); err != nil {
		return fail(log.StagePlan, "canceled", err)
	}

	// Emit.
	start = c.clock()
	code, err := emit.Generate(b, res.Plans, c.Options)
	if err != nil {
		return fail(log.StageEmit, "emit", fmt.Errorf("block %s: %w", b.Name(), err))
	}
	res.Code = code
	res.FileName = emit.FileName(b)
	res.Fingerprint = emit.Fingerprint(b, c.Options)
	c.trace(c.event(runID, b, log.StageEmit, log.CategoryArtifact, c.clock().Sub(start), func(e *log.Event) {
		e.Emit = &log.EmitEvent{
			FileName:    res.FileName,
			Fingerprint: res.Fingerprint,
			Size:        len(code),
			Accessors:   plan.Names(res.Surface),
		}
	}))
	c.debugLog("block compiled", "run", runID, "block", b.Name(), "accessors", len(res.Surface), "bytes", len(code))
	return res
}

func (c *Compiler) event(runID string, b *regmodel.RegisterBlock, stage log.Stage, cat log.Category, d time.Duration, fill func(*log.Event)) log.Event {
	e := log.Event{
		Timestamp: c.clock(),
		RunID:     runID,
		Block:     b.Name(),
		Stage:     stage,
		Category:  cat,
		Source:    c.Options.Source,
		Duration:  d,
	}
	fill(&e)
	return e
}

func (c *Compiler) traceLoadError(path string, err error) {
	kind := "load"
	if errors.Is(err, regmodel.ErrMalformedField) {
		kind = "malformed"
	}
	c.trace(log.Event{RunID: NewRunID(), Stage: log.StageLoad, Category: log.CategoryError, Source: path,
		Error: &log.ErrorEventData{Message: err.Error(), Kind: kind}})
}

func fieldInfo(r diag.FieldRef) log.FieldInfo {
	return log.FieldInfo{Name: r.Name, Offset: r.Offset, Width: r.Width, Access: r.Access.String(), Pos: r.Pos}
}

func (c *Compiler) trace(e log.Event) {
	if c.Trace == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = c.clock()
	}
	c.Trace.Log(e)
}

func (c *Compiler) debugLog(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Debug(msg, args...)
	}
}

func (c *Compiler) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func checkNames(blocks []*regmodel.RegisterBlock) error {
	seen := make(map[string]bool, len(blocks))
	var errs []error
	for _, b := range blocks {
		if seen[b.Name()] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateBlock, b.Name()))
			continue
		}
		seen[b.Name()] = true
	}
	return errors.Join(errs...)
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.New().String() }
