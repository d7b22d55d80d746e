package log

import (
	"strings"
	"time"
)

// Event is one compile trace record.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID identifies one compiler invocation (UUID).
	RunID string `cbor:"2,keyasint"`

	// Block is the register block the event belongs to, empty for run-level
	// events.
	Block string `cbor:"3,keyasint,omitempty"`

	// Stage is the pipeline stage that produced the event.
	Stage Stage `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Source is the declaration file the block was read from.
	Source string `cbor:"6,keyasint,omitempty"`

	// Duration of the stage. Stored as nanoseconds.
	Duration time.Duration `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (at most one of these is set).
	Summary   *SummaryEvent   `cbor:"10,keyasint,omitempty"` // Stage completed
	Violation *ViolationEvent `cbor:"11,keyasint,omitempty"` // Overlap violation
	Emit      *EmitEvent      `cbor:"12,keyasint,omitempty"` // Generated file
	Error     *ErrorEventData `cbor:"13,keyasint,omitempty"` // Failure at any stage
}

// Stage is a compiler pipeline stage.
type Stage uint8

const (
	// StageLoad reads and normalizes declarations.
	StageLoad Stage = 0
	// StageValidate runs the overlap validator.
	StageValidate Stage = 1
	// StagePlan derives accessor plans.
	StagePlan Stage = 2
	// StageEmit generates Go source.
	StageEmit Stage = 3
	// StageWrite writes generated files.
	StageWrite Stage = 4
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{StageLoad, StageValidate, StagePlan, StageEmit, StageWrite}

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageLoad:
		return "LOAD"
	case StageValidate:
		return "VALIDATE"
	case StagePlan:
		return "PLAN"
	case StageEmit:
		return "EMIT"
	case StageWrite:
		return "WRITE"
	default:
		return "UNKNOWN"
	}
}

// ParseStage parses a stage name as printed by String, case-insensitively.
func ParseStage(s string) (Stage, bool) {
	for _, st := range Stages {
		if strings.EqualFold(st.String(), s) {
			return st, true
		}
	}
	return 0, false
}

// Category classifies the event type.
type Category uint8

const (
	// CategorySummary marks a completed stage.
	CategorySummary Category = 0
	// CategoryViolation marks an overlap violation.
	CategoryViolation Category = 1
	// CategoryArtifact marks a generated file.
	CategoryArtifact Category = 2
	// CategoryError marks a failure.
	CategoryError Category = 3
)

// Categories lists every category.
var Categories = []Category{CategorySummary, CategoryViolation, CategoryArtifact, CategoryError}

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategorySummary:
		return "SUMMARY"
	case CategoryViolation:
		return "VIOLATION"
	case CategoryArtifact:
		return "ARTIFACT"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name, case-insensitively.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(c.String(), s) {
			return c, true
		}
	}
	return 0, false
}

// SummaryEvent carries the counters of a completed stage.
type SummaryEvent struct {
	// Blocks processed (run-level events only).
	Blocks int `cbor:"1,keyasint,omitempty"`

	// Fields in the block.
	Fields int `cbor:"2,keyasint,omitempty"`

	// Violations found by the validator.
	Violations int `cbor:"3,keyasint,omitempty"`

	// Accessors in the planned surface.
	Accessors int `cbor:"4,keyasint,omitempty"`
}

// FieldInfo identifies a field in a violation.
type FieldInfo struct {
	Name   string `cbor:"1,keyasint"`
	Offset uint64 `cbor:"2,keyasint"`
	Width  uint64 `cbor:"3,keyasint"`
	Access string `cbor:"4,keyasint"`
	Pos    string `cbor:"5,keyasint,omitempty"`
}

// ViolationEvent captures one overlap violation.
type ViolationEvent struct {
	// Rule is the stable rule ID, e.g. "RW-ANY".
	Rule string `cbor:"1,keyasint"`

	// A is the earlier declared field, B the later one.
	A FieldInfo `cbor:"2,keyasint"`
	B FieldInfo `cbor:"3,keyasint"`

	// Message is the rendered diagnostic.
	Message string `cbor:"4,keyasint,omitempty"`
}

// EmitEvent captures a generated file.
type EmitEvent struct {
	// FileName is the output file name.
	FileName string `cbor:"1,keyasint"`

	// Fingerprint of the block the file was generated from.
	Fingerprint string `cbor:"2,keyasint"`

	// Size of the generated source in bytes.
	Size int `cbor:"3,keyasint"`

	// Accessors lists the generated accessor names (read_x, write_x, ...).
	Accessors []string `cbor:"4,keyasint,omitempty"`

	// Unchanged is set when the write stage skipped an up-to-date file.
	Unchanged bool `cbor:"5,keyasint,omitempty"`
}

// ErrorEventData captures a failure.
type ErrorEventData struct {
	// Message is the error text.
	Message string `cbor:"1,keyasint"`

	// Kind classifies the error ("malformed", "overlap", "emit", "io", ...).
	Kind string `cbor:"2,keyasint,omitempty"`
}
