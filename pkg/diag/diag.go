// Package diag turns overlap violations into ordered, locatable reports.
//
// Reports are sorted by the declaration index of the first field and then of
// the second, so unchanged input always produces identical text.
package diag

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/HayleyDeckers/register-block/pkg/overlap"
	"github.com/HayleyDeckers/register-block/pkg/regmodel"
)

// FieldRef describes one side of a conflict.
type FieldRef struct {
	Name   string              `json:"name"`
	Offset uint64              `json:"offset"`
	Width  uint64              `json:"width"`
	Access regmodel.AccessMode `json:"access"`
	Pos    string              `json:"pos,omitempty"`

	index int
}

func refOf(b *regmodel.RegisterBlock, f regmodel.Field) FieldRef {
	ref := FieldRef{
		Name:   f.Name,
		Offset: f.Offset,
		Width:  f.Width,
		Access: f.Access,
		index:  b.Index(f.Name),
	}
	if f.Pos.IsValid() {
		ref.Pos = f.Pos.String()
	}
	return ref
}

func (r FieldRef) describe() string {
	return fmt.Sprintf("field %q [0x%02X,0x%02X) %s", r.Name, r.Offset, r.Offset+r.Width, r.Access)
}

// Report is one human-readable overlap diagnostic.
type Report struct {
	Block   string              `json:"block"`
	Rule    string              `json:"rule"`
	Kind    overlap.OverlapKind `json:"kind"`
	A       FieldRef            `json:"a"`
	B       FieldRef            `json:"b"`
	Message string              `json:"message"`
}

// Pos returns where the conflict is introduced: the later-declared field.
func (r Report) Pos() string { return r.B.Pos }

// String returns the full single-line diagnostic.
func (r Report) String() string {
	var sb strings.Builder
	if pos := r.Pos(); pos != "" {
		sb.WriteString(pos)
		sb.WriteString(": ")
	}
	sb.WriteString(fmt.Sprintf("block %q: %s", r.Block, r.Message))
	return sb.String()
}

// Reports converts violations of block b into reports ordered by first
// occurrence in b's field sequence. A always names the earlier-declared field.
func Reports(b *regmodel.RegisterBlock, violations []overlap.Violation) []Report {
	reports := make([]Report, 0, len(violations))
	for _, v := range violations {
		a, c := refOf(b, v.A), refOf(b, v.B)
		if c.index < a.index {
			a, c = c, a
		}
		reports = append(reports, Report{
			Block: b.Name(),
			Rule:  v.Kind.RuleID(),
			Kind:  v.Kind,
			A:     a,
			B:     c,
			Message: fmt.Sprintf("%s overlaps %s (%s: %s)",
				c.describe(), a.describe(), v.Kind.RuleID(), v.Kind.Description()),
		})
	}
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].A.index != reports[j].A.index {
			return reports[i].A.index < reports[j].A.index
		}
		return reports[i].B.index < reports[j].B.index
	})
	return reports
}

// ErrOverlap is matched by every *OverlapError via errors.Is.
var ErrOverlap = errors.New("overlap violation")

// OverlapError carries every overlap violation of one block. Code generation
// never runs for a block that produced one.
type OverlapError struct {
	Block   string
	Reports []Report
}

// NewOverlapError builds the error for block b, or returns nil when there
// are no violations.
func NewOverlapError(b *regmodel.RegisterBlock, violations []overlap.Violation) *OverlapError {
	if len(violations) == 0 {
		return nil
	}
	return &OverlapError{Block: b.Name(), Reports: Reports(b, violations)}
}

func (e *OverlapError) Error() string {
	var sb strings.Builder
	noun := "violations"
	if len(e.Reports) == 1 {
		noun = "violation"
	}
	fmt.Fprintf(&sb, "block %q: %d overlap %s", e.Block, len(e.Reports), noun)
	for _, r := range e.Reports {
		sb.WriteString("\n  ")
		sb.WriteString(r.String())
	}
	return sb.String()
}

// Is makes errors.Is(err, ErrOverlap) true.
func (e *OverlapError) Is(target error) bool { return target == ErrOverlap }
