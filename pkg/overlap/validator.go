package overlap

import (
	"fmt"

	"github.com/HayleyDeckers/register-block/pkg/regmodel"
)

// Violation is one conflicting pair. A precedes B in declaration order.
type Violation struct {
	A, B regmodel.Field

	// IndexA and IndexB are the declaration indices of A and B.
	IndexA, IndexB int

	Kind OverlapKind
}

// String returns a compact form like "a@0x00/RW <> b@0x00/RO: RwOtherOverlap".
func (v Violation) String() string {
	return fmt.Sprintf("%s <> %s: %s", v.A, v.B, v.Kind)
}

// Pair returns the two field names in declaration order.
func (v Violation) Pair() (string, string) { return v.A.Name, v.B.Name }

// Check returns the violation for one pair of fields, if any.
func Check(a, b regmodel.Field) (OverlapKind, bool) {
	if !a.Overlaps(b) {
		return NoConflict, false
	}
	kind := Classify(a.Access, b.Access)
	return kind, kind.Conflict()
}

// Validate checks every unordered pair of distinct fields and returns every
// conflict, ordered by the declaration index of the first and then the
// second field. The set of conflicting pairs does not depend on the order of
// fields; only the display order does.
//
// The check is quadratic. Register blocks hold tens of fields; an interval
// tree would only pay off for very large blocks.
func Validate(fields []regmodel.Field) []Violation {
	var violations []Violation
	for i := 0; i < len(fields); i++ {
		for j := i + 1; j < len(fields); j++ {
			kind, conflict := Check(fields[i], fields[j])
			if !conflict {
				continue
			}
			violations = append(violations, Violation{
				A:      fields[i],
				B:      fields[j],
				IndexA: i,
				IndexB: j,
				Kind:   kind,
			})
		}
	}
	return violations
}

// ValidateBlock validates the fields of a block.
func ValidateBlock(b *regmodel.RegisterBlock) []Violation {
	return Validate(b.Fields())
}

// Clean returns true if the block has no violations.
func Clean(b *regmodel.RegisterBlock) bool {
	return len(ValidateBlock(b)) == 0
}

// Key identifies a violation independently of declaration order. Names are
// unique within a block, so the sorted name pair identifies the pair.
type Key struct {
	First, Second string
	Kind          OverlapKind
}

// KeyOf returns the order-independent key of v.
func KeyOf(v Violation) Key {
	a, b := v.A.Name, v.B.Name
	if b < a {
		a, b = b, a
	}
	return Key{First: a, Second: b, Kind: v.Kind}
}

// Set returns the order-independent set of violation keys.
func Set(violations []Violation) map[Key]struct{} {
	set := make(map[Key]struct{}, len(violations))
	for _, v := range violations {
		set[KeyOf(v)] = struct{}{}
	}
	return set
}
