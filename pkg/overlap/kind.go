package overlap

import (
	"fmt"

	"github.com/HayleyDeckers/register-block/pkg/regmodel"
)

// OverlapKind describes which access modes collided.
type OverlapKind uint8

const (
	// NoConflict means the pair may share addresses.
	NoConflict OverlapKind = iota

	// RwRwOverlap is two read-write fields.
	RwRwOverlap

	// RwOtherOverlap is a read-write field and a field of any other mode.
	RwOtherOverlap

	// WoWoOverlap is two write-only fields.
	WoWoOverlap

	// WoClearOverlap is a write-only and a clear field.
	WoClearOverlap

	// ClearClearOverlap is two clear fields.
	ClearClearOverlap
)

// Kinds lists the conflicting kinds.
var Kinds = []OverlapKind{RwRwOverlap, RwOtherOverlap, WoWoOverlap, WoClearOverlap, ClearClearOverlap}

var kindInfo = [...]struct {
	name, rule, desc string
}{
	NoConflict:        {"NoConflict", "", "fields may share addresses"},
	RwRwOverlap:       {"RwRwOverlap", "RW-RW", "two read-write fields share addresses"},
	RwOtherOverlap:    {"RwOtherOverlap", "RW-ANY", "a read-write field must not share addresses with any other field"},
	WoWoOverlap:       {"WoWoOverlap", "WO-WO", "two write-only fields share addresses"},
	WoClearOverlap:    {"WoClearOverlap", "WO-CLEAR", "a write-only and a clear field share addresses"},
	ClearClearOverlap: {"ClearClearOverlap", "CLEAR-CLEAR", "two clear fields share addresses"},
}

func (k OverlapKind) valid() bool { return int(k) < len(kindInfo) }

// String returns the kind name.
func (k OverlapKind) String() string {
	if !k.valid() {
		return fmt.Sprintf("OverlapKind(%d)", uint8(k))
	}
	return kindInfo[k].name
}

// RuleID returns the stable rule identifier used in diagnostics.
func (k OverlapKind) RuleID() string {
	if !k.valid() {
		return "UNKNOWN"
	}
	return kindInfo[k].rule
}

// Description returns a human-readable statement of the violated rule.
func (k OverlapKind) Description() string {
	if !k.valid() {
		return "unknown overlap"
	}
	return kindInfo[k].desc
}

// Conflict returns true for every kind except NoConflict.
func (k OverlapKind) Conflict() bool { return k != NoConflict && k.valid() }

// MarshalText implements encoding.TextMarshaler.
func (k OverlapKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// matrix is indexed [a][b] and is symmetric.
var matrix = [4][4]OverlapKind{
	regmodel.AccessRW: {
		regmodel.AccessRW:    RwRwOverlap,
		regmodel.AccessRO:    RwOtherOverlap,
		regmodel.AccessWO:    RwOtherOverlap,
		regmodel.AccessClear: RwOtherOverlap,
	},
	regmodel.AccessRO: {
		regmodel.AccessRW:    RwOtherOverlap,
		regmodel.AccessRO:    NoConflict,
		regmodel.AccessWO:    NoConflict,
		regmodel.AccessClear: NoConflict,
	},
	regmodel.AccessWO: {
		regmodel.AccessRW:    RwOtherOverlap,
		regmodel.AccessRO:    NoConflict,
		regmodel.AccessWO:    WoWoOverlap,
		regmodel.AccessClear: WoClearOverlap,
	},
	regmodel.AccessClear: {
		regmodel.AccessRW:    RwOtherOverlap,
		regmodel.AccessRO:    NoConflict,
		regmodel.AccessWO:    WoClearOverlap,
		regmodel.AccessClear: ClearClearOverlap,
	},
}

// Classify returns the outcome of two fields with modes a and b sharing at
// least one address. Classify(a, b) == Classify(b, a).
func Classify(a, b regmodel.AccessMode) OverlapKind {
	if !a.Valid() || !b.Valid() {
		// An unknown mode has unknown side effects.
		return RwOtherOverlap
	}
	return matrix[a][b]
}
