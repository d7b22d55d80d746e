package overlap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HayleyDeckers/register-block/pkg/regmodel"
)

func field(name string, off uint64, mode regmodel.AccessMode) regmodel.Field {
	return regmodel.Field{Name: name, Offset: off, Width: 4, Access: mode}
}

func TestClassify_Matrix(t *testing.T) {
	const (
		RW = regmodel.AccessRW
		RO = regmodel.AccessRO
		WO = regmodel.AccessWO
		CL = regmodel.AccessClear
	)
	tests := []struct {
		a, b regmodel.AccessMode
		want OverlapKind
	}{
		{RW, RW, RwRwOverlap},
		{RW, RO, RwOtherOverlap},
		{RW, WO, RwOtherOverlap},
		{RW, CL, RwOtherOverlap},
		{RO, RO, NoConflict},
		{RO, WO, NoConflict},
		{RO, CL, NoConflict},
		{WO, WO, WoWoOverlap},
		{WO, CL, WoClearOverlap},
		{CL, CL, ClearClearOverlap},
	}
	for _, tt := range tests {
		if got := Classify(tt.a, tt.b); got != tt.want {
			t.Errorf("Classify(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := Classify(tt.b, tt.a); got != tt.want {
			t.Errorf("Classify(%v, %v) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
		}
	}
}

func TestClassify_UnknownMode(t *testing.T) {
	assert.Equal(t, RwOtherOverlap, Classify(regmodel.AccessMode(7), regmodel.AccessRO))
}

func TestValidate_DisjointNeverConflicts(t *testing.T) {
	for _, a := range regmodel.AccessModes {
		for _, b := range regmodel.AccessModes {
			fields := []regmodel.Field{field("a", 0x00, a), field("b", 0x04, b)}
			assert.Empty(t, Validate(fields), "%v/%v adjacent fields", a, b)
		}
	}
}

func TestValidate_OverlapProperties(t *testing.T) {
	// Full overlap, partial overlap and containment are treated alike.
	geometries := []struct {
		name string
		a, b regmodel.Field
	}{
		{"full", regmodel.Field{Offset: 0, Width: 4}, regmodel.Field{Offset: 0, Width: 4}},
		{"partial", regmodel.Field{Offset: 0, Width: 4}, regmodel.Field{Offset: 2, Width: 4}},
		{"contained", regmodel.Field{Offset: 0, Width: 8}, regmodel.Field{Offset: 4, Width: 1}},
	}

	for _, g := range geometries {
		for _, ma := range regmodel.AccessModes {
			for _, mb := range regmodel.AccessModes {
				a, b := g.a, g.b
				a.Name, a.Access = "a", ma
				b.Name, b.Access = "b", mb

				got := Validate([]regmodel.Field{a, b})

				switch {
				case ma == regmodel.AccessRW || mb == regmodel.AccessRW:
					assert.Len(t, got, 1, "%s %v/%v: RW always conflicts", g.name, ma, mb)
				case ma == regmodel.AccessRO || mb == regmodel.AccessRO:
					assert.Empty(t, got, "%s %v/%v: RO views never conflict", g.name, ma, mb)
				default:
					assert.Len(t, got, 1, "%s %v/%v: mutating pairs conflict", g.name, ma, mb)
				}
			}
		}
	}
}

func TestValidate_WorkedExample(t *testing.T) {
	fields := []regmodel.Field{
		field("dr", 0x00, regmodel.AccessRW),
		field("sr", 0x04, regmodel.AccessRO),
		field("ecr", 0x08, regmodel.AccessWO),
		field("icr", 0x0C, regmodel.AccessClear),
		field("sr_ro", 0x08, regmodel.AccessRO),
	}
	assert.Empty(t, Validate(fields))
}

func TestValidate_RwRoFullOverlap(t *testing.T) {
	got := Validate([]regmodel.Field{
		field("a", 0x00, regmodel.AccessRW),
		field("b", 0x00, regmodel.AccessRO),
	})
	require.Len(t, got, 1)
	a, b := got[0].Pair()
	assert.Equal(t, "a", a)
	assert.Equal(t, "b", b)
	assert.Equal(t, RwOtherOverlap, got[0].Kind)
}

func TestValidate_WoPartialOverlap(t *testing.T) {
	got := Validate([]regmodel.Field{
		field("a", 0x00, regmodel.AccessWO),
		field("b", 0x02, regmodel.AccessWO),
	})
	require.Len(t, got, 1)
	assert.Equal(t, WoWoOverlap, got[0].Kind)
	assert.Equal(t, "a@0x00/WO <> b@0x02/WO: WoWoOverlap", got[0].String())
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	fields := []regmodel.Field{
		field("a", 0x00, regmodel.AccessRW),
		field("b", 0x00, regmodel.AccessRW),
		field("c", 0x00, regmodel.AccessWO),
		field("d", 0x10, regmodel.AccessClear),
		field("e", 0x10, regmodel.AccessClear),
	}
	got := Validate(fields)
	require.Len(t, got, 4)

	// Ordered by first, then second declaration index.
	assert.Equal(t, [2]int{0, 1}, [2]int{got[0].IndexA, got[0].IndexB})
	assert.Equal(t, RwRwOverlap, got[0].Kind)
	assert.Equal(t, [2]int{0, 2}, [2]int{got[1].IndexA, got[1].IndexB})
	assert.Equal(t, RwOtherOverlap, got[1].Kind)
	assert.Equal(t, [2]int{1, 2}, [2]int{got[2].IndexA, got[2].IndexB})
	assert.Equal(t, [2]int{3, 4}, [2]int{got[3].IndexA, got[3].IndexB})
	assert.Equal(t, ClearClearOverlap, got[3].Kind)
}

func TestValidate_OrderIndependent(t *testing.T) {
	fields := []regmodel.Field{
		field("a", 0x00, regmodel.AccessRW),
		field("b", 0x02, regmodel.AccessRO),
		field("c", 0x04, regmodel.AccessWO),
		field("d", 0x04, regmodel.AccessClear),
		field("e", 0x06, regmodel.AccessRO),
		field("f", 0x08, regmodel.AccessWO),
		field("g", 0x20, regmodel.AccessRW),
	}
	want := Set(Validate(fields))
	require.NotEmpty(t, want)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		shuffled := make([]regmodel.Field, len(fields))
		copy(shuffled, fields)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := Validate(shuffled)
		assert.Equal(t, len(want), len(got))
		assert.Equal(t, want, Set(got))
	}
}

func TestValidateBlock(t *testing.T) {
	b, err := regmodel.NewRegisterBlock("Regs", "", []regmodel.Field{
		field("a", 0x00, regmodel.AccessWO),
		field("b", 0x00, regmodel.AccessClear),
	})
	require.NoError(t, err)

	got := ValidateBlock(b)
	require.Len(t, got, 1)
	assert.Equal(t, WoClearOverlap, got[0].Kind)
	assert.False(t, Clean(b))
}

func TestOverlapKindStrings(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.Conflict(), k.String())
		assert.NotEqual(t, "UNKNOWN", k.RuleID())
		assert.NotEmpty(t, k.Description())
	}
	assert.False(t, NoConflict.Conflict())
	assert.Equal(t, "RW-ANY", RwOtherOverlap.RuleID())
	assert.Equal(t, "OverlapKind(42)", OverlapKind(42).String())
	assert.False(t, OverlapKind(42).Conflict())
}
