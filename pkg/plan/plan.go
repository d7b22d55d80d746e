// Package plan derives, per field, exactly the accessor operations its access
// mode allows.
package plan

import (
	"strings"

	"github.com/HayleyDeckers/register-block/pkg/regmodel"
)

// Operation is one generated accessor operation.
type Operation uint8

const (
	// Read is a single ordered load returning the raw register word.
	Read Operation = 1 << iota

	// Write is a single ordered store of a caller-supplied word.
	Write

	// Clear is a single ordered store of the all-ones sentinel.
	Clear
)

// Operations lists every operation in emission order.
var Operations = []Operation{Read, Write, Clear}

// String returns the lower-case operation name used as accessor prefix.
func (op Operation) String() string {
	switch op {
	case Read:
		return "read"
	case Write:
		return "write"
	case Clear:
		return "clear"
	default:
		return "unknown"
	}
}

// Set is a set of operations.
type Set uint8

// Has returns true if op is in the set.
func (s Set) Has(op Operation) bool { return s&Set(op) != 0 }

// Operations returns the members in emission order.
func (s Set) Operations() []Operation {
	var ops []Operation
	for _, op := range Operations {
		if s.Has(op) {
			ops = append(ops, op)
		}
	}
	return ops
}

// String returns the set as "{read, write}".
func (s Set) String() string {
	ops := s.Operations()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.String()
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// For maps an access mode to its operations. The mapping is total.
func For(mode regmodel.AccessMode) Set {
	switch mode {
	case regmodel.AccessRW:
		return Set(Read | Write)
	case regmodel.AccessRO:
		return Set(Read)
	case regmodel.AccessWO:
		return Set(Write)
	case regmodel.AccessClear:
		return Set(Clear)
	default:
		return 0
	}
}

// AccessorPlan is the operation set planned for one field.
type AccessorPlan struct {
	Field      regmodel.Field
	Operations Set
}

// Block plans every field of a block in declaration order. It performs no
// validation; callers run the overlap validator first.
func Block(b *regmodel.RegisterBlock) []AccessorPlan {
	plans := make([]AccessorPlan, 0, b.Len())
	for _, f := range b.Fields() {
		plans = append(plans, AccessorPlan{Field: f, Operations: For(f.Access)})
	}
	return plans
}

// Accessor is one entry point of the generated surface.
type Accessor struct {
	Op    Operation
	Field regmodel.Field
}

// Name returns the stable surface name, e.g. "read_sr_ro".
func (a Accessor) Name() string {
	return a.Op.String() + "_" + a.Field.Name
}

// GoName returns the exported Go method name, e.g. "ReadSrRo".
func (a Accessor) GoName() string {
	return GoName(a.Op.String()) + GoName(a.Field.Name)
}

// Surface lists every accessor the plans produce, field by field in
// declaration order and read, write, clear within a field.
func Surface(plans []AccessorPlan) []Accessor {
	var out []Accessor
	for _, p := range plans {
		for _, op := range p.Operations.Operations() {
			out = append(out, Accessor{Op: op, Field: p.Field})
		}
	}
	return out
}

// Names returns the surface names of accessors.
func Names(accessors []Accessor) []string {
	names := make([]string, len(accessors))
	for i, a := range accessors {
		names[i] = a.Name()
	}
	return names
}
