package regmodel

import (
	"errors"
	"fmt"
)

// RegisterBlock is a named, ordered group of fields. It owns its fields and
// is immutable once constructed: accessors hand out copies.
type RegisterBlock struct {
	name        string
	description string
	fields      []Field
}

// NewRegisterBlock builds a block from normalized fields. Field names must be
// unique within the block; every duplicate is reported.
func NewRegisterBlock(name, description string, fields []Field) (*RegisterBlock, error) {
	if !IsIdentifier(name) {
		return nil, fmt.Errorf("block name %q is not an identifier", name)
	}

	var errs []error
	seen := make(map[string]Field, len(fields))
	for _, f := range fields {
		if first, dup := seen[f.Name]; dup {
			reason := "duplicate field name"
			if first.Pos.IsValid() {
				reason = fmt.Sprintf("duplicate field name (first declared at %s)", first.Pos)
			}
			errs = append(errs, &MalformedFieldError{Block: name, Field: f.Name, Pos: f.Pos, Reason: reason})
			continue
		}
		seen[f.Name] = f
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	owned := make([]Field, len(fields))
	copy(owned, fields)
	return &RegisterBlock{name: name, description: description, fields: owned}, nil
}

// Name returns the block name.
func (b *RegisterBlock) Name() string { return b.name }

// Description returns the block documentation text.
func (b *RegisterBlock) Description() string { return b.description }

// Len returns the number of fields.
func (b *RegisterBlock) Len() int { return len(b.fields) }

// Field returns the i-th field in declaration order.
func (b *RegisterBlock) Field(i int) Field { return b.fields[i] }

// Fields returns a copy of the fields in declaration order.
func (b *RegisterBlock) Fields() []Field {
	out := make([]Field, len(b.fields))
	copy(out, b.fields)
	return out
}

// Lookup returns the field with the given name.
func (b *RegisterBlock) Lookup(name string) (Field, bool) {
	for _, f := range b.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Index returns the declaration index of the named field, or -1.
func (b *RegisterBlock) Index(name string) int {
	for i, f := range b.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Size returns the extent of the block in bytes: the largest field end.
func (b *RegisterBlock) Size() uint64 {
	var size uint64
	for _, f := range b.fields {
		if f.End() > size {
			size = f.End()
		}
	}
	return size
}
