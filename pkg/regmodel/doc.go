// Package regmodel implements the normalized register block model.
//
// # Model Hierarchy
//
//	RegisterBlock > Field
//
// A RegisterBlock is a named group of memory-mapped fields describing one
// peripheral's control/status interface. Each Field occupies the byte range
// [Offset, Offset+Width) relative to the block's base address and carries
// an AccessMode.
//
// # Access Modes
//
//	RW     read and write
//	RO     read only
//	WO     write only
//	Clear  write-1-to-clear: a single store of the all-ones sentinel
//
// # Normalization
//
// Front-ends hand raw tuples to NewField, which either returns a Field or
// a *MalformedFieldError. Offsets are not required to be unique: overlapping
// fields are the subject of the overlap validator, not a model error.
package regmodel
