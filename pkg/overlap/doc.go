// Package overlap checks a register block for fields whose byte ranges
// intersect in a way that is unsafe for the hardware.
//
// # Compatibility Matrix
//
// Two fields whose ranges do not intersect never conflict. For intersecting
// fields the access modes decide:
//
//	        RW   RO   WO   Clear
//	RW      x    x    x    x
//	RO      x    -    -    -
//	WO      x    -    x    x
//	Clear   x    -    x    x
//
// A read-only view may share an address with a write-only or clear register
// (a status register mirrored at the address of a control register), and two
// read-only views of the same memory are always safe. Any RW field, or any
// pair of mutating fields, conflicts.
//
// Validate checks every unordered pair and returns every conflict; it never
// stops at the first one.
package overlap
