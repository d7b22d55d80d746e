// Package mmio is the runtime used by generated register block accessors.
//
// A generated block resolves its BaseAddress once, at construction, and
// hands out capability handles bound to base+offset:
//
//	RO[T]  Load
//	WO[T]  Store
//	RW[T]  Load, Store
//	WC[T]  Clear (write-1-to-clear)
//
// A handle has exactly the methods its access mode allows, so an illegal
// access is a compile error rather than a run-time check.
//
// Every operation is a single load or store of the whole register word.
// 32- and 64-bit words use sync/atomic, which also orders the access with
// respect to other atomic operations; 64-bit registers must be 8-byte
// aligned. Nothing here arbitrates concurrent access to the hardware: callers
// serialize access to a peripheral where the device requires it.
//
// The clear sentinel is the all-ones word of the register width
// (ClearSentinel), matching the common write-1-to-clear convention. It is
// not configurable per field.
package mmio
