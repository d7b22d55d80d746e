package mmio

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Word is a register word type.
type Word interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// ClearSentinel returns the value stored by a clear operation: every bit of
// the register word set.
func ClearSentinel[T Word]() T { return ^T(0) }

//go:noinline
func load[T Word](addr uintptr) T {
	p := unsafe.Pointer(addr)
	var zero T
	switch unsafe.Sizeof(zero) {
	case 8:
		return T(atomic.LoadUint64((*uint64)(p)))
	case 4:
		return T(atomic.LoadUint32((*uint32)(p)))
	default:
		return *(*T)(p)
	}
}

//go:noinline
func store[T Word](addr uintptr, v T) {
	p := unsafe.Pointer(addr)
	switch unsafe.Sizeof(v) {
	case 8:
		atomic.StoreUint64((*uint64)(p), uint64(v))
	case 4:
		atomic.StoreUint32((*uint32)(p), uint32(v))
	default:
		*(*T)(p) = v
	}
}

// RO is a read-only register.
type RO[T Word] struct{ addr uintptr }

// NewRO binds a read-only register at addr.
func NewRO[T Word](addr uintptr) RO[T] { return RO[T]{addr: addr} }

// Addr returns the absolute register address.
func (r RO[T]) Addr() uintptr { return r.addr }

// Load reads the register word.
func (r RO[T]) Load() T { return load[T](r.addr) }

func (r RO[T]) String() string { return fmt.Sprintf("RO@%#x", r.addr) }

// WO is a write-only register.
type WO[T Word] struct{ addr uintptr }

// NewWO binds a write-only register at addr.
func NewWO[T Word](addr uintptr) WO[T] { return WO[T]{addr: addr} }

// Addr returns the absolute register address.
func (r WO[T]) Addr() uintptr { return r.addr }

// Store writes v to the register.
func (r WO[T]) Store(v T) { store(r.addr, v) }

func (r WO[T]) String() string { return fmt.Sprintf("WO@%#x", r.addr) }

// RW is a read-write register.
type RW[T Word] struct{ addr uintptr }

// NewRW binds a read-write register at addr.
func NewRW[T Word](addr uintptr) RW[T] { return RW[T]{addr: addr} }

// Addr returns the absolute register address.
func (r RW[T]) Addr() uintptr { return r.addr }

// Load reads the register word.
func (r RW[T]) Load() T { return load[T](r.addr) }

// Store writes v to the register.
func (r RW[T]) Store(v T) { store(r.addr, v) }

func (r RW[T]) String() string { return fmt.Sprintf("RW@%#x", r.addr) }

// WC is a write-1-to-clear register. The only operation is Clear.
type WC[T Word] struct{ addr uintptr }

// NewWC binds a write-1-to-clear register at addr.
func NewWC[T Word](addr uintptr) WC[T] { return WC[T]{addr: addr} }

// Addr returns the absolute register address.
func (r WC[T]) Addr() uintptr { return r.addr }

// Clear stores ClearSentinel.
func (r WC[T]) Clear() { store(r.addr, ClearSentinel[T]()) }

func (r WC[T]) String() string { return fmt.Sprintf("WC@%#x", r.addr) }
