package mmio

// BaseAddress provides the origin a register block's offsets are added to.
// Resolution must be side-effect-free and stable for the lifetime of the
// handle built from it.
type BaseAddress interface {
	BaseAddress() uintptr
}

// Address is a fixed base address, either a compile-time constant or a value
// computed at run time.
type Address uintptr

// BaseAddress returns a.
func (a Address) BaseAddress() uintptr { return uintptr(a) }

// AddressFunc adapts a function to BaseAddress.
type AddressFunc func() uintptr

// BaseAddress calls f.
func (f AddressFunc) BaseAddress() uintptr { return f() }

// Compile-time interface satisfaction checks.
var (
	_ BaseAddress = Address(0)
	_ BaseAddress = AddressFunc(nil)
)
