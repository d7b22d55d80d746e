//go:build linux

package mmio

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrClosed is returned when using a Mapping after Close.
var ErrClosed = errors.New("mmio: mapping closed")

// Mapping is a memory mapping usable as a BaseAddress. It is either a window
// onto physical device memory or anonymous scratch memory for simulation.
type Mapping struct {
	mu     sync.Mutex
	mem    []byte
	offset int
	size   int
}

// MapPhysical maps size bytes of physical memory starting at phys through a
// memory device such as /dev/mem. phys need not be page aligned.
func MapPhysical(path string, phys int64, size int) (*Mapping, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmio: invalid mapping size %d", size)
	}
	if phys < 0 {
		return nil, fmt.Errorf("mmio: invalid physical address %#x", phys)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("mmio: opening %s: %w", path, err)
	}
	defer f.Close()

	page := int64(unix.Getpagesize())
	aligned := phys &^ (page - 1)
	delta := int(phys - aligned)

	mem, err := unix.Mmap(int(f.Fd()), aligned, delta+size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmio: mapping %#x+%#x: %w", phys, size, err)
	}
	return &Mapping{mem: mem, offset: delta, size: size}, nil
}

// MapAnonymous maps size bytes of zeroed, page-aligned scratch memory.
func MapAnonymous(size int) (*Mapping, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmio: invalid mapping size %d", size)
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmio: anonymous mapping of %d bytes: %w", size, err)
	}
	return &Mapping{mem: mem, size: size}, nil
}

// BaseAddress returns the virtual address of the first mapped byte. It
// panics after Close.
func (m *Mapping) BaseAddress() uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mem == nil {
		panic(ErrClosed)
	}
	return uintptr(unsafe.Pointer(&m.mem[m.offset]))
}

// Size returns the number of usable bytes.
func (m *Mapping) Size() int { return m.size }

// Bytes returns the mapped window. Writes through the slice are plain
// stores; use register handles for device access.
func (m *Mapping) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mem == nil {
		return nil
	}
	return m.mem[m.offset : m.offset+m.size]
}

// Close unmaps the memory. It is safe to call Close multiple times.
func (m *Mapping) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mem == nil {
		return nil
	}
	err := unix.Munmap(m.mem)
	m.mem = nil
	return err
}

// Compile-time interface satisfaction check.
var _ BaseAddress = (*Mapping)(nil)
