package regmodel

import (
	"fmt"
	"strings"
)

// AccessMode is the permitted operation set for a field.
type AccessMode uint8

const (
	// AccessRW allows both reading and writing.
	AccessRW AccessMode = iota

	// AccessRO allows reading only.
	AccessRO

	// AccessWO allows writing only.
	AccessWO

	// AccessClear allows only the write-1-to-clear operation.
	AccessClear
)

// AccessModes lists every access mode in declaration order.
var AccessModes = []AccessMode{AccessRW, AccessRO, AccessWO, AccessClear}

// ParseAccessMode parses an access tag. Tags are case-insensitive; "WC" is
// accepted as an alias for "Clear".
func ParseAccessMode(tag string) (AccessMode, error) {
	switch strings.ToUpper(strings.TrimSpace(tag)) {
	case "RW":
		return AccessRW, nil
	case "RO":
		return AccessRO, nil
	case "WO":
		return AccessWO, nil
	case "CLEAR", "WC":
		return AccessClear, nil
	default:
		return 0, fmt.Errorf("unknown access mode %q (use RW, RO, WO or Clear)", tag)
	}
}

// CanRead returns true if the mode exposes a read operation.
func (a AccessMode) CanRead() bool { return a == AccessRW || a == AccessRO }

// CanWrite returns true if the mode exposes a general write operation.
func (a AccessMode) CanWrite() bool { return a == AccessRW || a == AccessWO }

// CanClear returns true if the mode exposes the clear operation.
func (a AccessMode) CanClear() bool { return a == AccessClear }

// Mutating returns true if accessing the field can change hardware state.
func (a AccessMode) Mutating() bool { return a != AccessRO }

// Valid returns true if a is one of the four defined modes.
func (a AccessMode) Valid() bool { return a <= AccessClear }

// String returns the canonical access tag.
func (a AccessMode) String() string {
	switch a {
	case AccessRW:
		return "RW"
	case AccessRO:
		return "RO"
	case AccessWO:
		return "WO"
	case AccessClear:
		return "Clear"
	default:
		return fmt.Sprintf("AccessMode(%d)", uint8(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a AccessMode) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid access mode %d", uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AccessMode) UnmarshalText(text []byte) error {
	m, err := ParseAccessMode(string(text))
	if err != nil {
		return err
	}
	*a = m
	return nil
}
