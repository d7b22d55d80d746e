package regmodel

import (
	"fmt"
)

// DefaultWidth is the register word width in bytes used when a declaration
// does not state one.
const DefaultWidth = 4

// Pos is a source location recorded by a front-end. The zero value means
// the location is unknown.
type Pos struct {
	File string
	Line int
}

// IsValid returns true if the position carries any location information.
func (p Pos) IsValid() bool { return p.File != "" || p.Line > 0 }

// String returns "file:line", "file" or "line N".
func (p Pos) String() string {
	switch {
	case p.File != "" && p.Line > 0:
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	case p.File != "":
		return p.File
	case p.Line > 0:
		return fmt.Sprintf("line %d", p.Line)
	default:
		return "-"
	}
}

// RawField is a field declaration as enumerated by a front-end, before
// normalization.
type RawField struct {
	Name        string
	Offset      int64
	Width       int // bytes; 0 selects DefaultWidth
	Access      string
	Description string
	Pos         Pos
}

// Field is one normalized register field.
type Field struct {
	Name        string
	Offset      uint64
	Width       uint64
	Access      AccessMode
	Description string
	Pos         Pos
}

// NewField normalizes a raw declaration.
func NewField(raw RawField) (Field, error) {
	malformed := func(format string, args ...any) error {
		return &MalformedFieldError{
			Field:  raw.Name,
			Pos:    raw.Pos,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	if !IsIdentifier(raw.Name) {
		return Field{}, malformed("name %q is not an identifier", raw.Name)
	}
	if raw.Offset < 0 {
		return Field{}, malformed("offset %d is negative", raw.Offset)
	}

	width := raw.Width
	if width == 0 {
		width = DefaultWidth
	}
	if width < 0 {
		return Field{}, malformed("width %d is not positive", width)
	}
	if !SupportedWidth(width) {
		return Field{}, malformed("width %d is not a register word width (1, 2, 4 or 8)", width)
	}

	access, err := ParseAccessMode(raw.Access)
	if err != nil {
		return Field{}, malformed("%v", err)
	}

	return Field{
		Name:        raw.Name,
		Offset:      uint64(raw.Offset),
		Width:       uint64(width),
		Access:      access,
		Description: raw.Description,
		Pos:         raw.Pos,
	}, nil
}

// SupportedWidth reports whether width bytes maps onto a register word.
func SupportedWidth(width int) bool {
	switch width {
	case 1, 2, 4, 8:
		return true
	}
	return false
}

// End returns the first byte offset past the field.
func (f Field) End() uint64 { return f.Offset + f.Width }

// Overlaps returns true if the byte ranges of f and other intersect.
func (f Field) Overlaps(other Field) bool {
	return f.Offset < other.End() && other.Offset < f.End()
}

// Range formats the byte range as "[0x08,0x0C)".
func (f Field) Range() string {
	return fmt.Sprintf("[0x%02X,0x%02X)", f.Offset, f.End())
}

// Bits returns the register word width in bits.
func (f Field) Bits() int { return int(f.Width) * 8 }

// String returns a compact description like "sr@0x04/RO".
func (f Field) String() string {
	if f.Width != DefaultWidth {
		return fmt.Sprintf("%s@0x%02X/%s(w%d)", f.Name, f.Offset, f.Access, f.Width)
	}
	return fmt.Sprintf("%s@0x%02X/%s", f.Name, f.Offset, f.Access)
}

// IsIdentifier reports whether s is an ASCII identifier: a letter or
// underscore followed by letters, digits or underscores.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
