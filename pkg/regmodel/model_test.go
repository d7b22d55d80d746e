package regmodel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccessMode(t *testing.T) {
	tests := []struct {
		tag  string
		want AccessMode
	}{
		{"RW", AccessRW},
		{"rw", AccessRW},
		{"RO", AccessRO},
		{"WO", AccessWO},
		{"Clear", AccessClear},
		{"CLEAR", AccessClear},
		{"WC", AccessClear},
		{" ro ", AccessRO},
	}
	for _, tt := range tests {
		got, err := ParseAccessMode(tt.tag)
		if err != nil {
			t.Errorf("ParseAccessMode(%q) error: %v", tt.tag, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAccessMode(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}

	for _, bad := range []string{"", "R", "RC", "readWrite", "W1C"} {
		if _, err := ParseAccessMode(bad); err == nil {
			t.Errorf("ParseAccessMode(%q) expected error", bad)
		}
	}
}

func TestAccessModeCapabilities(t *testing.T) {
	tests := []struct {
		mode                    AccessMode
		read, write, clr, mutat bool
	}{
		{AccessRW, true, true, false, true},
		{AccessRO, true, false, false, false},
		{AccessWO, false, true, false, true},
		{AccessClear, false, false, true, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.read, tt.mode.CanRead(), "%v CanRead", tt.mode)
		assert.Equal(t, tt.write, tt.mode.CanWrite(), "%v CanWrite", tt.mode)
		assert.Equal(t, tt.clr, tt.mode.CanClear(), "%v CanClear", tt.mode)
		assert.Equal(t, tt.mutat, tt.mode.Mutating(), "%v Mutating", tt.mode)
	}
}

func TestAccessModeText(t *testing.T) {
	for _, m := range AccessModes {
		text, err := m.MarshalText()
		require.NoError(t, err)

		var back AccessMode
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, m, back)
	}

	_, err := AccessMode(9).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "AccessMode(9)", AccessMode(9).String())
}

func TestNewField(t *testing.T) {
	f, err := NewField(RawField{Name: "sr", Offset: 0x04, Access: "RO"})
	require.NoError(t, err)
	assert.Equal(t, "sr", f.Name)
	assert.Equal(t, uint64(4), f.Offset)
	assert.Equal(t, uint64(DefaultWidth), f.Width)
	assert.Equal(t, AccessRO, f.Access)
	assert.Equal(t, uint64(8), f.End())
	assert.Equal(t, 32, f.Bits())
	assert.Equal(t, "sr@0x04/RO", f.String())

	f, err = NewField(RawField{Name: "data8", Offset: 0x10, Width: 1, Access: "WO"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), f.Width)
	assert.Equal(t, "[0x10,0x11)", f.Range())
}

func TestNewField_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  RawField
	}{
		{"negative offset", RawField{Name: "a", Offset: -4, Access: "RW"}},
		{"negative width", RawField{Name: "a", Width: -1, Access: "RW"}},
		{"odd width", RawField{Name: "a", Width: 3, Access: "RW"}},
		{"unknown access", RawField{Name: "a", Access: "RX"}},
		{"empty access", RawField{Name: "a"}},
		{"bad name", RawField{Name: "1a", Access: "RW"}},
		{"empty name", RawField{Name: "", Access: "RW"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewField(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedField))

			var mf *MalformedFieldError
			require.True(t, errors.As(err, &mf))
			assert.Equal(t, tt.raw.Name, mf.Field)
		})
	}
}

func TestMalformedFieldError_Message(t *testing.T) {
	err := &MalformedFieldError{
		Block:  "Uart",
		Field:  "dr",
		Pos:    Pos{File: "uart.yaml", Line: 7},
		Reason: "offset -1 is negative",
	}
	assert.Equal(t, `uart.yaml:7: block "Uart": malformed field "dr": offset -1 is negative`, err.Error())
}

func TestFieldOverlaps(t *testing.T) {
	mk := func(off, width uint64) Field { return Field{Offset: off, Width: width} }

	tests := []struct {
		a, b Field
		want bool
	}{
		{mk(0, 4), mk(0, 4), true},
		{mk(0, 4), mk(4, 4), false},
		{mk(0, 4), mk(2, 4), true},
		{mk(2, 4), mk(0, 4), true},
		{mk(0, 8), mk(4, 1), true},
		{mk(8, 4), mk(0, 8), false},
	}
	for _, tt := range tests {
		if got := tt.a.Overlaps(tt.b); got != tt.want {
			t.Errorf("%s overlaps %s = %v, want %v", tt.a.Range(), tt.b.Range(), got, tt.want)
		}
		if got := tt.b.Overlaps(tt.a); got != tt.want {
			t.Errorf("overlap not symmetric for %s / %s", tt.a.Range(), tt.b.Range())
		}
	}
}

func TestIsIdentifier(t *testing.T) {
	for _, ok := range []string{"a", "_x", "sr_ro", "Reg0", "A1_b2"} {
		assert.True(t, IsIdentifier(ok), ok)
	}
	for _, bad := range []string{"", "0a", "a-b", "a b", "ä"} {
		assert.False(t, IsIdentifier(bad), bad)
	}
}

func TestNewRegisterBlock(t *testing.T) {
	fields := []Field{
		{Name: "dr", Offset: 0x00, Width: 4, Access: AccessRW},
		{Name: "sr", Offset: 0x04, Width: 4, Access: AccessRO},
		{Name: "wide", Offset: 0x10, Width: 8, Access: AccessWO},
	}
	b, err := NewRegisterBlock("Uart", "UART registers", fields)
	require.NoError(t, err)

	assert.Equal(t, "Uart", b.Name())
	assert.Equal(t, "UART registers", b.Description())
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, "sr", b.Field(1).Name)
	assert.Equal(t, 2, b.Index("wide"))
	assert.Equal(t, -1, b.Index("missing"))
	assert.Equal(t, uint64(0x18), b.Size())

	f, ok := b.Lookup("dr")
	require.True(t, ok)
	assert.Equal(t, AccessRW, f.Access)

	// The block owns its fields.
	fields[0].Name = "changed"
	got := b.Fields()
	got[1].Name = "also_changed"
	assert.Equal(t, "dr", b.Field(0).Name)
	assert.Equal(t, "sr", b.Field(1).Name)
}

func TestNewRegisterBlock_DuplicateNames(t *testing.T) {
	fields := []Field{
		{Name: "a", Offset: 0, Width: 4, Pos: Pos{File: "x.yaml", Line: 3}},
		{Name: "a", Offset: 4, Width: 4, Pos: Pos{File: "x.yaml", Line: 6}},
		{Name: "b", Offset: 8, Width: 4},
		{Name: "b", Offset: 12, Width: 4},
	}
	_, err := NewRegisterBlock("Dup", "", fields)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedField))
	assert.Contains(t, err.Error(), "first declared at x.yaml:3")
	assert.Contains(t, err.Error(), `malformed field "b"`)
}

func TestNewRegisterBlock_BadName(t *testing.T) {
	_, err := NewRegisterBlock("my block", "", nil)
	assert.Error(t, err)
}
