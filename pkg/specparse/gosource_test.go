package specparse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HayleyDeckers/register-block/pkg/regmodel"
)

func TestLoadGoSource(t *testing.T) {
	raw, err := Load(testdata("uart.go"))
	require.NoError(t, err)

	assert.Equal(t, "uart", raw.Package)
	require.Len(t, raw.Blocks, 1, "untagged structs are not blocks")

	b := raw.Blocks[0]
	assert.Equal(t, "Uart", b.Name)
	assert.Equal(t, "Uart is a minimal serial port.\n", b.Description)
	assert.Equal(t, 4, b.Line)

	require.Len(t, b.Fields, 4)
	tests := []struct {
		name   string
		offset Offset
		width  int
		access string
		line   int
	}{
		{"Data", 0x00, 1, "RW", 6},
		{"Status", 0x01, 1, "RO", 7},
		{"Intr", 0x02, 2, "WC", 8},
		{"Baud", 0x08, 4, "WO", 10},
	}
	for i, tt := range tests {
		f := b.Fields[i]
		assert.Equal(t, tt.name, f.Name)
		assert.Equal(t, tt.offset, f.Offset, tt.name)
		assert.Equal(t, tt.width, f.Width, tt.name)
		assert.Equal(t, tt.access, f.Access, tt.name)
		assert.Equal(t, tt.line, f.Line, tt.name)
	}
	assert.Equal(t, "Transmit and receive data.\n", b.Fields[0].Description)
	assert.Equal(t, "pending interrupts\n", b.Fields[2].Description)

	blocks, err := raw.Normalize()
	require.NoError(t, err)
	intr, ok := blocks[0].Lookup("Intr")
	require.True(t, ok)
	assert.Equal(t, regmodel.AccessClear, intr.Access)
}

func TestParseGoSource_MultipleNames(t *testing.T) {
	src := `package p
type Pair struct {
	A, B uint16 ` + "`reg:\"offset=0,access=RO\"`" + `
}
`
	raw, err := ParseGoSource("p.go", []byte(src))
	require.NoError(t, err)
	require.Len(t, raw.Blocks[0].Fields, 2)
	assert.Equal(t, "A", raw.Blocks[0].Fields[0].Name)
	assert.Equal(t, "B", raw.Blocks[0].Fields[1].Name)
}

func TestParseGoSource_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no offset", "X uint32 `reg:\"access=RO\"`", "tag has no offset"},
		{"not key value", "X uint32 `reg:\"offset\"`", `tag element "offset" is not key=value`},
		{"unknown key", "X uint32 `reg:\"offset=0,mode=RO\"`", `unknown tag key "mode"`},
		{"bad width", "X uint32 `reg:\"offset=0,access=RO,width=-1\"`", "width -1 is not positive"},
		{"bad type", "X int `reg:\"offset=0,access=RO\"`", "cannot infer width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "package p\ntype R struct {\n\t" + tt.body + "\n}\n"
			_, err := ParseGoSource("r.go", []byte(src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, errors.Is(err, regmodel.ErrMalformedField))
			assert.Contains(t, err.Error(), `r.go:3: block "R": malformed field "X"`)
		})
	}
}

func TestParseGoSource_NoBlocks(t *testing.T) {
	_, err := ParseGoSource("p.go", []byte("package p\ntype T struct{ x int }\n"))
	assert.ErrorContains(t, err, "no struct with")

	_, err = ParseGoSource("p.go", []byte("package p\nfunc {"))
	assert.Error(t, err)
}

func TestParseGoSource_WidthTagOnNamedType(t *testing.T) {
	src := "package p\ntype Reg uint32\ntype R struct {\n\tX Reg `reg:\"offset=4,access=WO,width=4\"`\n}\n"
	raw, err := ParseGoSource("r.go", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, 4, raw.Blocks[0].Fields[0].Width)
}
