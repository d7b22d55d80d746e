package emit

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"

	"github.com/HayleyDeckers/register-block/pkg/plan"
	"github.com/HayleyDeckers/register-block/pkg/regmodel"
)

// gaugeUse calls every generated method with the types the runtime is
// expected to hand out, so a wrong handle or word type fails type checking.
const gaugeUse = `package gauge

import "github.com/HayleyDeckers/register-block/pkg/mmio"

func use() {
	g := NewGauge(mmio.Address(0x4000_0000))
	var base uintptr = g.BaseAddress()

	var flags mmio.RO[uint8] = g.Flags()
	var ctrl mmio.RW[uint32] = g.Ctrl()
	var stamp mmio.WO[uint64] = g.Stamp()
	var irq mmio.WC[uint8] = g.Irq()

	var f uint8 = g.ReadFlags()
	var c uint32 = g.ReadCtrl()
	g.WriteCtrl(c | 1)
	g.WriteStamp(uint64(f))
	g.ClearIrq()

	_, _, _, _, _ = base, flags, ctrl, stamp, irq
	_ = [...]uintptr{GaugeFlagsOffset, GaugeCtrlOffset, GaugeStampOffset, GaugeIrqOffset}
}
`

// writeTypecheckPackage places src in a throwaway package inside this module
// so the runtime import resolves to the working tree.
func writeTypecheckPackage(t *testing.T, files map[string]string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll("testdata", 0o755))
	dir, err := os.MkdirTemp("testdata", "gen")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	return abs
}

func TestGenerate_TypeChecksAgainstRuntime(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages through the go command")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not available")
	}

	b, err := regmodel.NewRegisterBlock("Gauge", "Gauge with mixed register widths.", []regmodel.Field{
		{Name: "flags", Offset: 0x00, Width: 1, Access: regmodel.AccessRO},
		{Name: "ctrl", Offset: 0x04, Width: 4, Access: regmodel.AccessRW},
		{Name: "stamp", Offset: 0x08, Width: 8, Access: regmodel.AccessWO},
		{Name: "irq", Offset: 0x10, Width: 1, Access: regmodel.AccessClear},
	})
	require.NoError(t, err)
	src, err := Generate(b, plan.Block(b), Options{Package: "gauge", Source: "gauge.yaml"})
	require.NoError(t, err)

	dir := writeTypecheckPackage(t, map[string]string{
		FileName(b): string(src),
		"use.go":    gaugeUse,
	})

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedImports | packages.NeedDeps |
			packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo,
		Dir: dir,
	}
	pkgs, err := packages.Load(cfg, ".")
	require.NoError(t, err)
	require.Len(t, pkgs, 1)

	var errs []packages.Error
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		errs = append(errs, p.Errors...)
	})
	for _, e := range errs {
		t.Errorf("generated code: %v", e)
	}
	require.Equal(t, "gauge", pkgs[0].Name)
	require.NotNil(t, pkgs[0].Types.Scope().Lookup("NewGauge"))
}
