package plan

import "strings"

// GoName converts a declared name to an exported Go identifier:
// "sr_ro" -> "SrRo", "reg0" -> "Reg0", "txFifo" -> "TxFifo".
func GoName(name string) string {
	var b strings.Builder
	upper := true
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '_' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		b.WriteByte(c)
	}
	if b.Len() == 0 {
		return "X"
	}
	return b.String()
}

// FileName converts a block name to a generated file stem:
// "TestRegs" -> "test_regs", "uart0" -> "uart0".
func FileName(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			if i > 0 && name[i-1] != '_' && !(name[i-1] >= 'A' && name[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}
