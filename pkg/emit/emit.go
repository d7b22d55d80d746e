// Package emit generates Go accessor code for a validated register block.
//
// For every field the generated type exposes a capability handle restricted
// to the field's access mode and one method per planned operation:
//
//	RW     Dr() mmio.RW[uint32], ReadDr() uint32, WriteDr(value uint32)
//	RO     Sr() mmio.RO[uint32], ReadSr() uint32
//	WO     Ecr() mmio.WO[uint32], WriteEcr(value uint32)
//	Clear  Icr() mmio.WC[uint32], ClearIcr()
//
// Nothing outside a field's plan is emitted.
package emit

import (
	"errors"
	"fmt"
	"go/token"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/HayleyDeckers/register-block/pkg/diag"
	"github.com/HayleyDeckers/register-block/pkg/overlap"
	"github.com/HayleyDeckers/register-block/pkg/plan"
	"github.com/HayleyDeckers/register-block/pkg/regmodel"
)

var (
	// ErrPlanMismatch is returned when plans do not match the block they are
	// emitted for.
	ErrPlanMismatch = errors.New("accessor plan does not match block")

	// ErrNameCollision is returned when two generated identifiers coincide.
	ErrNameCollision = errors.New("generated name collision")
)

// FormatError is returned when the generated source does not format. Source
// holds the unformatted output for debugging.
type FormatError struct {
	Source []byte
	Err    error
}

func (e *FormatError) Error() string { return "formatting generated code: " + e.Err.Error() }

func (e *FormatError) Unwrap() error { return e.Err }

var handles = map[regmodel.AccessMode]struct{ name, desc string }{
	regmodel.AccessRW:    {"RW", "read-write"},
	regmodel.AccessRO:    {"RO", "read-only"},
	regmodel.AccessWO:    {"WO", "write-only"},
	regmodel.AccessClear: {"WC", "write-1-to-clear"},
}

// WordType returns the Go type of a register word of width bytes.
func WordType(width uint64) (string, error) {
	switch width {
	case 1:
		return "uint8", nil
	case 2:
		return "uint16", nil
	case 4:
		return "uint32", nil
	case 8:
		return "uint64", nil
	default:
		return "", fmt.Errorf("no register word type for width %d", width)
	}
}

// Generate emits formatted Go source for block b. plans must come from
// plan.Block(b). Generate re-validates the block and refuses to emit
// anything for a block with overlap violations.
func Generate(b *regmodel.RegisterBlock, plans []plan.AccessorPlan, opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	if oe := diag.NewOverlapError(b, overlap.ValidateBlock(b)); oe != nil {
		return nil, oe
	}
	if err := checkPlans(b, plans); err != nil {
		return nil, err
	}

	data, err := buildData(b, plans, opts)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	for _, name := range []string{"header", "offsets", "block", "handles", "accessors"} {
		if err := renderTemplate(&sb, name, data); err != nil {
			return nil, err
		}
	}

	raw := []byte(sb.String())
	formatted, err := imports.Process(FileName(b), raw, nil)
	if err != nil {
		return nil, &FormatError{Source: raw, Err: err}
	}
	return formatted, nil
}

// FileName returns the conventional output file name for b.
func FileName(b *regmodel.RegisterBlock) string {
	return plan.FileName(b.Name()) + "_gen.go"
}

func checkPlans(b *regmodel.RegisterBlock, plans []plan.AccessorPlan) error {
	if len(plans) != b.Len() {
		return fmt.Errorf("%w: %d plans for %d fields", ErrPlanMismatch, len(plans), b.Len())
	}
	for i, p := range plans {
		f := b.Field(i)
		if p.Field.Name != f.Name || p.Field.Offset != f.Offset || p.Field.Width != f.Width || p.Field.Access != f.Access {
			return fmt.Errorf("%w: plan %d is for %s, field is %s", ErrPlanMismatch, i, p.Field, f)
		}
		if p.Operations != plan.For(f.Access) {
			return fmt.Errorf("%w: %s planned %s, access mode allows %s",
				ErrPlanMismatch, f.Name, p.Operations, plan.For(f.Access))
		}
	}
	return nil
}

func buildData(b *regmodel.RegisterBlock, plans []plan.AccessorPlan, opts Options) (*blockData, error) {
	typ := plan.GoName(b.Name())
	data := &blockData{
		Source:        opts.Source,
		Fingerprint:   Fingerprint(b, opts),
		Package:       opts.Package,
		RuntimeImport: opts.RuntimeImport,
		Type:          typ,
		Recv:          receiver(typ),
		Doc:           docLines(b.Description()),
	}

	names := newNameSet()
	names.add(typ, "block type")
	names.add("New"+typ, "constructor")
	methods := newNameSet()
	methods.add("BaseAddress", "base address method")

	for _, p := range plans {
		f := p.Field
		word, err := WordType(f.Width)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		h := handles[f.Access]
		fd := fieldData{
			Name:        f.Name,
			GoName:      plan.GoName(f.Name),
			OffsetConst: typ + plan.GoName(f.Name) + "Offset",
			Offset:      f.Offset,
			Word:        word,
			Handle:      h.name,
			HandleDesc:  h.desc,
			Doc:         docLines(f.Description),
		}
		names.add(fd.OffsetConst, "offset of "+f.Name)
		methods.add(fd.GoName, "handle of "+f.Name)

		for _, acc := range plan.Surface([]plan.AccessorPlan{p}) {
			ad := accessorData{Op: acc.Op.String(), Name: acc.Name(), GoName: acc.GoName()}
			methods.add(ad.GoName, ad.Name)
			fd.Accessors = append(fd.Accessors, ad)
		}
		data.Fields = append(data.Fields, fd)
	}

	if err := errors.Join(names.err(), methods.err()); err != nil {
		return nil, fmt.Errorf("block %s: %w", b.Name(), err)
	}
	return data, nil
}

// nameSet records generated identifiers and the first collision per name.
type nameSet struct {
	owner map[string]string
	errs  []error
}

func newNameSet() *nameSet { return &nameSet{owner: make(map[string]string)} }

func (s *nameSet) add(name, owner string) {
	if !token.IsIdentifier(name) {
		s.errs = append(s.errs, fmt.Errorf("%s: %q is not a Go identifier", owner, name))
		return
	}
	if first, ok := s.owner[name]; ok {
		s.errs = append(s.errs, fmt.Errorf("%w: %s and %s both generate %s", ErrNameCollision, first, owner, name))
		return
	}
	s.owner[name] = owner
}

func (s *nameSet) err() error { return errors.Join(s.errs...) }

func receiver(typ string) string {
	c := typ[0]
	if c >= 'A' && c <= 'Z' {
		return string(c + 'a' - 'A')
	}
	return "r"
}

func docLines(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return lines
}
