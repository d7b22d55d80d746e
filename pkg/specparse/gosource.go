package specparse

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"

	"github.com/HayleyDeckers/register-block/pkg/regmodel"
)

// TagKey is the struct tag key read by the Go front-end.
const TagKey = "reg"

var typeWidths = map[string]int{
	"uint8":  1,
	"uint16": 2,
	"uint32": 4,
	"uint64": 8,
}

// ParseGoSource reads register blocks from Go source. Every struct type
// with at least one `reg` tagged field is a block:
//
//	// Periph is the example peripheral.
//	type Periph struct {
//		// Data register.
//		Dr  uint32 `reg:"offset=0x00,access=RW"`
//		Sr  uint32 `reg:"offset=0x04,access=RO"`
//		Ecr uint32 `reg:"offset=0x08,access=WO"`
//	}
//
// The field type gives the width unless the tag sets width=N. Untagged
// fields are ignored.
func ParseGoSource(path string, src []byte) (*RawFile, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	raw := &RawFile{Package: file.Name.Name}
	var errs []error
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}
			doc := ts.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			block := RawBlock{
				Name:        ts.Name.Name,
				Description: doc.Text(),
				Line:        fset.Position(ts.Pos()).Line,
			}
			fields, ferrs := structFields(fset, ts.Name.Name, st)
			errs = append(errs, ferrs...)
			if len(fields) == 0 && len(ferrs) == 0 {
				continue
			}
			block.Fields = fields
			raw.Blocks = append(raw.Blocks, block)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(raw.Blocks) == 0 {
		return nil, fmt.Errorf("%s: no struct with %q tags", path, TagKey)
	}
	raw.setPath(path)
	return raw, nil
}

func structFields(fset *token.FileSet, block string, st *ast.StructType) ([]RawFieldDef, []error) {
	var (
		defs []RawFieldDef
		errs []error
	)
	for _, field := range st.Fields.List {
		if field.Tag == nil || len(field.Names) == 0 {
			continue
		}
		lit, err := strconv.Unquote(field.Tag.Value)
		if err != nil {
			continue
		}
		tag, ok := reflect.StructTag(lit).Lookup(TagKey)
		if !ok {
			continue
		}

		pos := fset.Position(field.Pos())
		def, err := parseTag(tag)
		if err == nil && !def.HasWidth {
			def.Width, err = typeWidth(field.Type)
			def.HasWidth = err == nil
		}
		for _, name := range field.Names {
			if err != nil {
				errs = append(errs, &regmodel.MalformedFieldError{
					Block:  block,
					Field:  name.Name,
					Pos:    regmodel.Pos{File: pos.Filename, Line: pos.Line},
					Reason: err.Error(),
				})
				continue
			}
			d := def
			d.Name = name.Name
			d.Description = field.Doc.Text()
			if d.Description == "" {
				d.Description = field.Comment.Text()
			}
			d.Line = pos.Line
			defs = append(defs, d)
		}
	}
	return defs, errs
}

// parseTag parses "offset=0x08,access=WO[,width=2]".
func parseTag(tag string) (RawFieldDef, error) {
	var def RawFieldDef
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return def, fmt.Errorf("tag element %q is not key=value", part)
		}
		switch strings.TrimSpace(key) {
		case "offset":
			v, err := parseOffset(value)
			if err != nil {
				return def, err
			}
			def.Offset = Offset(v)
			def.HasOffset = true
		case "access":
			def.Access = strings.TrimSpace(value)
		case "width":
			w, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return def, fmt.Errorf("invalid width %q", value)
			}
			if w <= 0 {
				return def, fmt.Errorf("width %d is not positive", w)
			}
			def.Width = w
			def.HasWidth = true
		default:
			return def, fmt.Errorf("unknown tag key %q", key)
		}
	}
	if !def.HasOffset {
		return def, errors.New("tag has no offset")
	}
	return def, nil
}

func typeWidth(expr ast.Expr) (int, error) {
	if id, ok := expr.(*ast.Ident); ok {
		if w, ok := typeWidths[id.Name]; ok {
			return w, nil
		}
	}
	return 0, fmt.Errorf("cannot infer width from field type; use uint8, uint16, uint32, uint64 or width=N")
}
