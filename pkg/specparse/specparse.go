// Package specparse reads register block declarations. Two front-ends are
// supported: YAML files and Go source files whose struct fields carry a
// `reg` tag. Both produce the same raw types, which Normalize turns into
// regmodel blocks.
package specparse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HayleyDeckers/register-block/pkg/regmodel"
)

// ErrUnknownFormat is returned by Load for unsupported file extensions.
var ErrUnknownFormat = errors.New("unknown declaration format")

// RawFile is one declaration file.
type RawFile struct {
	Package string     `yaml:"package"`
	Width   int        `yaml:"width"` // default field width in bytes
	Blocks  []RawBlock `yaml:"blocks"`

	// Path is the file the declarations were read from.
	Path string `yaml:"-"`
}

// RawBlock is one register block declaration.
type RawBlock struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Width       int           `yaml:"width"` // overrides RawFile.Width
	Fields      []RawFieldDef `yaml:"fields"`

	File string `yaml:"-"`
	Line int    `yaml:"-"`
}

// RawFieldDef is one field declaration.
type RawFieldDef struct {
	Name        string `yaml:"name"`
	Offset      Offset `yaml:"offset"`
	Width       int    `yaml:"width"`
	Access      string `yaml:"access"`
	Description string `yaml:"description"`

	// HasOffset and HasWidth record which keys were declared, so an
	// explicit zero can be told apart from an omitted key.
	HasOffset bool `yaml:"-"`
	HasWidth  bool `yaml:"-"`

	Line int `yaml:"-"`
}

var (
	blockKeys = []string{"name", "description", "width", "fields"}
	fieldKeys = []string{"name", "offset", "width", "access", "description"}
)

// mappingKeys returns the keys of a mapping node, rejecting any not in
// allowed. node.Decode does not inherit the decoder's KnownFields setting,
// so nested declarations check their keys here.
func mappingKeys(node *yaml.Node, what string, allowed []string) (map[string]bool, error) {
	if node.Kind != yaml.MappingNode {
		return nil, nil
	}
	keys := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k := node.Content[i]
		if !slices.Contains(allowed, k.Value) {
			return nil, fmt.Errorf("line %d: unknown %s key %q", k.Line, what, k.Value)
		}
		keys[k.Value] = true
	}
	return keys, nil
}

// Offset is a byte offset that accepts decimal, hex ("0x0C"), octal and
// binary notation, quoted or not.
type Offset int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *Offset) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: offset must be a scalar", node.Line)
	}
	v, err := parseOffset(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*o = Offset(v)
	return nil
}

func parseOffset(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(s), "_", ""), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	return v, nil
}

// UnmarshalYAML records the line of the block declaration.
func (b *RawBlock) UnmarshalYAML(node *yaml.Node) error {
	if _, err := mappingKeys(node, "block", blockKeys); err != nil {
		return err
	}
	type plain RawBlock
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*b = RawBlock(p)
	b.Line = node.Line
	return nil
}

// UnmarshalYAML records the line of the field declaration and which keys
// it sets.
func (f *RawFieldDef) UnmarshalYAML(node *yaml.Node) error {
	keys, err := mappingKeys(node, "field", fieldKeys)
	if err != nil {
		return err
	}
	type plain RawFieldDef
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*f = RawFieldDef(p)
	f.HasOffset = keys["offset"]
	f.HasWidth = keys["width"]
	f.Line = node.Line
	return nil
}

// ParseYAML parses a YAML declaration file. path is only used for positions.
func ParseYAML(path string, data []byte) (*RawFile, error) {
	var file RawFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(file.Blocks) == 0 {
		return nil, fmt.Errorf("%s: no blocks declared", path)
	}
	file.setPath(path)
	return &file, nil
}

func (f *RawFile) setPath(path string) {
	f.Path = path
	for i := range f.Blocks {
		f.Blocks[i].File = path
	}
}

// Load reads a declaration file, choosing the front-end by extension.
func Load(path string) (*RawFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(path, data)
	case ".go":
		return ParseGoSource(path, data)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// Normalize converts every block of f. All malformed fields of all blocks
// are reported together; no block is returned if any is malformed.
func (f *RawFile) Normalize() ([]*regmodel.RegisterBlock, error) {
	var (
		blocks []*regmodel.RegisterBlock
		errs   []error
		seen   = make(map[string]int)
	)
	for _, rb := range f.Blocks {
		if rb.Width == 0 {
			rb.Width = f.Width
		}
		if first, dup := seen[rb.Name]; dup && rb.Name != "" {
			errs = append(errs, fmt.Errorf("%s: duplicate block %q (first declared at line %d)",
				regmodel.Pos{File: rb.File, Line: rb.Line}, rb.Name, first))
			continue
		}
		seen[rb.Name] = rb.Line

		b, err := Normalize(rb)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		blocks = append(blocks, b)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return blocks, nil
}

// Normalize converts one raw block. Every malformed field is reported, each
// as a *regmodel.MalformedFieldError naming the block.
func Normalize(rb RawBlock) (*regmodel.RegisterBlock, error) {
	pos := regmodel.Pos{File: rb.File, Line: rb.Line}
	if !regmodel.IsIdentifier(rb.Name) {
		return nil, fmt.Errorf("%s: block name %q is not an identifier", pos, rb.Name)
	}

	var errs []error
	fields := make([]regmodel.Field, 0, len(rb.Fields))
	for _, def := range rb.Fields {
		at := regmodel.Pos{File: rb.File, Line: def.Line}
		width := def.Width
		switch {
		case !def.HasOffset:
			errs = append(errs, &regmodel.MalformedFieldError{Block: rb.Name, Field: def.Name, Pos: at, Reason: "no offset declared"})
			continue
		case def.HasWidth && width <= 0:
			errs = append(errs, &regmodel.MalformedFieldError{Block: rb.Name, Field: def.Name, Pos: at,
				Reason: fmt.Sprintf("width %d is not positive", width)})
			continue
		case !def.HasWidth:
			width = rb.Width
		}
		f, err := regmodel.NewField(regmodel.RawField{
			Name:        def.Name,
			Offset:      int64(def.Offset),
			Width:       width,
			Access:      def.Access,
			Description: strings.TrimSpace(def.Description),
			Pos:         at,
		})
		if err != nil {
			var mf *regmodel.MalformedFieldError
			if errors.As(err, &mf) {
				mf.Block = rb.Name
			}
			errs = append(errs, err)
			continue
		}
		fields = append(fields, f)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return regmodel.NewRegisterBlock(rb.Name, strings.TrimSpace(rb.Description), fields)
}
