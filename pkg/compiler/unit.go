package compiler

import (
	"context"
	"fmt"

	"github.com/HayleyDeckers/register-block/pkg/regmodel"
	"github.com/HayleyDeckers/register-block/pkg/specparse"
)

// Unit is one loaded declaration file.
type Unit struct {
	Path    string
	Package string
	Blocks  []*regmodel.RegisterBlock
}

// Load reads and normalizes a declaration file. Every malformed field in the
// file is reported in the returned error.
func Load(path string) (*Unit, error) {
	raw, err := specparse.Load(path)
	if err != nil {
		return nil, err
	}
	blocks, err := raw.Normalize()
	if err != nil {
		return nil, err
	}
	return &Unit{Path: path, Package: raw.Package, Blocks: blocks}, nil
}

// ForUnit returns a copy of c that records u as the source and falls back
// to the unit's package name when none is configured.
func (c *Compiler) ForUnit(u *Unit) *Compiler {
	cc := *c
	cc.Options.Source = u.Path
	if cc.Options.Package == "" {
		cc.Options.Package = u.Package
	}
	return &cc
}

// CompileFile loads path and compiles every block in it.
func (c *Compiler) CompileFile(ctx context.Context, path string) (*Unit, []*Result, error) {
	start := c.clock()
	u, err := Load(path)
	if err != nil {
		c.debugLog("load failed", "path", path, "error", err)
		c.traceLoadError(path, err)
		return nil, nil, err
	}
	c.debugLog("loaded declarations", "path", path, "blocks", len(u.Blocks), "took", c.clock().Sub(start))

	results, err := c.ForUnit(u).CompileAll(ctx, u.Blocks)
	if err != nil {
		return u, results, fmt.Errorf("%s: %w", path, err)
	}
	return u, results, nil
}
