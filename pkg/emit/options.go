package emit

import (
	"fmt"
	"go/token"

	"golang.org/x/mod/module"
)

// DefaultRuntimeImport is the import path of the accessor runtime.
const DefaultRuntimeImport = "github.com/HayleyDeckers/register-block/pkg/mmio"

// DefaultPackage is the package clause used when none is configured.
const DefaultPackage = "regs"

// Options configures code generation.
type Options struct {
	// Package is the package clause of the generated file.
	Package string

	// RuntimeImport is the import path of the mmio runtime.
	RuntimeImport string

	// Source is recorded in the generated header, typically the input file.
	Source string
}

func (o Options) withDefaults() Options {
	if o.Package == "" {
		o.Package = DefaultPackage
	}
	if o.RuntimeImport == "" {
		o.RuntimeImport = DefaultRuntimeImport
	}
	return o
}

// Validate checks that the options produce a compilable file.
func (o Options) Validate() error {
	o = o.withDefaults()
	if !token.IsIdentifier(o.Package) {
		return fmt.Errorf("package name %q is not a Go identifier", o.Package)
	}
	if err := module.CheckImportPath(o.RuntimeImport); err != nil {
		return fmt.Errorf("runtime import: %w", err)
	}
	return nil
}
