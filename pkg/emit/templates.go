package emit

import (
	"fmt"
	"strings"
	"text/template"
)

// funcMap provides helper functions available to all templates.
var funcMap = template.FuncMap{
	"hexOffset": func(v uint64) string { return fmt.Sprintf("0x%02X", v) },
	"quote":     func(s string) string { return fmt.Sprintf("%q", s) },
}

// templates holds all parsed code generation templates.
var templates = template.Must(template.New("").Funcs(funcMap).Parse(
	headerTmpl +
		offsetsTmpl +
		blockTmpl +
		handlesTmpl +
		accessorsTmpl,
))

// renderTemplate executes a named template into the builder.
func renderTemplate(b *strings.Builder, name string, data any) error {
	if err := templates.ExecuteTemplate(b, name, data); err != nil {
		return fmt.Errorf("template %s: %w", name, err)
	}
	return nil
}

// --- Template data types ---

// blockData holds pre-computed data for one register block.
type blockData struct {
	Source        string
	Fingerprint   string
	Package       string
	RuntimeImport string
	Type          string
	Recv          string
	Doc           []string
	Fields        []fieldData
}

type fieldData struct {
	Name        string
	GoName      string
	OffsetConst string
	Offset      uint64
	Word        string
	Handle      string
	HandleDesc  string
	Doc         []string
	Accessors   []accessorData
}

type accessorData struct {
	Op     string
	Name   string
	GoName string
}

// --- Template definitions ---

const headerTmpl = `{{define "header" -}}
// Code generated by regblock. DO NOT EDIT.
{{- if .Source}}
// Source: {{.Source}}
{{- end}}
// Fingerprint: {{.Fingerprint}}

package {{.Package}}

import "{{.RuntimeImport}}"

{{end}}`

const offsetsTmpl = `{{define "offsets"}}
{{- if .Fields}}
// {{.Type}} register offsets from the block base address.
const (
{{- range .Fields}}
{{.OffsetConst}} = {{hexOffset .Offset}}
{{- end}}
)
{{end}}
{{end}}`

const blockTmpl = `{{define "block"}}
// {{.Type}} provides access to the {{.Type}} register block.
{{- range .Doc}}
//{{if .}} {{.}}{{end}}
{{- end}}
type {{.Type}} struct {
base uintptr
}

// New{{.Type}} binds the {{.Type}} register block to base. The base address
// is resolved once and stays fixed for the lifetime of the handle.
func New{{.Type}}(base mmio.BaseAddress) *{{.Type}} {
return &{{.Type}}{base: base.BaseAddress()}
}

// BaseAddress returns the resolved base address.
func ({{.Recv}} *{{.Type}}) BaseAddress() uintptr {
return {{.Recv}}.base
}

{{end}}`

const handlesTmpl = `{{define "handles"}}
{{- $recv := .Recv}}
{{- $type := .Type}}
{{- range .Fields}}
// {{.GoName}} returns the {{.HandleDesc}} handle of {{.Name}} at offset {{hexOffset .Offset}}.
{{- range .Doc}}
//{{if .}} {{.}}{{end}}
{{- end}}
func ({{$recv}} *{{$type}}) {{.GoName}}() mmio.{{.Handle}}[{{.Word}}] {
return mmio.New{{.Handle}}[{{.Word}}]({{$recv}}.base + {{.OffsetConst}})
}

{{end}}
{{- end}}`

const accessorsTmpl = `{{define "accessors"}}
{{- $recv := .Recv}}
{{- $type := .Type}}
{{- range .Fields}}
{{- $f := .}}
{{- range .Accessors}}
{{- if eq .Op "read"}}
// {{.GoName}} reads {{$f.Name}} with a single load.
func ({{$recv}} *{{$type}}) {{.GoName}}() {{$f.Word}} {
return {{$recv}}.{{$f.GoName}}().Load()
}
{{- else if eq .Op "write"}}
// {{.GoName}} writes value to {{$f.Name}} with a single store.
func ({{$recv}} *{{$type}}) {{.GoName}}(value {{$f.Word}}) {
{{$recv}}.{{$f.GoName}}().Store(value)
}
{{- else if eq .Op "clear"}}
// {{.GoName}} clears {{$f.Name}} by storing the all-ones sentinel.
func ({{$recv}} *{{$type}}) {{.GoName}}() {
{{$recv}}.{{$f.GoName}}().Clear()
}
{{- end}}

{{end}}
{{- end}}
{{- end}}`
