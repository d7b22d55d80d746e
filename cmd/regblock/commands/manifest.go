package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/HayleyDeckers/register-block/pkg/version"
)

// DefaultManifest is read from the working directory when no -config flag
// is given.
const DefaultManifest = "regblock.yaml"

// Manifest is the optional project configuration file. Command-line flags
// override every setting.
type Manifest struct {
	Version  string   `yaml:"version"`
	Package  string   `yaml:"package"`
	Output   string   `yaml:"output"`
	Runtime  string   `yaml:"runtime"`
	Inputs   []string `yaml:"inputs"`
	Trace    string   `yaml:"trace"`
	LogLevel string   `yaml:"log-level"`

	// Path is the file the manifest was loaded from, empty if none.
	Path string `yaml:"-"`
}

// LoadManifest reads a manifest. Relative paths in it are resolved against
// the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := version.CheckFormat(m.Version); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	rel := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	m.Output = rel(m.Output)
	m.Trace = rel(m.Trace)
	for i, in := range m.Inputs {
		m.Inputs[i] = rel(in)
	}
	m.Path = path
	return &m, nil
}

// findManifest loads the explicit manifest, or DefaultManifest when present,
// or returns an empty manifest.
func findManifest(explicit string) (*Manifest, error) {
	if explicit != "" {
		return LoadManifest(explicit)
	}
	if _, err := os.Stat(DefaultManifest); err == nil {
		return LoadManifest(DefaultManifest)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return &Manifest{}, nil
}

// expandInputs expands glob patterns. A pattern without matches is an error
// so typos do not silently produce nothing.
func expandInputs(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("input pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("input %q: no such file", p)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}
