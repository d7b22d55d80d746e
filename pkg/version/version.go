// Package version reports the regblock tool version and parses manifest
// format versions.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
)

// Current is the manifest format version understood by this build.
const Current = "1.0"

// Tool is the release version, set at link time:
//
//	go build -ldflags "-X github.com/HayleyDeckers/register-block/pkg/version.Tool=v0.2.0"
var Tool = ""

// ManifestVersion is the "major.minor" value of a manifest's version key.
// The major number changes when keys change meaning; the minor number
// changes when keys are added.
type ManifestVersion struct {
	Major uint16
	Minor uint16
}

// ParseManifestVersion parses a manifest version key.
func ParseManifestVersion(s string) (ManifestVersion, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok || strings.Contains(minor, ".") {
		return ManifestVersion{}, fmt.Errorf("manifest version %q: want major.minor", s)
	}
	ma, err := strconv.ParseUint(major, 10, 16)
	if err != nil {
		return ManifestVersion{}, fmt.Errorf("manifest version %q: bad major number", s)
	}
	mi, err := strconv.ParseUint(minor, 10, 16)
	if err != nil {
		return ManifestVersion{}, fmt.Errorf("manifest version %q: bad minor number", s)
	}
	return ManifestVersion{Major: uint16(ma), Minor: uint16(mi)}, nil
}

func (v ManifestVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Reads reports whether a build understanding v can load a manifest written
// for m: same major, and no keys added after v.
func (v ManifestVersion) Reads(m ManifestVersion) bool {
	return v.Major == m.Major && m.Minor <= v.Minor
}

// CheckFormat returns an error unless a manifest declaring version s can be
// read by this build. An empty s is accepted as Current.
func CheckFormat(s string) error {
	if s == "" {
		return nil
	}
	m, err := ParseManifestVersion(s)
	if err != nil {
		return err
	}
	current, _ := ParseManifestVersion(Current)
	switch {
	case current.Reads(m):
		return nil
	case current.Major != m.Major:
		return fmt.Errorf("manifest version %s is not supported (this build reads %d.x)", m, current.Major)
	default:
		return fmt.Errorf("manifest version %s is newer than this build (reads up to %s)", m, current)
	}
}

// ToolVersion returns Tool, falling back to the module version recorded in
// the build info, or "devel".
func ToolVersion() string {
	if Tool != "" {
		return Tool
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "devel"
}

// String returns the line printed by "regblock version".
func String() string {
	return fmt.Sprintf("regblock %s (manifest %s, %s %s/%s)",
		ToolVersion(), Current, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
