package emit

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/HayleyDeckers/register-block/pkg/regmodel"
)

const fingerprintPrefix = "// Fingerprint: "

// Fingerprint returns a digest of everything that ends up in the generated
// file for b: the options written to the header and package clause, the
// block and field descriptions, and each field's name, offset, width and
// access. Field source positions are not part of the output and are not
// hashed.
func Fingerprint(b *regmodel.RegisterBlock, opts Options) string {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "package %s\nruntime %s\nsource %q\nblock %s\n%q\n",
		opts.Package, opts.RuntimeImport, opts.Source, b.Name(), b.Description())
	for _, f := range b.Fields() {
		fmt.Fprintf(&buf, "field %s %d %d %s %q\n", f.Name, f.Offset, f.Width, f.Access, f.Description)
	}
	sum := blake2b.Sum256(buf.Bytes())
	return "blake2b-256:" + hex.EncodeToString(sum[:])
}

// ReadFingerprint extracts the fingerprint from the header of generated
// source. It returns false if src carries none.
func ReadFingerprint(src []byte) (string, bool) {
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "package ") {
			break
		}
		if fp, ok := strings.CutPrefix(line, fingerprintPrefix); ok {
			return strings.TrimSpace(fp), true
		}
	}
	return "", false
}
