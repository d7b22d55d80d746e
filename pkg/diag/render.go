package diag

import (
	"encoding/json"
	"fmt"
	"io"
)

// Render writes one line per report followed by a summary line.
func Render(w io.Writer, reports []Report) error {
	for _, r := range reports {
		if _, err := fmt.Fprintln(w, r.String()); err != nil {
			return err
		}
	}
	if len(reports) > 0 {
		_, err := fmt.Fprintf(w, "%d overlap violation(s)\n", len(reports))
		return err
	}
	return nil
}

// RenderJSON writes the reports as an indented JSON array.
func RenderJSON(w io.Writer, reports []Report) error {
	if reports == nil {
		reports = []Report{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
