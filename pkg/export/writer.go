package export

import (
	"fmt"
	"io"
)

// WriteRows streams one row per record to w and reports how many rows were
// written. Records that format to nothing (flexible format without a
// template) are skipped, not counted.
func WriteRows(w io.Writer, format Format, f *Formatter, recs []*Record) (int, error) {
	written := 0
	for _, rec := range recs {
		row, err := f.Row(format, rec)
		if err != nil {
			return written, err
		}
		if row == "" {
			continue
		}
		if _, err := io.WriteString(w, row); err != nil {
			return written, fmt.Errorf("export: write row: %w", err)
		}
		written++
	}
	return written, nil
}
