package report

import (
	"io"
	"strings"
)

// WriteCSV joins fields with commas and rows with newlines. Fields are not quoted, so a
// timestamp or location containing a comma spreads over several columns.
func (r *Report) WriteCSV(w io.Writer) error {
	lines := make([]string, 0, len(r.Records)+1)
	for _, row := range r.Rows() {
		lines = append(lines, strings.Join(row, ","))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}
