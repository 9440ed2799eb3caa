// Package report prints run statistics as fixed-width text tables.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/rxtech-lab/argo-sma/pkg/errors"
)

// ColumnWidth is the width every cell is padded to.
const ColumnWidth = 20

// PrintTable writes rows of equal length. Each row starts with an empty cell
// and every cell is left-aligned in a ColumnWidth column.
func PrintTable(w io.Writer, rows ...[]string) error {
	if len(rows) == 0 {
		return nil
	}

	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			return errors.Newf(errors.ErrCodeInvalidParameter, "row %d has %d cells, expected %d", i, len(row), width)
		}
	}

	var b strings.Builder

	for _, row := range rows {
		b.WriteString(pad(""))

		for _, cell := range row {
			b.WriteString(pad(cell))
		}

		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}

	return nil
}

func pad(cell string) string {
	return fmt.Sprintf("%-*s", ColumnWidth, cell)
}
