package parser

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Xlsx renders every sheet of a workbook as "Sheet: <name>" followed by its
// rows as CSV.
type Xlsx struct{}

func (Xlsx) Parse(ctx context.Context, path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		fmt.Fprintf(&b, "Sheet: %s\n", sheet)
		w := csv.NewWriter(&b)
		if err := w.WriteAll(rows); err != nil {
			return "", fmt.Errorf("render sheet %q: %w", sheet, err)
		}
		b.WriteString("\n\n")
	}
	return b.String(), nil
}
