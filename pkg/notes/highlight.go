package notes

import (
	"context"
	"fmt"

	"bakedtools/pkg/sheets"
)

// ClearHighlights removes the background the sync endpoint paints over
// status, body and links. Only rows holding data in one of those columns are
// touched. It returns the number of rows cleared.
func ClearHighlights(ctx context.Context, sheet sheets.Sheet) (int, error) {
	values, err := sheet.Values(ctx)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", sheet.Name(), err)
	}

	var ranges []sheets.Range
	for i := sheets.HeaderRow; i < len(values); i++ {
		v := values[i]
		if cellAt(v, sheets.ColumnVersionStatus) == "" &&
			cellAt(v, sheets.ColumnBody) == "" &&
			cellAt(v, sheets.ColumnLinks) == "" {
			continue
		}
		ranges = append(ranges, sheets.Range{
			Row:     i + 1,
			Col:     int(sheets.ColumnVersionStatus),
			NumRows: 1,
			NumCols: 3,
		})
	}
	if err := sheet.ClearBackgrounds(ctx, ranges); err != nil {
		return 0, fmt.Errorf("clear highlights in %s: %w", sheet.Name(), err)
	}
	return len(ranges), nil
}
