package notes

import (
	"context"
	"fmt"

	"bakedtools/pkg/sheets"

	log "github.com/sirupsen/logrus"
)

// Columns filled from the template row formulas.
var formulaColumns = []sheets.Column{sheets.ColumnBody, sheets.ColumnLinks}

// PrepareSummary counts the outcome of a PrepareSheet run.
type PrepareSummary struct {
	Filled  int
	Cleared int
}

// PrepareSheet copies the template row's body and links formulas down to
// every data row that has a client version, and clears status, body and
// links on rows that do not. The status dropdown's validation is kept.
func PrepareSheet(ctx context.Context, sheet sheets.Sheet) (PrepareSummary, error) {
	templates := make(map[sheets.Column]string, len(formulaColumns))
	for _, col := range formulaColumns {
		f, err := sheet.Formula(ctx, sheets.Cell{Row: sheets.TemplateRow, Col: int(col)})
		if err != nil {
			return PrepareSummary{}, fmt.Errorf("read template formula: %w", err)
		}
		templates[col] = f
	}

	values, err := sheet.Values(ctx)
	if err != nil {
		return PrepareSummary{}, fmt.Errorf("read %s: %w", sheet.Name(), err)
	}

	var (
		summary PrepareSummary
		updates []sheets.FormulaUpdate
		clears  []sheets.Range
	)
	for i := sheets.TemplateRow; i < len(values); i++ {
		row := i + 1
		if cellAt(values[i], sheets.ColumnClientVersion) == "" {
			clears = append(clears, sheets.Range{
				Row:     row,
				Col:     int(sheets.ColumnVersionStatus),
				NumRows: 1,
				NumCols: 3,
			})
			summary.Cleared++
			continue
		}
		for _, col := range formulaColumns {
			if templates[col] == "" {
				continue
			}
			updates = append(updates, sheets.FormulaUpdate{
				Cell:    sheets.Cell{Row: row, Col: int(col)},
				Formula: AdjustFormula(templates[col], sheets.TemplateRow, row),
			})
		}
		summary.Filled++
	}

	if err := sheet.WriteFormulas(ctx, updates); err != nil {
		return summary, fmt.Errorf("write formulas to %s: %w", sheet.Name(), err)
	}
	if err := sheet.ClearContents(ctx, clears); err != nil {
		return summary, fmt.Errorf("clear rows in %s: %w", sheet.Name(), err)
	}
	log.Debugf("prepared %s: %d rows filled, %d cleared", sheet.Name(), summary.Filled, summary.Cleared)
	return summary, nil
}
