package sheets

import (
	"context"
	"fmt"
	"strings"
)

// Workbook is a spreadsheet holding named sheets.
type Workbook interface {
	ID() string
	ActiveSheet(ctx context.Context) (Sheet, error)
	SheetByName(ctx context.Context, name string) (Sheet, bool, error)
}

// Sheet is the cell grid of one tab. Rows and columns are 1-based.
type Sheet interface {
	Name() string
	// Values returns the data range as a rectangle of displayed values.
	Values(ctx context.Context) ([][]string, error)
	// Formula returns the formula text of a cell, or "" if it holds none.
	Formula(ctx context.Context, cell Cell) (string, error)
	WriteValues(ctx context.Context, origin Cell, values [][]string) error
	WriteFormulas(ctx context.Context, updates []FormulaUpdate) error
	// ClearContents removes values and formulas but keeps formatting and
	// data validation rules.
	ClearContents(ctx context.Context, ranges []Range) error
	ClearBackgrounds(ctx context.Context, ranges []Range) error
}

type Column int

const (
	ColumnVersionCode   Column = 1
	ColumnClientVersion Column = 2
	ColumnClientNotes   Column = 3
	ColumnVersionStatus Column = 4
	ColumnBody          Column = 5
	ColumnLinks         Column = 6
)

// Index is the 0-based position of the column inside a row of Values.
func (c Column) Index() int {
	return int(c) - 1
}

const (
	HeaderRow   = 1
	TemplateRow = 2
)

type Cell struct {
	Row int
	Col int
}

func (c Cell) A1() string {
	return fmt.Sprintf("%s%d", ColumnLetter(c.Col), c.Row)
}

type Range struct {
	Row     int
	Col     int
	NumRows int
	NumCols int
}

func (r Range) A1() string {
	start := Cell{Row: r.Row, Col: r.Col}
	if r.NumRows <= 1 && r.NumCols <= 1 {
		return start.A1()
	}
	end := Cell{Row: r.Row + r.NumRows - 1, Col: r.Col + r.NumCols - 1}
	return start.A1() + ":" + end.A1()
}

type FormulaUpdate struct {
	Cell    Cell
	Formula string
}

// ColumnLetter converts a 1-based column number to its letters (1 -> A, 27 -> AA).
func ColumnLetter(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

// qualify prefixes an A1 range with the quoted sheet name.
func qualify(sheet, a1 string) string {
	quoted := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	if a1 == "" {
		return quoted
	}
	return quoted + "!" + a1
}
