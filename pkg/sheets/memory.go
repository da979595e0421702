package sheets

import (
	"context"
	"fmt"
	"sync"
)

// MemoryCell is one cell of a MemorySheet.
type MemoryCell struct {
	Value      string
	Formula    string
	Background string
	Validation string
}

func (c MemoryCell) empty() bool {
	return c.Value == "" && c.Formula == ""
}

// displayed stands in for evaluation: a formula cell shows its formula text.
func (c MemoryCell) displayed() string {
	if c.Value == "" {
		return c.Formula
	}
	return c.Value
}

// MemoryWorkbook is an in-process Workbook, used by tests and dry runs.
type MemoryWorkbook struct {
	id     string
	active string

	mu     sync.Mutex
	sheets map[string]*MemorySheet
}

func NewMemoryWorkbook(id, active string) *MemoryWorkbook {
	return &MemoryWorkbook{id: id, active: active, sheets: map[string]*MemorySheet{}}
}

// AddSheet creates (or replaces) a sheet holding rows as plain values.
func (w *MemoryWorkbook) AddSheet(name string, rows [][]string) *MemorySheet {
	sh := &MemorySheet{name: name}
	for i, row := range rows {
		for j, v := range row {
			sh.Set(Cell{Row: i + 1, Col: j + 1}, MemoryCell{Value: v})
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sheets[name] = sh
	return sh
}

func (w *MemoryWorkbook) ID() string {
	return w.id
}

func (w *MemoryWorkbook) ActiveSheet(ctx context.Context) (Sheet, error) {
	sh, ok, _ := w.SheetByName(ctx, w.active)
	if !ok {
		return nil, fmt.Errorf("sheet %q not found in spreadsheet %s", w.active, w.id)
	}
	return sh, nil
}

func (w *MemoryWorkbook) SheetByName(_ context.Context, name string) (Sheet, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	sh, ok := w.sheets[name]
	if !ok {
		return nil, false, nil
	}
	return sh, true, nil
}

type MemorySheet struct {
	name string

	mu    sync.Mutex
	cells [][]MemoryCell
}

func (s *MemorySheet) Name() string {
	return s.name
}

// Cell returns a copy of the cell at c; cells outside the grid are empty.
func (s *MemorySheet) Cell(c Cell) MemoryCell {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Row < 1 || c.Row > len(s.cells) || c.Col < 1 || c.Col > len(s.cells[c.Row-1]) {
		return MemoryCell{}
	}
	return s.cells[c.Row-1][c.Col-1]
}

func (s *MemorySheet) Set(c Cell, cell MemoryCell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.at(c) = cell
}

// at grows the grid as needed. Callers hold s.mu.
func (s *MemorySheet) at(c Cell) *MemoryCell {
	for len(s.cells) < c.Row {
		s.cells = append(s.cells, nil)
	}
	row := s.cells[c.Row-1]
	for len(row) < c.Col {
		row = append(row, MemoryCell{})
	}
	s.cells[c.Row-1] = row
	return &row[c.Col-1]
}

func (s *MemorySheet) Values(_ context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lastRow, lastCol := 0, 0
	for i, row := range s.cells {
		for j, cell := range row {
			if !cell.empty() {
				lastRow = max(lastRow, i+1)
				lastCol = max(lastCol, j+1)
			}
		}
	}
	out := make([][]string, lastRow)
	for i := range out {
		out[i] = make([]string, lastCol)
		for j := 0; j < lastCol && j < len(s.cells[i]); j++ {
			out[i][j] = s.cells[i][j].displayed()
		}
	}
	return out, nil
}

func (s *MemorySheet) Formula(_ context.Context, c Cell) (string, error) {
	return s.Cell(c).Formula, nil
}

func (s *MemorySheet) WriteValues(_ context.Context, origin Cell, values [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range values {
		for j, v := range row {
			cell := s.at(Cell{Row: origin.Row + i, Col: origin.Col + j})
			cell.Value = v
			cell.Formula = ""
		}
	}
	return nil
}

func (s *MemorySheet) WriteFormulas(_ context.Context, updates []FormulaUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		cell := s.at(u.Cell)
		cell.Formula = u.Formula
		cell.Value = ""
	}
	return nil
}

func (s *MemorySheet) ClearContents(_ context.Context, ranges []Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range ranges {
		s.each(r, func(cell *MemoryCell) {
			cell.Value = ""
			cell.Formula = ""
		})
	}
	return nil
}

func (s *MemorySheet) ClearBackgrounds(_ context.Context, ranges []Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range ranges {
		s.each(r, func(cell *MemoryCell) {
			cell.Background = ""
		})
	}
	return nil
}

func (s *MemorySheet) each(r Range, fn func(*MemoryCell)) {
	for row := r.Row; row < r.Row+r.NumRows; row++ {
		for col := r.Col; col < r.Col+r.NumCols; col++ {
			fn(s.at(Cell{Row: row, Col: col}))
		}
	}
}
