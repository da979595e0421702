package notes

import (
	"context"
	"testing"

	"bakedtools/pkg/sheets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotesSheet(t *testing.T) *sheets.MemorySheet {
	t.Helper()
	wb := sheets.NewMemoryWorkbook("ss-1", "Notes Back")
	sh := wb.AddSheet("Notes Back", [][]string{
		{"Version Code", "Client Version", "Client Notes", "Version Status", "Body", "Links"},
		{"HAL_1_1_v1", "HAL_1_1_c1", "tmpl", "Client Note"},
		{"HAL_1_2_v1", "HAL_1_2_c1", "fix edge", "Client Note"},
		{"HAL_1_3_v1", "", "", "Hero Shot"},
		{"HAL_1_4_v1", "HAL_1_4_c1", "", ""},
	})
	sh.Set(sheets.Cell{Row: 2, Col: 5}, sheets.MemoryCell{Formula: `=C2&" ("&$D$1&")"`})
	sh.Set(sheets.Cell{Row: 2, Col: 6}, sheets.MemoryCell{Formula: "=HYPERLINK(A2)"})
	sh.Set(sheets.Cell{Row: 4, Col: 4}, sheets.MemoryCell{Value: "Hero Shot", Validation: "status"})
	sh.Set(sheets.Cell{Row: 4, Col: 5}, sheets.MemoryCell{Formula: "=C4"})
	return sh
}

func TestPrepareSheet(t *testing.T) {
	ctx := context.Background()
	sh := newNotesSheet(t)

	summary, err := PrepareSheet(ctx, sh)
	require.NoError(t, err)
	assert.Equal(t, PrepareSummary{Filled: 2, Cleared: 1}, summary)

	assert.Equal(t, `=C3&" ("&$D$1&")"`, sh.Cell(sheets.Cell{Row: 3, Col: 5}).Formula)
	assert.Equal(t, "=HYPERLINK(A3)", sh.Cell(sheets.Cell{Row: 3, Col: 6}).Formula)
	assert.Equal(t, `=C5&" ("&$D$1&")"`, sh.Cell(sheets.Cell{Row: 5, Col: 5}).Formula)
	assert.Equal(t, "=HYPERLINK(A5)", sh.Cell(sheets.Cell{Row: 5, Col: 6}).Formula)

	cleared := sh.Cell(sheets.Cell{Row: 4, Col: 4})
	assert.Equal(t, "", cleared.Value)
	assert.Equal(t, "status", cleared.Validation)
	assert.Equal(t, "", sh.Cell(sheets.Cell{Row: 4, Col: 5}).Formula)

	// Header and template rows are never rewritten.
	assert.Equal(t, "=HYPERLINK(A2)", sh.Cell(sheets.Cell{Row: 2, Col: 6}).Formula)
	assert.Equal(t, "Version Status", sh.Cell(sheets.Cell{Row: 1, Col: 4}).Value)
}

func TestPrepareSheetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sh := newNotesSheet(t)

	_, err := PrepareSheet(ctx, sh)
	require.NoError(t, err)
	first, err := sh.Values(ctx)
	require.NoError(t, err)

	_, err = PrepareSheet(ctx, sh)
	require.NoError(t, err)
	second, err := sh.Values(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPrepareSheetEmptyTemplateLeavesColumn(t *testing.T) {
	ctx := context.Background()
	sh := newNotesSheet(t)
	sh.Set(sheets.Cell{Row: 2, Col: 6}, sheets.MemoryCell{})
	sh.Set(sheets.Cell{Row: 3, Col: 6}, sheets.MemoryCell{Value: "hand written link"})

	_, err := PrepareSheet(ctx, sh)
	require.NoError(t, err)

	assert.Equal(t, "hand written link", sh.Cell(sheets.Cell{Row: 3, Col: 6}).Value)
	assert.Equal(t, `=C3&" ("&$D$1&")"`, sh.Cell(sheets.Cell{Row: 3, Col: 5}).Formula)
}

func TestClearHighlights(t *testing.T) {
	ctx := context.Background()
	wb := sheets.NewMemoryWorkbook("ss-1", "Notes Back")
	sh := wb.AddSheet("Notes Back", [][]string{
		{"Version Code", "Client Version", "Client Notes", "Version Status", "Body", "Links"},
		{"HAL_1_1_v1", "", "", "Client Note", "body", "link"},
		{"HAL_1_2_v1", "", "", "", "", ""},
		{"HAL_1_3_v1", "", "", "", "", "link"},
	})
	for row := 1; row <= 4; row++ {
		for col := 4; col <= 6; col++ {
			c := sheets.Cell{Row: row, Col: col}
			cell := sh.Cell(c)
			cell.Background = "lime"
			sh.Set(c, cell)
		}
	}

	n, err := ClearHighlights(ctx, sh)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for col := 4; col <= 6; col++ {
		assert.Equal(t, "lime", sh.Cell(sheets.Cell{Row: 1, Col: col}).Background, "header")
		assert.Equal(t, "", sh.Cell(sheets.Cell{Row: 2, Col: col}).Background)
		assert.Equal(t, "lime", sh.Cell(sheets.Cell{Row: 3, Col: col}).Background, "row without data")
		assert.Equal(t, "", sh.Cell(sheets.Cell{Row: 4, Col: col}).Background)
	}
}
