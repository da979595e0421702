package notes

import (
	"regexp"
	"strconv"
)

// cellRef matches column letters, an optional row anchor and the row digits.
// A column anchor ($E2) sits outside the match and is carried through as is.
var cellRef = regexp.MustCompile(`([A-Z]+)(\$?)([0-9]+)`)

// AdjustFormula moves the relative references to templateRow in formula so
// they point at targetRow. Absolute rows ($2) and references to any other row
// are left alone. This is text substitution, the formula is never parsed.
func AdjustFormula(formula string, templateRow, targetRow int) string {
	if formula == "" || templateRow == targetRow {
		return formula
	}
	target := strconv.Itoa(targetRow)
	return cellRef.ReplaceAllStringFunc(formula, func(ref string) string {
		m := cellRef.FindStringSubmatch(ref)
		column, anchor, digits := m[1], m[2], m[3]
		if anchor == "$" {
			return ref
		}
		row, err := strconv.Atoi(digits)
		if err != nil || row != templateRow {
			return ref
		}
		return column + target
	})
}
