// Package notes holds the sheet transforms behind the Baked Tools menu:
// matching client versions to internal ones, preparing note formulas and
// clearing sync highlights.
package notes

import (
	"context"
	"fmt"
	"strings"

	"bakedtools/pkg/sheets"

	log "github.com/sirupsen/logrus"
)

// VersionRow is one row of columns A-C. InternalID is the anchor and never
// moves; ClientID and Notes travel together.
type VersionRow struct {
	InternalID string
	ClientID   string
	Notes      string
}

// ShotKey returns the project_sequence_shot prefix of a version code,
// e.g. "HAL_122_1020_COMP_v016" -> "HAL_122_1020". Codes with fewer than
// three segments are their own key.
func ShotKey(version string) string {
	if version == "" {
		return ""
	}
	parts := strings.SplitN(version, "_", 4)
	if len(parts) < 3 {
		return version
	}
	return parts[0] + "_" + parts[1] + "_" + parts[2]
}

type clientEntry struct {
	clientID string
	notes    string
}

// clientQueue hands out client entries in the order they appeared.
type clientQueue struct {
	entries []clientEntry
	head    int
}

func (q *clientQueue) push(e clientEntry) {
	q.entries = append(q.entries, e)
}

func (q *clientQueue) popFront() (clientEntry, bool) {
	if q.head >= len(q.entries) {
		return clientEntry{}, false
	}
	e := q.entries[q.head]
	q.head++
	return e, true
}

// MatchVersions realigns client versions so each sits beside the internal
// version of the same shot. Clients are claimed first come first served in
// row order, and each is used at most once. Rows whose anchor is empty or
// finds no client get empty client columns.
func MatchVersions(rows []VersionRow) []VersionRow {
	buckets := make(map[string]*clientQueue)
	for _, row := range rows {
		if row.ClientID == "" {
			continue
		}
		key := ShotKey(row.ClientID)
		q, ok := buckets[key]
		if !ok {
			q = &clientQueue{}
			buckets[key] = q
		}
		q.push(clientEntry{clientID: row.ClientID, notes: row.Notes})
	}

	out := make([]VersionRow, len(rows))
	for i, row := range rows {
		out[i] = VersionRow{InternalID: row.InternalID}
		if row.InternalID == "" {
			continue
		}
		q, ok := buckets[ShotKey(row.InternalID)]
		if !ok {
			continue
		}
		if e, ok := q.popFront(); ok {
			out[i].ClientID = e.clientID
			out[i].Notes = e.notes
		}
	}
	return out
}

// MatchSummary counts the outcome of a MatchSheet run.
type MatchSummary struct {
	Rows      int
	Matched   int
	Unmatched int
}

// MatchSheet matches every row below the header, template row included,
// and writes columns A-C back. Columns D onwards are not read or written.
func MatchSheet(ctx context.Context, sheet sheets.Sheet) (MatchSummary, error) {
	values, err := sheet.Values(ctx)
	if err != nil {
		return MatchSummary{}, fmt.Errorf("read %s: %w", sheet.Name(), err)
	}
	if len(values) <= sheets.HeaderRow {
		log.Debugf("%s has no data rows to match", sheet.Name())
		return MatchSummary{}, nil
	}

	data := values[sheets.HeaderRow:]
	rows := make([]VersionRow, len(data))
	for i, v := range data {
		rows[i] = VersionRow{
			InternalID: cellAt(v, sheets.ColumnVersionCode),
			ClientID:   cellAt(v, sheets.ColumnClientVersion),
			Notes:      cellAt(v, sheets.ColumnClientNotes),
		}
	}

	matched := MatchVersions(rows)

	var summary MatchSummary
	out := make([][]string, len(matched))
	for i, m := range matched {
		out[i] = []string{m.InternalID, m.ClientID, m.Notes}
		summary.Rows++
		if m.ClientID != "" {
			summary.Matched++
		} else if m.InternalID != "" {
			summary.Unmatched++
		}
	}

	origin := sheets.Cell{Row: sheets.HeaderRow + 1, Col: int(sheets.ColumnVersionCode)}
	if err := sheet.WriteValues(ctx, origin, out); err != nil {
		return summary, fmt.Errorf("write matched versions to %s: %w", sheet.Name(), err)
	}
	return summary, nil
}

func cellAt(row []string, col sheets.Column) string {
	if col.Index() < len(row) {
		return row[col.Index()]
	}
	return ""
}
