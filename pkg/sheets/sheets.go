package sheets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleWorkbook is a Workbook backed by the Google Sheets v4 API. The
// API has no notion of an active tab, so the configured sheet name stands
// in for it.
type GoogleWorkbook struct {
	service       *sheets.Service
	spreadsheetID string
	activeSheet   string
}

func NewGoogleWorkbook(ctx context.Context, jsonPath, spreadsheetID, activeSheet string) (*GoogleWorkbook, error) {
	return newGoogleWorkbook(ctx, spreadsheetID, activeSheet, option.WithCredentialsFile(jsonPath))
}

func newGoogleWorkbook(ctx context.Context, spreadsheetID, activeSheet string, opts ...option.ClientOption) (*GoogleWorkbook, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets client: %w", err)
	}
	return &GoogleWorkbook{
		service:       srv,
		spreadsheetID: spreadsheetID,
		activeSheet:   activeSheet,
	}, nil
}

func (w *GoogleWorkbook) ID() string {
	return w.spreadsheetID
}

func (w *GoogleWorkbook) ActiveSheet(ctx context.Context) (Sheet, error) {
	sh, ok, err := w.SheetByName(ctx, w.activeSheet)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("sheet %q not found in spreadsheet %s", w.activeSheet, w.spreadsheetID)
	}
	return sh, nil
}

func (w *GoogleWorkbook) SheetByName(ctx context.Context, name string) (Sheet, bool, error) {
	ss, err := w.service.Spreadsheets.Get(w.spreadsheetID).
		Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, false, describe("read spreadsheet metadata", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == name {
			return &googleSheet{
				workbook: w,
				title:    sh.Properties.Title,
				sheetID:  sh.Properties.SheetId,
			}, true, nil
		}
	}
	return nil, false, nil
}

type googleSheet struct {
	workbook *GoogleWorkbook
	title    string
	sheetID  int64
}

func (s *googleSheet) Name() string {
	return s.title
}

// Values reads the underlying cell values rather than their display text, so
// numbers and date serials survive a read and write back unchanged.
func (s *googleSheet) Values(ctx context.Context) ([][]string, error) {
	resp, err := s.workbook.service.Spreadsheets.Values.Get(
		s.workbook.spreadsheetID,
		qualify(s.title, ""),
	).ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").Context(ctx).Do()
	if err != nil {
		return nil, describe("read values", err)
	}

	// The API drops trailing empty cells, pad back to a rectangle.
	width := 0
	for _, row := range resp.Values {
		if len(row) > width {
			width = len(row)
		}
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = make([]string, width)
		for j, v := range row {
			out[i][j] = cellText(v)
		}
	}
	return out, nil
}

func (s *googleSheet) Formula(ctx context.Context, cell Cell) (string, error) {
	resp, err := s.workbook.service.Spreadsheets.Values.Get(
		s.workbook.spreadsheetID,
		qualify(s.title, cell.A1()),
	).ValueRenderOption("FORMULA").Context(ctx).Do()
	if err != nil {
		return "", describe("read formula "+cell.A1(), err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", nil
	}
	text, ok := resp.Values[0][0].(string)
	if !ok || !strings.HasPrefix(text, "=") {
		return "", nil
	}
	return text, nil
}

func (s *googleSheet) WriteValues(ctx context.Context, origin Cell, values [][]string) error {
	if len(values) == 0 {
		return nil
	}
	width := 0
	rows := make([][]interface{}, len(values))
	for i, row := range values {
		rows[i] = make([]interface{}, len(row))
		for j, v := range row {
			rows[i][j] = v
		}
		if len(row) > width {
			width = len(row)
		}
	}
	rng := Range{Row: origin.Row, Col: origin.Col, NumRows: len(values), NumCols: width}
	_, err := s.workbook.service.Spreadsheets.Values.Update(
		s.workbook.spreadsheetID,
		qualify(s.title, rng.A1()),
		&sheets.ValueRange{Values: rows},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return describe("write values "+rng.A1(), err)
	}
	log.Debugf("wrote %d rows to %s!%s", len(values), s.title, rng.A1())
	return nil
}

func (s *googleSheet) WriteFormulas(ctx context.Context, updates []FormulaUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &sheets.ValueRange{
			Range:  qualify(s.title, u.Cell.A1()),
			Values: [][]interface{}{{u.Formula}},
		})
	}
	_, err := s.workbook.service.Spreadsheets.Values.BatchUpdate(
		s.workbook.spreadsheetID,
		&sheets.BatchUpdateValuesRequest{
			ValueInputOption: "USER_ENTERED",
			Data:             data,
		},
	).Context(ctx).Do()
	if err != nil {
		return describe("write formulas", err)
	}
	log.Debugf("wrote %d formulas to %s", len(updates), s.title)
	return nil
}

// Values.batchClear only touches cell contents, so dropdowns survive.
func (s *googleSheet) ClearContents(ctx context.Context, ranges []Range) error {
	if len(ranges) == 0 {
		return nil
	}
	a1 := make([]string, 0, len(ranges))
	for _, r := range ranges {
		a1 = append(a1, qualify(s.title, r.A1()))
	}
	_, err := s.workbook.service.Spreadsheets.Values.BatchClear(
		s.workbook.spreadsheetID,
		&sheets.BatchClearValuesRequest{Ranges: a1},
	).Context(ctx).Do()
	if err != nil {
		return describe("clear contents", err)
	}
	return nil
}

func (s *googleSheet) ClearBackgrounds(ctx context.Context, ranges []Range) error {
	if len(ranges) == 0 {
		return nil
	}
	requests := make([]*sheets.Request, 0, len(ranges))
	for _, r := range ranges {
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          s.sheetID,
					StartRowIndex:    int64(r.Row - 1),
					EndRowIndex:      int64(r.Row - 1 + r.NumRows),
					StartColumnIndex: int64(r.Col - 1),
					EndColumnIndex:   int64(r.Col - 1 + r.NumCols),
					ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
				},
				// An empty format under this field mask resets the background.
				Cell:   &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{}},
				Fields: "userEnteredFormat.backgroundColor",
			},
		})
	}
	_, err := s.workbook.service.Spreadsheets.BatchUpdate(
		s.workbook.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests},
	).Context(ctx).Do()
	if err != nil {
		return describe("clear backgrounds", err)
	}
	return nil
}

func cellText(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(v)
	}
}

func describe(op string, err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && (gErr.Code == 429 || gErr.Code == 403) {
		return fmt.Errorf("%s: rate limited or forbidden by Google Sheets API: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
