package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	valueInputRaw  = "RAW"
	insertRows     = "INSERT_ROWS"
	lastReadColumn = "Z"

	valueRenderUnformatted = "UNFORMATTED_VALUE"
	dateTimeRenderString   = "FORMATTED_STRING"
)

// SheetsBackend reads and writes tables as tabs of a Google spreadsheet.
type SheetsBackend struct {
	service       *sheets.Service
	spreadsheetID string
}

func NewSheetsBackend(ctx context.Context, spreadsheetID string, credentials []byte) (*SheetsBackend, error) {
	service, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentials),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsBackend{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

func (b *SheetsBackend) ReadRows(ctx context.Context, sheet string) ([][]string, error) {
	resp, err := b.service.Spreadsheets.Values.
		Get(b.spreadsheetID, sheetRange(sheet, "A1:"+lastReadColumn)).
		ValueRenderOption(valueRenderUnformatted).
		DateTimeRenderOption(dateTimeRenderString).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = cellString(v)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// cellString renders an unformatted cell. Numbers come back as float64 and
// must not turn into exponent notation, since ids are numeric too.
func cellString(v interface{}) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(n)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (b *SheetsBackend) AppendRow(ctx context.Context, sheet string, row []string) error {
	_, err := b.service.Spreadsheets.Values.
		Append(b.spreadsheetID, sheetRange(sheet, "A1"), valueRange(row)).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", sheet, err)
	}
	return nil
}

func (b *SheetsBackend) UpdateRow(ctx context.Context, sheet string, index int, row []string) error {
	// Data row 0 lives on sheet line 2, under the header.
	cell := fmt.Sprintf("A%d", index+2)
	return b.write(ctx, sheet, cell, row)
}

func (b *SheetsBackend) WriteHeader(ctx context.Context, sheet string, header []string) error {
	return b.write(ctx, sheet, "A1", header)
}

func (b *SheetsBackend) write(ctx context.Context, sheet, cell string, row []string) error {
	_, err := b.service.Spreadsheets.Values.
		Update(b.spreadsheetID, sheetRange(sheet, cell), valueRange(row)).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func valueRange(row []string) *sheets.ValueRange {
	values := make([]interface{}, len(row))
	for i, c := range row {
		values[i] = c
	}
	return &sheets.ValueRange{Values: [][]interface{}{values}}
}

// sheetRange builds an A1 range, quoting tab names that need it.
func sheetRange(sheet, cells string) string {
	if strings.ContainsAny(sheet, " '!") {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet + "!" + cells
}
