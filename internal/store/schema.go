package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
)

const (
	ColUserID       = "user_id"
	ColUsername     = "username"
	ColBalance      = "balance"
	ColLastClaim    = "last_claim_time"
	ColReferralCode = "referral_code"
	ColMiningSpeed  = "mining_speed"

	ColTaskID      = "task_id"
	ColDescription = "description"
	ColReward      = "reward"
	ColStatus      = "status"

	ColTxID      = "tx_id"
	ColTimestamp = "timestamp"
	ColKind      = "kind"
	ColReference = "reference"
	ColState     = "state"

	ColReferrerCode    = "referrer_code"
	ColRefereeID       = "referee_id"
	ColRefereeUsername = "referee_username"
	ColDate            = "date"
)

var (
	userColumns        = []string{ColUserID, ColUsername, ColBalance, ColLastClaim, ColReferralCode, ColMiningSpeed}
	taskColumns        = []string{ColTaskID, ColDescription, ColReward, ColStatus}
	transactionColumns = []string{ColTxID, ColTimestamp, ColUserID, ColKind, ColReference, ColReward, ColState}
	referralColumns    = []string{ColReferrerCode, ColReward, ColRefereeID, ColRefereeUsername, ColDate}
)

// Schema maps the named columns of one table to their positions.
type Schema struct {
	Sheet    string
	Columns  []string
	Required []string
	index    map[string]int
}

func NewSchema(sheet string, columns []string, required ...string) *Schema {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &Schema{
		Sheet:    sheet,
		Columns:  columns,
		Required: required,
		index:    index,
	}
}

// Ensure writes the header to an empty table and checks it otherwise.
func (s *Schema) Ensure(ctx context.Context, backend Backend) error {
	rows, err := backend.ReadRows(ctx, s.Sheet)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", models.ErrStoreUnavailable, s.Sheet, err)
	}

	if len(rows) == 0 || isBlank(rows[0]) {
		if err := backend.WriteHeader(ctx, s.Sheet, s.Columns); err != nil {
			return fmt.Errorf("%w: write %s header: %v", models.ErrStoreUnavailable, s.Sheet, err)
		}
		return nil
	}

	return s.CheckHeader(rows[0])
}

// CheckHeader fails when the header is not exactly the expected columns in
// order. Extra trailing columns are tolerated.
func (s *Schema) CheckHeader(header []string) error {
	if len(header) < len(s.Columns) {
		return fmt.Errorf("%w: %s has %d columns, want %d (%s)",
			models.ErrSchemaMismatch, s.Sheet, len(header), len(s.Columns), strings.Join(s.Columns, ","))
	}

	for i, want := range s.Columns {
		got := strings.ToLower(strings.TrimSpace(header[i]))
		if got != want {
			return fmt.Errorf("%w: %s column %d is %q, want %q",
				models.ErrSchemaMismatch, s.Sheet, i+1, header[i], want)
		}
	}

	return nil
}

// Record is one decoded row addressed by column name.
type Record struct {
	schema *Schema
	cells  []string
}

// Decode checks the required columns of a data row. Rows shorter than the
// schema are padded, as spreadsheets drop trailing empty cells.
func (s *Schema) Decode(line int, row []string) (Record, error) {
	cells := make([]string, len(s.Columns))
	copy(cells, row)

	rec := Record{schema: s, cells: cells}
	for _, col := range s.Required {
		if rec.Get(col) == "" {
			return Record{}, fmt.Errorf("%w: %s row %d has no %s", models.ErrMalformedRow, s.Sheet, line, col)
		}
	}

	return rec, nil
}

func (r Record) Get(col string) string {
	i, ok := r.schema.index[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

// Encode lays values out in column order. Unknown columns panic since they are
// programming errors.
func (s *Schema) Encode(values map[string]string) []string {
	row := make([]string, len(s.Columns))
	for col, v := range values {
		i, ok := s.index[col]
		if !ok {
			panic(fmt.Sprintf("store: %s has no column %q", s.Sheet, col))
		}
		row[i] = v
	}
	return row
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
