package store

import "context"

// Backend is a row-oriented table store. Rows are returned with the header at
// index 0; data row indexes passed to UpdateRow start at 0 right after it.
type Backend interface {
	ReadRows(ctx context.Context, sheet string) ([][]string, error)
	AppendRow(ctx context.Context, sheet string, row []string) error
	UpdateRow(ctx context.Context, sheet string, index int, row []string) error
	WriteHeader(ctx context.Context, sheet string, header []string) error
}
