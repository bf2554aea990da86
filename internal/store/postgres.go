package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const queryTimeout = 5 * time.Second

// PostgresBackend keeps every table in one sheet_rows relation, row 0 being
// the header.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

func NewPostgresBackend(ctx context.Context, dsn string) (*PostgresBackend, error) {
	cfg, err := pgxpool.ParseConfig(strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b := &PostgresBackend{pool: pool}
	if err := b.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

func (b *PostgresBackend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

func (b *PostgresBackend) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDB(*b.pool.Config().ConnConfig)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func (b *PostgresBackend) ReadRows(ctx context.Context, sheet string) ([][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := b.pool.Query(ctx, `
SELECT cells
FROM sheet_rows
WHERE sheet = $1
ORDER BY idx
`, sheet)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) ([]string, error) {
		var cells []string
		err := row.Scan(&cells)
		return cells, err
	})
}

func (b *PostgresBackend) AppendRow(ctx context.Context, sheet string, row []string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sheet); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
INSERT INTO sheet_rows (sheet, idx, cells)
SELECT $1, COALESCE(MAX(idx), -1) + 1, $2
FROM sheet_rows
WHERE sheet = $1
`, sheet, row)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (b *PostgresBackend) UpdateRow(ctx context.Context, sheet string, index int, row []string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := b.pool.Exec(ctx, `
UPDATE sheet_rows
SET cells = $3, updated_at = NOW()
WHERE sheet = $1 AND idx = $2
`, sheet, index+1, row)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("row %d out of range in %s", index, sheet)
	}
	return nil
}

func (b *PostgresBackend) WriteHeader(ctx context.Context, sheet string, header []string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := b.pool.Exec(ctx, `
INSERT INTO sheet_rows (sheet, idx, cells)
VALUES ($1, 0, $2)
ON CONFLICT (sheet, idx) DO UPDATE SET
  cells = EXCLUDED.cells,
  updated_at = NOW()
`, sheet, header)
	return err
}

// DropTable deletes every row of a table. Used to clean up after tests.
func (b *PostgresBackend) DropTable(ctx context.Context, sheet string) error {
	if b.pool == nil {
		return errors.New("postgres backend is closed")
	}
	_, err := b.pool.Exec(ctx, `DELETE FROM sheet_rows WHERE sheet = $1`, sheet)
	return err
}
