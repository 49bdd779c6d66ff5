// Package pgstore backs the row store with PostgreSQL. Each partition is a
// set of ordinal-keyed rows, maintained transactionally so the positional
// semantics (header at position 1, shifts after delete) hold exactly as
// they do on the workbook backend.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"BizBooks/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init creates the backing tables when they do not exist yet.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sheet_partitions (
			name       text PRIMARY KEY,
			created_at timestamptz NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS sheet_rows (
			id        bigserial PRIMARY KEY,
			partition text NOT NULL REFERENCES sheet_partitions(name) ON DELETE CASCADE,
			row_pos   int  NOT NULL,
			cells     text[] NOT NULL
		);
		CREATE INDEX IF NOT EXISTS sheet_rows_pos_idx ON sheet_rows (partition, row_pos);
	`)
	if err != nil {
		return fmt.Errorf("init row store schema: %w", err)
	}
	return nil
}

func (s *Store) ListRows(ctx context.Context, partition string) ([]store.Row, error) {
	if err := s.checkPartition(ctx, partition); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT cells FROM sheet_rows WHERE partition = $1 ORDER BY row_pos`, partition)
	if err != nil {
		return nil, classify("list rows", err)
	}
	defer rows.Close()
	var out []store.Row
	for rows.Next() {
		var cells []string
		if err := rows.Scan(&cells); err != nil {
			return nil, err
		}
		out = append(out, store.Row(cells))
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list rows", err)
	}
	return out, nil
}

func (s *Store) AppendRow(ctx context.Context, partition string, row store.Row) error {
	return s.withPartitionTx(ctx, "append row", partition, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO sheet_rows (partition, row_pos, cells)
			SELECT $1, COALESCE(MAX(row_pos), 0) + 1, $2
			FROM sheet_rows WHERE partition = $1`,
			partition, []string(row))
		return err
	})
}

func (s *Store) UpdateRange(ctx context.Context, partition string, rowPos, startCol int, values []string) error {
	if startCol < 1 {
		return fmt.Errorf("invalid start column %d", startCol)
	}
	return s.withPartitionTx(ctx, "update range", partition, func(tx pgx.Tx) error {
		var cells []string
		err := tx.QueryRow(ctx,
			`SELECT cells FROM sheet_rows WHERE partition = $1 AND row_pos = $2 FOR UPDATE`,
			partition, rowPos).Scan(&cells)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("row %d in %q: %w", rowPos, partition, store.ErrNotFound)
		}
		if err != nil {
			return err
		}
		for len(cells) < startCol-1+len(values) {
			cells = append(cells, "")
		}
		copy(cells[startCol-1:], values)
		_, err = tx.Exec(ctx,
			`UPDATE sheet_rows SET cells = $3 WHERE partition = $1 AND row_pos = $2`,
			partition, rowPos, cells)
		return err
	})
}

func (s *Store) DeleteRow(ctx context.Context, partition string, rowPos int) error {
	return s.withPartitionTx(ctx, "delete row", partition, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM sheet_rows WHERE partition = $1 AND row_pos = $2`, partition, rowPos)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("row %d in %q: %w", rowPos, partition, store.ErrNotFound)
		}
		_, err = tx.Exec(ctx,
			`UPDATE sheet_rows SET row_pos = row_pos - 1 WHERE partition = $1 AND row_pos > $2`,
			partition, rowPos)
		return err
	})
}

func (s *Store) ListPartitions(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name FROM sheet_partitions ORDER BY created_at, name`)
	if err != nil {
		return nil, classify("list partitions", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) CreatePartition(ctx context.Context, name string, header store.Row) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classify("create partition", err)
	}
	defer tx.Rollback(ctx)
	tag, err := tx.Exec(ctx,
		`INSERT INTO sheet_partitions (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return classify("create partition", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%q: %w", name, store.ErrPartitionExists)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO sheet_rows (partition, row_pos, cells) VALUES ($1, 1, $2)`,
		name, []string(header)); err != nil {
		return classify("create partition", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classify("create partition", err)
	}
	return nil
}

func (s *Store) DeletePartition(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sheet_partitions WHERE name = $1`, name)
	if err != nil {
		return classify("delete partition", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%q: %w", name, store.ErrPartitionNotFound)
	}
	return nil
}

func (s *Store) checkPartition(ctx context.Context, name string) error {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sheet_partitions WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return classify("check partition", err)
	}
	if !exists {
		return fmt.Errorf("%q: %w", name, store.ErrPartitionNotFound)
	}
	return nil
}

// withPartitionTx runs fn inside a transaction holding the partition row
// lock, so positional appends/deletes against one partition are serialized
// across connections as well as across goroutines.
func (s *Store) withPartitionTx(ctx context.Context, op, partition string, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classify(op, err)
	}
	defer tx.Rollback(ctx)
	var name string
	err = tx.QueryRow(ctx,
		`SELECT name FROM sheet_partitions WHERE name = $1 FOR UPDATE`, partition).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%q: %w", partition, store.ErrPartitionNotFound)
	}
	if err != nil {
		return classify(op, err)
	}
	if err := fn(tx); err != nil {
		return classify(op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(op, err)
	}
	return nil
}

// classify wraps connection-level and resource-exhaustion failures as
// transient so the retry layer picks them up; everything else (constraint
// violations, our own sentinel errors) passes through untouched.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrPartitionNotFound) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08: connection exception, 53: insufficient resources,
		// 57: operator intervention (e.g. server shutdown).
		code := pgErr.Code
		if strings.HasPrefix(code, "08") || strings.HasPrefix(code, "53") || strings.HasPrefix(code, "57") {
			return store.Transient(op, err)
		}
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) || pgconn.SafeToRetry(err) {
		return store.Transient(op, err)
	}
	return err
}
