package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DB stores and retrieves relational data through prepared statements.
type DB struct {
	db *sql.DB
}

// New wraps a database handle.
func New(db *sql.DB) *DB {
	return &DB{db: db}
}

// Connection returns the underlying handle, for libraries that need one.
func (d *DB) Connection() *sql.DB {
	return d.db
}

// Prepare creates a statement bound to the database.
//
//	row, err := d.Prepare("SELECT * FROM users WHERE id = ?").Bind(id).First(ctx)
func (d *DB) Prepare(query string) *Statement {
	return &Statement{q: d.db, query: query}
}

// Batch runs statements sequentially in one transaction and returns their
// results in order. A failing statement rolls back the whole batch.
func (d *DB) Batch(ctx context.Context, stmts ...*Statement) ([]*Result, error) {
	results := make([]*Result, 0, len(stmts))
	err := WithTx(ctx, d.db, func(tx *sql.Tx) error {
		for i, s := range stmts {
			res, err := s.run(ctx, tx)
			if err != nil {
				return fmt.Errorf("%w: statement %d: %w", ErrBatch, i, err)
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ExecResult summarizes an Exec call.
type ExecResult struct {
	Count    int           `json:"count"`
	Duration time.Duration `json:"duration"`
}

// Exec runs one statement per line of script without parameters.
// Execution stops at the first failing statement.
func (d *DB) Exec(ctx context.Context, script string) (*ExecResult, error) {
	start := time.Now()
	res := &ExecResult{}

	for line := range strings.SplitSeq(script, "\n") {
		q := strings.TrimSpace(line)
		if q == "" {
			continue
		}
		if _, err := d.db.ExecContext(ctx, q); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrExec, q, err)
		}
		res.Count++
	}

	res.Duration = time.Since(start)
	return res, nil
}

// Dump returns a consistent snapshot of a SQLite database file.
func (d *DB) Dump(ctx context.Context) ([]byte, error) {
	dir, err := os.MkdirTemp("", "edgekit-dump-*")
	if err != nil {
		return nil, errors.Join(ErrDump, err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, "dump.sqlite3")
	q := "VACUUM INTO '" + strings.ReplaceAll(path, "'", "''") + "'"
	if _, err := d.db.ExecContext(ctx, q); err != nil {
		return nil, errors.Join(ErrDump, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrDump, err)
	}
	return data, nil
}
