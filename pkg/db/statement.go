package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Row is one result row keyed by column name.
type Row map[string]any

// Meta describes a statement execution.
type Meta struct {
	Duration    time.Duration `json:"duration"`
	Changes     int64         `json:"changes"`
	LastRowID   int64         `json:"last_row_id"`
	RowsRead    int           `json:"rows_read"`
	RowsWritten int           `json:"rows_written"`
	ChangedDB   bool          `json:"changed_db"`
}

// Result holds the rows and metadata of one statement.
type Result struct {
	Results []Row `json:"results"`
	Meta    Meta  `json:"meta"`
	Success bool  `json:"success"`
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Statement is a query with its bound parameters. Statements are immutable:
// Bind returns a new Statement, so one prepared query can be reused.
type Statement struct {
	q     querier
	query string
	args  []any
}

// Bind returns a copy of the statement with args bound to its placeholders.
func (s *Statement) Bind(args ...any) *Statement {
	return &Statement{q: s.q, query: s.query, args: slices.Clone(args)}
}

// Query returns the SQL text.
func (s *Statement) Query() string {
	return s.query
}

// First returns the first row, or ErrNoRows.
func (s *Statement) First(ctx context.Context) (Row, error) {
	res, err := s.all(ctx, s.q)
	if err != nil {
		return nil, err
	}
	if len(res.Results) == 0 {
		return nil, ErrNoRows
	}
	return res.Results[0], nil
}

// FirstValue returns a single column of the first row.
func (s *Statement) FirstValue(ctx context.Context, column string) (any, error) {
	row, err := s.First(ctx)
	if err != nil {
		return nil, err
	}
	v, ok := row[column]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoColumn, column)
	}
	return v, nil
}

// All returns every row.
func (s *Statement) All(ctx context.Context) (*Result, error) {
	return s.all(ctx, s.q)
}

// Run executes the statement. Writes report changes and the last row id;
// statements that return rows behave like All.
func (s *Statement) Run(ctx context.Context) (*Result, error) {
	return s.run(ctx, s.q)
}

// Raw returns rows as value slices. With columnNames the first row holds the column names.
func (s *Statement) Raw(ctx context.Context, columnNames bool) ([][]any, error) {
	rows, err := s.q.QueryContext(ctx, s.query, s.args...)
	if err != nil {
		return nil, queryError(s.query, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, queryError(s.query, err)
	}

	var out [][]any
	if columnNames {
		header := make([]any, len(cols))
		for i, c := range cols {
			header[i] = c
		}
		out = append(out, header)
	}

	for rows.Next() {
		values, err := scanValues(rows, len(cols))
		if err != nil {
			return nil, queryError(s.query, err)
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(s.query, err)
	}
	return out, nil
}

func (s *Statement) run(ctx context.Context, q querier) (*Result, error) {
	if returnsRows(s.query) {
		return s.all(ctx, q)
	}

	start := time.Now()
	res, err := q.ExecContext(ctx, s.query, s.args...)
	if err != nil {
		return nil, queryError(s.query, err)
	}

	changes, _ := res.RowsAffected()
	lastID, _ := res.LastInsertId()
	return &Result{
		Results: []Row{},
		Success: true,
		Meta: Meta{
			Duration:    time.Since(start),
			Changes:     changes,
			LastRowID:   lastID,
			RowsWritten: int(changes),
			ChangedDB:   changes > 0,
		},
	}, nil
}

func (s *Statement) all(ctx context.Context, q querier) (*Result, error) {
	start := time.Now()
	rows, err := q.QueryContext(ctx, s.query, s.args...)
	if err != nil {
		return nil, queryError(s.query, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, queryError(s.query, err)
	}

	results := []Row{}
	for rows.Next() {
		values, err := scanValues(rows, len(cols))
		if err != nil {
			return nil, queryError(s.query, err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(s.query, err)
	}

	return &Result{
		Results: results,
		Success: true,
		Meta: Meta{
			Duration: time.Since(start),
			RowsRead: len(results),
		},
	}, nil
}

func scanValues(rows *sql.Rows, n int) ([]any, error) {
	values := make([]any, n)
	ptrs := make([]any, n)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return values, nil
}

func returnsRows(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, p := range []string{"SELECT", "WITH", "PRAGMA", "VALUES", "EXPLAIN"} {
		if strings.HasPrefix(q, p) {
			return true
		}
	}
	return strings.Contains(q, " RETURNING ")
}

func queryError(query string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRows
	}
	return fmt.Errorf("%w: %s: %v", ErrQuery, query, err)
}
