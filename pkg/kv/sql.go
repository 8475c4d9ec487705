package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// DefaultTable is the table used by the SQL store when none is configured.
const DefaultTable = "kv_entries"

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLOption configures a SQL store.
type SQLOption func(*SQL)

// WithTable overrides the table name.
func WithTable(name string) SQLOption {
	return func(s *SQL) {
		s.table = name
	}
}

// SQL is a Store on a SQLite database, for single-node deployments that already ship one.
// Expired rows are filtered on read and removed by Prune.
type SQL struct {
	db    *sql.DB
	table string
}

// NewSQL creates the backing table if needed and returns the store.
func NewSQL(ctx context.Context, db *sql.DB, opts ...SQLOption) (*SQL, error) {
	s := &SQL{db: db, table: DefaultTable}
	for _, opt := range opts {
		opt(s)
	}
	if !tableNameRe.MatchString(s.table) {
		return nil, fmt.Errorf("kv: invalid table name %q", s.table)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		metadata TEXT NOT NULL DEFAULT '',
		expires_at INTEGER
	)`, s.table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("kv: create table: %w", err)
	}
	return s, nil
}

// Get implements Store.
func (s *SQL) Get(ctx context.Context, key string) (*Entry, error) {
	q := fmt.Sprintf(`SELECT value, metadata, expires_at FROM %s
		WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`, s.table)

	var (
		value []byte
		meta  string
		exp   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, q, key, time.Now().UnixMilli()).Scan(&value, &meta, &exp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	m, err := decodeMeta(meta)
	if err != nil {
		return nil, err
	}
	return &Entry{Value: value, Metadata: m, ExpiresAt: fromMillis(exp)}, nil
}

// Put implements Store.
func (s *SQL) Put(ctx context.Context, key string, value []byte, opts PutOptions) error {
	if key == "" {
		return ErrEmptyKey
	}
	meta, err := encodeMeta(opts.Metadata)
	if err != nil {
		return err
	}

	var exp sql.NullInt64
	if opts.TTL > 0 {
		exp = sql.NullInt64{Int64: time.Now().Add(opts.TTL).UnixMilli(), Valid: true}
	}

	q := fmt.Sprintf(`INSERT INTO %s (key, value, metadata, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value,
			metadata = excluded.metadata, expires_at = excluded.expires_at`, s.table)
	_, err = s.db.ExecContext(ctx, q, key, value, meta, exp)
	return err
}

// Delete implements Store.
func (s *SQL) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.table), key)
	return err
}

// List implements Store with offset cursors over key order.
func (s *SQL) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	offset, err := decodeOffset(opts.Cursor)
	if err != nil {
		return nil, err
	}
	limit := listLimit(opts.Limit)

	// one extra row tells whether another page exists
	q := fmt.Sprintf(`SELECT key, metadata, expires_at FROM %s
		WHERE substr(key, 1, ?) = ? AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY key LIMIT ? OFFSET ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q,
		len(opts.Prefix), opts.Prefix, time.Now().UnixMilli(), limit+1, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	res := &ListResult{Complete: true}
	for rows.Next() {
		var (
			name string
			meta string
			exp  sql.NullInt64
		)
		if err := rows.Scan(&name, &meta, &exp); err != nil {
			return nil, err
		}
		if len(res.Keys) == limit {
			res.Complete = false
			res.Cursor = encodeOffset(offset + limit)
			break
		}
		m, err := decodeMeta(meta)
		if err != nil {
			return nil, err
		}
		res.Keys = append(res.Keys, ListedKey{Name: name, Metadata: m, ExpiresAt: fromMillis(exp)})
	}
	return res, rows.Err()
}

// Prune deletes expired rows and reports how many were removed.
func (s *SQL) Prune(ctx context.Context) (int64, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.table)
	res, err := s.db.ExecContext(ctx, q, time.Now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func fromMillis(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.UnixMilli(v.Int64)
}

var _ Store = (*SQL)(nil)
