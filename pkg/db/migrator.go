package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/pressly/goose/v3"
)

// Dialect names a goose SQL dialect.
type Dialect string

// Supported dialects.
const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// DefaultMigrationsTable stores applied versions.
const DefaultMigrationsTable = "schema_migrations"

type migrateOptions struct {
	log   *slog.Logger
	table string
	dir   string
}

// MigrateOption configures Migrate.
type MigrateOption func(*migrateOptions)

// WithMigrationsTable overrides the version table name.
func WithMigrationsTable(name string) MigrateOption {
	return func(o *migrateOptions) {
		o.table = name
	}
}

// WithMigrationsDir sets the directory inside the migrations FS. Default: ".".
func WithMigrationsDir(dir string) MigrateOption {
	return func(o *migrateOptions) {
		o.dir = dir
	}
}

// WithMigrateLogger routes goose output to log.
func WithMigrateLogger(log *slog.Logger) MigrateOption {
	return func(o *migrateOptions) {
		o.log = log
	}
}

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

// Migrate applies all pending migrations from migrations.
// For a pgx pool pass OpenPool(pool).
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect, migrations fs.FS, opts ...MigrateOption) error {
	o := &migrateOptions{
		table: DefaultMigrationsTable,
		dir:   ".",
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLoggerAdapter{o.log})
	goose.SetTableName(o.table)

	if err := goose.SetDialect(string(dialect)); err != nil {
		return errors.Join(ErrSetDialect, err)
	}

	if err := goose.UpContext(ctx, db, o.dir); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}

	return nil
}

type gooseLoggerAdapter struct {
	log *slog.Logger
}

func (g *gooseLoggerAdapter) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

// Fatalf only logs; goose returns the error to Migrate.
func (g *gooseLoggerAdapter) Fatalf(format string, args ...any) {
	g.log.Error(fmt.Sprintf(format, args...))
}
