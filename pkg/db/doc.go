// Package db provides SQL database access: a statement-oriented wrapper over
// database/sql, connection helpers for SQLite and PostgreSQL, migrations and
// an ORM bridge.
//
// # Opening a database
//
// SQLite uses the pure-Go driver from [github.com/glebarez/sqlite]:
//
//	sqlDB, err := db.OpenSQLite(ctx, db.SQLiteConfig{Path: "data/app.sqlite3", WAL: true})
//
// PostgreSQL uses a [github.com/jackc/pgx/v5/pgxpool] pool with startup retries.
// OpenPool exposes the pool through database/sql:
//
//	pool, err := db.Connect(ctx, cfg)
//	sqlDB := db.OpenPool(pool)
//
// # Statements
//
//	d := db.New(sqlDB)
//	stmt := d.Prepare("SELECT id, email FROM users WHERE id = ?")
//	row, err := stmt.Bind(42).First(ctx)
//	if errors.Is(err, db.ErrNoRows) {
//		// not found
//	}
//
// Run executes writes and reports Meta.Changes and Meta.LastRowID. Batch runs
// several statements in one transaction:
//
//	results, err := d.Batch(ctx,
//		d.Prepare("INSERT INTO users (email) VALUES (?)").Bind("a@example.com"),
//		d.Prepare("INSERT INTO users (email) VALUES (?)").Bind("b@example.com"),
//	)
//
// Exec runs a newline-separated script without parameters; Dump returns a
// snapshot of a SQLite database produced by VACUUM INTO.
//
// # Migrations
//
// Migrate applies [github.com/pressly/goose/v3] migrations from an fs.FS:
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//
//	err := db.Migrate(ctx, sqlDB, db.DialectSQLite, migrations,
//		db.WithMigrationsDir("migrations"),
//		db.WithMigrateLogger(log),
//	)
//
// # ORM
//
// OpenORM returns a [gorm.io/gorm] handle sharing an open SQLite connection.
//
// # Configuration
//
// Config (PostgreSQL) and SQLiteConfig carry env and yaml tags for pkg/config:
//
//	DATABASE_CONN_URL           - PostgreSQL connection URL (required)
//	DATABASE_MAX_OPEN_CONNS     - Maximum open connections (default: 10)
//	DATABASE_MIN_CONNS          - Minimum idle connections (default: 5)
//	DATABASE_RETRY_ATTEMPTS     - Connection retry attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - Base retry interval (default: 5s)
//	SQLITE_PATH                 - SQLite file (default: data/edgekit.sqlite3)
//	SQLITE_WAL                  - Enable WAL journal (default: true)
package db
