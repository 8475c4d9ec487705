package db

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Shutdown returns a hook that closes db.
//
//	app := edgekit.New(
//	    edgekit.WithShutdownHook(db.Shutdown(sqlDB)),
//	)
func Shutdown(db *sql.DB) func(ctx context.Context) error {
	return func(context.Context) error {
		return db.Close()
	}
}

// ShutdownPool returns a hook that closes a pgx pool.
func ShutdownPool(pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(context.Context) error {
		pool.Close()
		return nil
	}
}
