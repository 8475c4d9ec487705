package db

import "errors"

var (
	ErrFailedToParseDBConfig    = errors.New("db: failed to parse database configuration")
	ErrFailedToOpenDBConnection = errors.New("db: failed to open database connection")
	ErrHealthcheckFailed        = errors.New("db: healthcheck failed")
	ErrNoRows                   = errors.New("db: no rows in result set")
	ErrNoColumn                 = errors.New("db: column not found")
	ErrQuery                    = errors.New("db: query failed")
	ErrExec                     = errors.New("db: exec failed")
	ErrBatch                    = errors.New("db: batch failed")
	ErrDump                     = errors.New("db: dump failed")
	ErrORM                      = errors.New("db: failed to open orm")
	ErrSetDialect               = errors.New("db migrator: failed to set dialect")
	ErrApplyMigrations          = errors.New("db migrator: failed to apply migrations")
)
