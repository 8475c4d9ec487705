package db

import (
	"database/sql"
	"errors"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenORM builds a gorm handle over an open SQLite connection.
// The handle shares db; closing db closes it.
func OpenORM(db *sql.DB, opts ...gorm.Option) (*gorm.DB, error) {
	if len(opts) == 0 {
		opts = []gorm.Option{&gorm.Config{Logger: logger.Discard}}
	}
	orm, err := gorm.Open(&sqlite.Dialector{Conn: db}, opts...)
	if err != nil {
		return nil, errors.Join(ErrORM, err)
	}
	return orm, nil
}
