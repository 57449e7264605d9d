// Package db provides the SQLite connection shared by the document store, sessions and users.
package db

import (
	"database/sql"

	"github.com/rs/zerolog"
)

type DB interface {
	InitDB() error

	Get() *sql.DB
	Close() error

	Query(query string, args ...interface{}) (*sql.Rows, error)
	Exec(query string, args ...interface{}) (sql.Result, error)
}

var dbLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	dbLogger = l
}
