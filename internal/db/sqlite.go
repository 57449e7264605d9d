package db

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

const DefaultPath = "./inkwell.db"

// Schema creates every table the service keeps in SQLite. The sessions table
// layout is the one expected by scs/sqlite3store.
const Schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT UNIQUE,
    email TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    collection TEXT NOT NULL,
    data BLOB NOT NULL,
    content_hash TEXT NOT NULL,
    server_time DATETIME NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS documents_collection_idx ON documents(collection, server_time);

CREATE TABLE IF NOT EXISTS sessions (
    token TEXT PRIMARY KEY,
    data BLOB NOT NULL,
    expiry REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

type SQLite struct {
	path string
	conn *sql.DB
}

func NewSQLite(path string) *SQLite {
	if path == "" {
		path = DefaultPath
	}
	return &SQLite{
		path: path,
		conn: nil,
	}
}

func (s *SQLite) InitDB() error {
	var err error
	s.conn, err = sql.Open("sqlite3", s.path)
	if err != nil {
		return err
	}

	res, err := s.conn.Exec(Schema)
	if err != nil {
		return err
	}

	dbLogger.Info().Str("path", s.path).Any("db_result", res).Msg("Database initialized")
	return nil
}

func (s *SQLite) Get() *sql.DB {
	return s.conn
}

func (s *SQLite) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *SQLite) Query(query string, args ...interface{}) (*sql.Rows, error) {
	dbLogger.Debug().Str("query", query).Msg("Query")
	return s.conn.Query(query, args...)
}

func (s *SQLite) Exec(query string, args ...interface{}) (sql.Result, error) {
	dbLogger.Debug().Str("query", query).Msg("Exec")
	return s.conn.Exec(query, args...)
}
