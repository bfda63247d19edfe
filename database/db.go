package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx so query helpers can run
// inside or outside a transaction.
type DBTX interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	NamedExec(query string, arg interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Rebind(query string) string
	Exec(query string, args ...interface{}) (sql.Result, error)
	Prepare(query string) (*sql.Stmt, error)
}

// Open opens (or creates) the SQLite database at path.
//
// The DSN enables WAL journaling, NORMAL synchronous mode, a 5 second busy
// timeout and foreign key enforcement. SQLite allows a single writer, so the
// pool is capped at one connection to avoid SQLITE_BUSY under concurrency.
func Open(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// UTCNow is the canonical timestamp format for every TEXT datetime column:
// RFC3339 in UTC, so lexicographic comparison matches time order.
func UTCNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
