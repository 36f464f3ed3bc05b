// Package database owns the embedded SQLite schema for the locally persisted
// data: the habit check-in log and the birthday registry. Week snapshots are
// not stored here; they live in Redis.
package database

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open opens (or creates) the database at dbPath and brings the schema up to
// date. ":memory:" works for tests.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if inMemory(dbPath) {
		// Each pooled connection sees its own empty in-memory database,
		// so the pool has to stay at one connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return db, nil
}

func inMemory(dbPath string) bool {
	return dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
}

func dsn(dbPath string) string {
	if inMemory(dbPath) {
		return dbPath
	}
	return dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
