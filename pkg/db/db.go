// Package db provides the SQLite backend for the mood journal. It implements
// history.Persister so the journal can live in a database file instead of a
// JSON document. Callers open a single DB with New and reuse it.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"Mood-Music-Go/pkg/history"
)

const versionKey = "schema_version"

// DB wraps a sql.DB connection and exposes the journal persistence methods.
type DB struct {
	*sql.DB
}

var _ history.Persister = (*DB)(nil)

// New opens the SQLite database located at path, creating the file and the
// schema when missing. ":memory:" is accepted for tests.
func New(path string) (*DB, error) {
	d, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases alive across calls and
	// serializes writers.
	d.SetMaxOpenConns(1)
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS journal (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT NOT NULL, artist TEXT NOT NULL, mood TEXT NOT NULL, logged_at TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
	}
	for _, s := range stmts {
		if _, err := d.Exec(s); err != nil {
			d.Close()
			return nil, fmt.Errorf("init db: %w", err)
		}
	}
	return &DB{d}, nil
}

// Load returns the stored journal in insertion order. An empty database is
// reported at history.CurrentVersion.
func (db *DB) Load(ctx context.Context) (history.Snapshot, error) {
	snap := history.Snapshot{Version: history.CurrentVersion, Entries: []history.Entry{}}

	var v string
	err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key=?`, versionKey).Scan(&v)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return history.Snapshot{}, fmt.Errorf("read schema version: %w", err)
	default:
		n, err := strconv.Atoi(v)
		if err != nil {
			return history.Snapshot{}, fmt.Errorf("parse schema version %q: %w", v, err)
		}
		snap.Version = n
	}

	rows, err := db.QueryContext(ctx, `SELECT title, artist, mood, logged_at FROM journal ORDER BY id`)
	if err != nil {
		return history.Snapshot{}, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e history.Entry
		var at string
		if err := rows.Scan(&e.Title, &e.Artist, &e.Mood, &at); err != nil {
			return history.Snapshot{}, err
		}
		if e.Date, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return history.Snapshot{}, fmt.Errorf("parse logged_at %q: %w", at, err)
		}
		snap.Entries = append(snap.Entries, e)
	}
	return snap, rows.Err()
}

// Save replaces the journal and schema version in one transaction.
func (db *DB) Save(ctx context.Context, s history.Snapshot) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM journal`); err != nil {
		return fmt.Errorf("clear journal: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO journal(title, artist, mood, logged_at) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range s.Entries {
		if _, err := stmt.ExecContext(ctx, e.Title, e.Artist, e.Mood, e.Date.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		versionKey, strconv.Itoa(s.Version))
	if err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return tx.Commit()
}

// ImportSnapshot copies s into an empty database. It is a no-op when the
// journal already holds entries, so it can run on every start.
func (db *DB) ImportSnapshot(ctx context.Context, s history.Snapshot) (bool, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal`).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 || len(s.Entries) == 0 {
		return false, nil
	}
	if err := db.Save(ctx, s); err != nil {
		return false, err
	}
	return true, nil
}
