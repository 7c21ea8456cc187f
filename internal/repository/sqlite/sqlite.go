// Package sqlite implements the repository interfaces on SQLite.
//
// The driver is modernc.org/sqlite (pure Go, no cgo) and rows are mapped
// onto the model structs by jmoiron/sqlx through their `db` tags.
//
// CONNECTION SETTINGS (applied by the driver to every pooled connection):
//   - foreign_keys(1)    cascades and SET NULL on delete are enforced
//   - busy_timeout(5000) concurrent writers wait instead of failing at once
//   - journal_mode(WAL)  readers are not blocked by a writer
//   - _txlock=immediate  BeginTx takes the write lock up front, so a
//     read-merge-write inside one transaction cannot interleave with
//     another writer
//
// The pool hands every statement or transaction its own connection and
// takes it back on Close/Commit/Rollback.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/todolist/internal/repository/sqlite/migrations"
)

const (
	driverName     = "sqlite"
	migrationTable = "schema_migrations"
	// MemoryPath opens a private in-memory database.
	MemoryPath = ":memory:"
)

// DB owns the connection pool. The per-resource stores returned by Users,
// Categories, Tasks and Subtasks share it.
type DB struct {
	conn *sqlx.DB
}

// New opens (or creates) the database at dbPath and applies pending
// migrations. Pass MemoryPath for a throwaway database.
func New(dbPath string) (*DB, error) {
	conn, err := sqlx.Open(driverName, dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every new connection to ":memory:" is a brand new, empty database.
	if dbPath == MemoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	q.Set("_time_format", "sqlite")
	return path + "?" + q.Encode()
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

func (db *DB) Categories() *CategoryDB {
	return &CategoryDB{conn: db.conn}
}

func (db *DB) Tasks() *TaskDB {
	return &TaskDB{conn: db.conn}
}

func (db *DB) Subtasks() *SubtaskDB {
	return &SubtaskDB{conn: db.conn}
}

// migrate applies each embedded *.sql file at most once, recording it in
// schema_migrations. Only the "-- +migrate Up" section runs.
func (db *DB) migrate(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+migrationTable+` (
			name       TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensuring migration table: %w", err)
	}

	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var applied int
		err := db.conn.GetContext(ctx, &applied,
			`SELECT COUNT(*) FROM `+migrationTable+` WHERE name = ?`, name)
		if err != nil {
			return fmt.Errorf("checking migration %s: %w", name, err)
		}
		if applied > 0 {
			continue
		}

		content, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		err = withTx(ctx, db.conn, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, upSection(string(content))); err != nil {
				return fmt.Errorf("executing migration %s: %w", name, err)
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
				name, time.Now().UTC().UnixMilli())
			if err != nil {
				return fmt.Errorf("recording migration %s: %w", name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func upSection(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	start := strings.Index(content, up)
	if start == -1 {
		return content
	}
	content = content[start+len(up):]
	if end := strings.Index(content, down); end != -1 {
		content = content[:end]
	}
	return content
}

// withTx runs fn inside a transaction. The deferred Rollback releases the
// connection on every path out of fn; after a successful Commit it is a no-op.
func withTx(ctx context.Context, conn *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
