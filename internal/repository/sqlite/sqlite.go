// Package sqlite implements the repository interfaces on top of SQLite via
// database/sql and the pure-Go modernc.org/sqlite driver.
//
// One *DB satisfies every repository interface. Timestamps are written in
// UTC so that ordering on the stored text matches chronological order, and
// ties are broken by the xid primary key, which is itself time-ordered.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	// driver "sqlite" plus its typed *Error for constraint checks
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/social.db" → file-based database (persistent)
//   - ":memory:"       → in-memory database (tests)
//
// An in-memory database lives inside a single connection, so the pool is
// capped at one connection in that case. File databases get their pragmas
// through the DSN so every pooled connection enforces foreign keys.
func New(dbPath string) (*DB, error) {
	dsn := dbPath
	memory := dbPath == ":memory:"
	if !memory {
		dsn = "file:" + dbPath +
			"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if memory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. Every statement is idempotent.
func (db *DB) migrate() error {
	steps := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id              TEXT PRIMARY KEY,
				username        TEXT NOT NULL UNIQUE,
				email           TEXT UNIQUE,
				password_hash   TEXT NOT NULL DEFAULT '',
				github_id       INTEGER UNIQUE,
				profile_picture TEXT NOT NULL DEFAULT '',
				bio             TEXT NOT NULL DEFAULT '',
				created_at      DATETIME NOT NULL,
				updated_at      DATETIME NOT NULL
			);`},
		{"global_messages", `
			CREATE TABLE IF NOT EXISTS global_messages (
				id        TEXT PRIMARY KEY,
				sender_id TEXT NOT NULL REFERENCES users(id),
				content   TEXT NOT NULL,
				room_id   TEXT NOT NULL DEFAULT 'global',
				timestamp DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_global_messages_timestamp
				ON global_messages(timestamp DESC, id DESC);`},
		{"private_messages", `
			CREATE TABLE IF NOT EXISTS private_messages (
				id          TEXT PRIMARY KEY,
				sender_id   TEXT NOT NULL REFERENCES users(id),
				receiver_id TEXT NOT NULL REFERENCES users(id),
				content     TEXT NOT NULL,
				timestamp   DATETIME NOT NULL,
				is_read     INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_private_messages_pair
				ON private_messages(sender_id, receiver_id, timestamp DESC);
			CREATE INDEX IF NOT EXISTS idx_private_messages_receiver
				ON private_messages(receiver_id, is_read);`},
		{"questions", `
			CREATE TABLE IF NOT EXISTS questions (
				id         TEXT PRIMARY KEY,
				author_id  TEXT NOT NULL REFERENCES users(id),
				title      TEXT NOT NULL,
				content    TEXT NOT NULL,
				tags       TEXT NOT NULL DEFAULT '[]',
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_questions_created_at ON questions(created_at DESC);`},
		{"answers", `
			CREATE TABLE IF NOT EXISTS answers (
				id             TEXT PRIMARY KEY,
				question_id    TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
				author_id      TEXT NOT NULL REFERENCES users(id),
				content        TEXT NOT NULL,
				votes          INTEGER NOT NULL DEFAULT 0,
				is_best_answer INTEGER NOT NULL DEFAULT 0,
				created_at     DATETIME NOT NULL,
				updated_at     DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_answers_question_id ON answers(question_id);`},
		{"contacts", `
			CREATE TABLE IF NOT EXISTS contacts (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL REFERENCES users(id),
				contact_id TEXT NOT NULL REFERENCES users(id),
				created_at DATETIME NOT NULL,
				UNIQUE (user_id, contact_id)
			);`},
	}

	for _, step := range steps {
		if _, err := db.conn.Exec(step.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", step.name, err)
		}
	}
	return nil
}

// isConstraint reports whether err is the given SQLite constraint failure.
func isConstraint(err error, code int, text string) bool {
	var se *moderncsqlite.Error
	if errors.As(err, &se) && se.Code() == code {
		return true
	}
	return err != nil && strings.Contains(err.Error(), text)
}

func isUniqueViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY constraint failed")
}

// nullString stores empty strings as NULL so optional UNIQUE columns do not
// collide on "".
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
