// Package sqlite implements the repository interfaces on SQLite.
//
// The original system stored these entities as documents with embedded
// arrays (upvotedBy, favoritedBy, comments). Here each membership array
// becomes a join table and each denormalized counter is recomputed from its
// table inside the same transaction that mutates membership, which makes the
// counter == |set| invariant structural rather than best-effort.
//
// modernc.org/sqlite is a pure Go build of SQLite: no CGo, it cross-compiles
// everywhere Go does.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/aaditya248659/Code-Snippet-Library/internal/repository"
)

// DB wraps a sql.DB connection pool and implements every repository
// interface. The server owns it and closes it on shutdown.
type DB struct {
	conn *sql.DB
}

var (
	_ repository.UserRepository      = (*DB)(nil)
	_ repository.SnippetRepository   = (*DB)(nil)
	_ repository.ForkRepository      = (*DB)(nil)
	_ repository.AnalyticsRepository = (*DB)(nil)
)

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads during writes, needed for a web server.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite; the cascade cleanup of
	// tags, votes, favorites, comments and forks depends on them.
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

// Close closes the connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			username          TEXT NOT NULL UNIQUE COLLATE NOCASE,
			email             TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash     TEXT NOT NULL DEFAULT '',
			role              TEXT NOT NULL DEFAULT 'user',
			bio               TEXT NOT NULL DEFAULT '',
			github_profile    TEXT NOT NULL DEFAULT '',
			github_id         INTEGER NOT NULL DEFAULT 0,
			points            INTEGER NOT NULL DEFAULT 0,
			level             INTEGER NOT NULL DEFAULT 1,
			streak            INTEGER NOT NULL DEFAULT 0,
			last_contribution DATETIME,
			reset_token_hash  TEXT NOT NULL DEFAULT '',
			reset_expires     DATETIME,
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		// github_id 0 means "not an OAuth account", so uniqueness only
		// applies to real GitHub IDs.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id) WHERE github_id != 0`,
		`CREATE INDEX IF NOT EXISTS idx_users_points ON users(points)`,

		`CREATE TABLE IF NOT EXISTS badges (
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			badge      TEXT NOT NULL,
			awarded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, badge)
		)`,

		`CREATE TABLE IF NOT EXISTS snippets (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL,
			language    TEXT NOT NULL,
			code        TEXT NOT NULL,
			author_id   TEXT NOT NULL REFERENCES users(id),
			status      TEXT NOT NULL DEFAULT 'pending',
			views       INTEGER NOT NULL DEFAULT 0,
			upvotes     INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snippets_status ON snippets(status)`,
		`CREATE INDEX IF NOT EXISTS idx_snippets_author ON snippets(author_id)`,
		`CREATE INDEX IF NOT EXISTS idx_snippets_created_at ON snippets(created_at)`,

		`CREATE TABLE IF NOT EXISTS snippet_tags (
			snippet_id TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			tag        TEXT NOT NULL,
			PRIMARY KEY (snippet_id, tag)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snippet_tags_tag ON snippet_tags(tag)`,

		`CREATE TABLE IF NOT EXISTS snippet_upvotes (
			snippet_id TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			PRIMARY KEY (snippet_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS snippet_favorites (
			snippet_id TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			PRIMARY KEY (snippet_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snippet_favorites_user ON snippet_favorites(user_id)`,

		`CREATE TABLE IF NOT EXISTS comments (
			id         TEXT PRIMARY KEY,
			snippet_id TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			author_id  TEXT NOT NULL REFERENCES users(id),
			text       TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_snippet ON comments(snippet_id)`,

		`CREATE TABLE IF NOT EXISTS forks (
			id           TEXT PRIMARY KEY,
			snippet_id   TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			forker_id    TEXT NOT NULL REFERENCES users(id),
			title        TEXT NOT NULL DEFAULT '',
			description  TEXT NOT NULL DEFAULT '',
			language     TEXT NOT NULL DEFAULT '',
			code         TEXT NOT NULL,
			changes      TEXT NOT NULL DEFAULT '',
			test_results TEXT NOT NULL DEFAULT '',
			votes        INTEGER NOT NULL DEFAULT 0,
			status       TEXT NOT NULL DEFAULT 'pending',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_forks_snippet ON forks(snippet_id)`,

		`CREATE TABLE IF NOT EXISTS fork_votes (
			fork_id TEXT NOT NULL REFERENCES forks(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id),
			PRIMARY KEY (fork_id, user_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}
