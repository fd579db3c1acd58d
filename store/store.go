// Package store provides sqlite persistence for sites, posts, users, and
// API keys via sqlx.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/use-agent/gleaner/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT    NOT NULL,
	is_admin   BOOLEAN NOT NULL DEFAULT 0,
	status     BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS api_keys (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	key_hash   TEXT    NOT NULL UNIQUE,
	status     BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sites (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT    NOT NULL,
	url          TEXT    NOT NULL,
	url_list     TEXT    NOT NULL,
	path_link    TEXT    NOT NULL DEFAULT '',
	path_title   TEXT    NOT NULL DEFAULT '',
	path_content TEXT    NOT NULL DEFAULT '',
	path_image   TEXT    NOT NULL DEFAULT '',
	path_video   TEXT    NOT NULL DEFAULT '',
	path_remove  TEXT    NOT NULL DEFAULT '',
	screenshot   BOOLEAN NOT NULL DEFAULT 0,
	status       BOOLEAN NOT NULL DEFAULT 1,
	user_id      INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	api_key_id   INTEGER NOT NULL REFERENCES api_keys(id) ON DELETE CASCADE,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS posts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT    NOT NULL DEFAULT '',
	body       TEXT    NOT NULL DEFAULT '',
	image      TEXT    NOT NULL DEFAULT '',
	video      TEXT    NOT NULL DEFAULT '',
	url        TEXT    NOT NULL,
	site_id    INTEGER NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	api_key_id INTEGER NOT NULL REFERENCES api_keys(id) ON DELETE CASCADE,
	status     TEXT    NOT NULL DEFAULT 'PENDING'
		CHECK (status IN ('PENDING', 'COMPLETED', 'FAILED', 'CANCELLED')),
	retry      INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (site_id, url)
);

CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts (user_id);
CREATE INDEX IF NOT EXISTS idx_posts_api_key_id ON posts (api_key_id);
CREATE INDEX IF NOT EXISTS idx_posts_user_api_key ON posts (user_id, api_key_id);
CREATE INDEX IF NOT EXISTS idx_posts_status ON posts (status);
`

// Open connects to the sqlite database and applies the pool settings.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(cfg.IdleTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates the schema. All statements are idempotent.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a sqlite unique-constraint
// violation, detected by the driver's extended error code rather than by
// matching the message text.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique
}
