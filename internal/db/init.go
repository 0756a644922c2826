package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS app_config (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    version TEXT NOT NULL,
    jwt_secret TEXT NOT NULL,
    mail_host TEXT NOT NULL DEFAULT '',
    mail_port INTEGER NOT NULL DEFAULT 0,
    mail_username TEXT NOT NULL DEFAULT '',
    mail_password TEXT NOT NULL DEFAULT '',
    mail_from TEXT NOT NULL DEFAULT '',
    oauth_client_id TEXT NOT NULL DEFAULT '',
    oauth_client_secret TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS users (
    email TEXT PRIMARY KEY,
    password_hash BYTEA,
    verified BOOLEAN NOT NULL DEFAULT FALSE,
    session_hash BYTEA,
    max_session_time TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS admins (
    email TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS words (
    collection TEXT NOT NULL,
    word TEXT NOT NULL,
    meaning TEXT NOT NULL,
    PRIMARY KEY (collection, word)
);
`

func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}
