package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool using the provided DSN.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Schema creates every table the API and worker use. Statements are
// idempotent so it can run on each start.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	contact TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL UNIQUE,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 3,
	application_status INTEGER NOT NULL DEFAULT 0,
	directories JSONB,
	profile JSONB,
	resume JSONB,
	portfolio JSONB NOT NULL DEFAULT '[]'::jsonb,
	resume_text TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS categories (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	details TEXT NOT NULL DEFAULT '',
	category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS applications (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	phase INTEGER NOT NULL,
	status INTEGER NOT NULL,
	complete INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applications_user ON applications(user_id);
CREATE TABLE IF NOT EXISTS appointments (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	phase INTEGER NOT NULL,
	status INTEGER NOT NULL,
	complete INTEGER NOT NULL,
	meeting_link TEXT NOT NULL DEFAULT '',
	meeting_time TIMESTAMPTZ,
	initial_remarks TEXT NOT NULL DEFAULT '',
	final_remarks TEXT NOT NULL DEFAULT '',
	hiring_remarks TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_appointments_user ON appointments(user_id);
CREATE TABLE IF NOT EXISTS collaborators (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	job_id TEXT REFERENCES jobs(id) ON DELETE SET NULL,
	client_id TEXT NOT NULL DEFAULT '',
	user_ids TEXT[] NOT NULL DEFAULT '{}',
	status INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS chats (
	id TEXT PRIMARY KEY,
	collaborator_id TEXT NOT NULL REFERENCES collaborators(id) ON DELETE CASCADE,
	sender_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	message JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chats_collaborator ON chats(collaborator_id, created_at);`

// EnsureSchema applies Schema.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
