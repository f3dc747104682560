// Package postgres persists documents, extracted fields, the correction
// ledger and export snapshots.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

const schemaLockKey = int64(2026083101)

// EnsureSchema creates all tables. Safe to run from every process at startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	byte_size BIGINT NOT NULL,
	storage_backend TEXT NOT NULL,
	storage_path TEXT NOT NULL DEFAULT '',
	storage_bucket TEXT NOT NULL DEFAULT '',
	storage_key TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	uploaded_at TIMESTAMPTZ NOT NULL,
	processed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents(uploaded_at DESC);

CREATE TABLE IF NOT EXISTS extracted_fields (
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	field_name TEXT NOT NULL,
	field_value TEXT NOT NULL,
	confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	confidence_tier TEXT NOT NULL,
	is_selected BOOLEAN NOT NULL DEFAULT FALSE,
	user_corrected BOOLEAN NOT NULL DEFAULT FALSE,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (document_id, field_name)
);

CREATE TABLE IF NOT EXISTS corrections (
	id BIGSERIAL PRIMARY KEY,
	document_id TEXT NOT NULL,
	field_name TEXT NOT NULL,
	original_value TEXT NOT NULL DEFAULT '',
	corrected_value TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_corrections_field ON corrections(field_name, created_at);

CREATE TABLE IF NOT EXISTS exports (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	format TEXT NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exports_document ON exports(document_id, created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
