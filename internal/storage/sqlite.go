// sqlite.go - SQLite backend for the audit log

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteAuditStore writes audit records to the analysis_audit table.
type SQLiteAuditStore struct {
	db *sql.DB
}

// NewSQLiteAuditStore opens path and creates the schema if needed.
func NewSQLiteAuditStore(path string) (*SQLiteAuditStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS analysis_audit (
		id            TEXT PRIMARY KEY,
		request_id    TEXT NOT NULL,
		category      TEXT NOT NULL,
		severity      TEXT NOT NULL,
		priority      TEXT NOT NULL,
		source        TEXT NOT NULL,
		confidence    REAL NOT NULL,
		provider      TEXT DEFAULT '',
		path          TEXT DEFAULT '',
		primary_error TEXT DEFAULT '',
		duration_ms   INTEGER DEFAULT 0,
		token_usage   TEXT DEFAULT '',
		completed_at  DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analysis_audit_completed_at ON analysis_audit(completed_at);
	CREATE INDEX IF NOT EXISTS idx_analysis_audit_request_id ON analysis_audit(request_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}
	return &SQLiteAuditStore{db: db}, nil
}

// Record inserts one audit record.
func (s *SQLiteAuditStore) Record(ctx context.Context, rec AuditRecord) error {
	var usage string
	if len(rec.TokenUsage) > 0 {
		data, err := json.Marshal(rec.TokenUsage)
		if err != nil {
			return err
		}
		usage = string(data)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_audit (id, request_id, category, severity, priority, source, confidence,
		 provider, path, primary_error, duration_ms, token_usage, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RequestID, rec.Category, rec.Severity, rec.Priority, rec.Source, rec.Confidence,
		rec.Provider, rec.Path, rec.PrimaryErr, rec.DurationMs, usage, rec.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

// Prune deletes records completed before cutoff.
func (s *SQLiteAuditStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analysis_audit WHERE completed_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit records: %w", err)
	}
	return res.RowsAffected()
}

// Recent returns the newest records first.
func (s *SQLiteAuditStore) Recent(ctx context.Context, limit int) ([]AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, category, severity, priority, source, confidence,
		 provider, path, primary_error, duration_ms, token_usage, completed_at
		 FROM analysis_audit ORDER BY completed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		var usage string
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.Category, &rec.Severity, &rec.Priority,
			&rec.Source, &rec.Confidence, &rec.Provider, &rec.Path, &rec.PrimaryErr,
			&rec.DurationMs, &usage, &rec.CompletedAt); err != nil {
			return nil, err
		}
		if usage != "" {
			if err := json.Unmarshal([]byte(usage), &rec.TokenUsage); err != nil {
				return nil, fmt.Errorf("decode token usage for %s: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *SQLiteAuditStore) Close() error {
	return s.db.Close()
}
