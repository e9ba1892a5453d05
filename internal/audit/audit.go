// Package audit records the outcome of every workflow entry point.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS process_audit (
	id             BIGSERIAL PRIMARY KEY,
	correlation_id UUID        NOT NULL,
	process        TEXT        NOT NULL,
	subject        TEXT        NOT NULL,
	process_status TEXT        NOT NULL,
	http_status    INTEGER     NOT NULL,
	error_code     TEXT,
	details        JSONB,
	created_at     TIMESTAMPTZ NOT NULL
)`

const insertSQL = `
INSERT INTO process_audit (
	correlation_id, process, subject, process_status, http_status, error_code, details, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

type Entry struct {
	CorrelationID string
	Process       string
	// Subject identifies what the process acted on, e.g. "listing:12".
	Subject       string
	ProcessStatus string
	HTTPStatus    int
	ErrorCode     string
	Details       map[string]interface{}
	CreatedAt     time.Time
}

type Recorder struct {
	db *sql.DB
}

func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create process_audit: %w", err)
	}
	return nil
}

func (r *Recorder) Record(ctx context.Context, e Entry) error {
	details := []byte("{}")
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		details = b
	}

	var errorCode sql.NullString
	if e.ErrorCode != "" {
		errorCode = sql.NullString{String: e.ErrorCode, Valid: true}
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, insertSQL,
		e.CorrelationID,
		e.Process,
		e.Subject,
		e.ProcessStatus,
		e.HTTPStatus,
		errorCode,
		details,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert process_audit: %w", err)
	}
	return nil
}
