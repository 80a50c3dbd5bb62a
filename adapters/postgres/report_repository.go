// Package postgres persists completed analysis reports.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gocausal/domain/causal"
	"gocausal/domain/core"
	"gocausal/ports"
)

// Schema creates the reports table. Applied idempotently at startup;
// there is no migration history to manage for a single table.
const Schema = `CREATE TABLE IF NOT EXISTS causal_reports (
	id          TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	verdict     TEXT NOT NULL,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
)`

// reportRepository implements ports.ReportRepository on Postgres
type reportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a report repository
func NewReportRepository(db *sqlx.DB) ports.ReportRepository {
	return &reportRepository{db: db}
}

// Connect opens the database and ensures the schema exists
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return db, nil
}

// Save inserts or replaces a report
func (r *reportRepository) Save(ctx context.Context, report *causal.AnalysisReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `INSERT INTO causal_reports (id, fingerprint, verdict, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			fingerprint = EXCLUDED.fingerprint,
			verdict = EXCLUDED.verdict,
			payload = EXCLUDED.payload`

	_, err = r.db.ExecContext(ctx, query,
		string(report.ID), string(report.Fingerprint), string(report.Verdict), payload, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetByID retrieves a report by its identifier
func (r *reportRepository) GetByID(ctx context.Context, id core.AnalysisID) (*causal.AnalysisReport, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM causal_reports WHERE id = $1`, string(id)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	var report causal.AnalysisReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// ListRecent returns the latest reports, newest first
func (r *reportRepository) ListRecent(ctx context.Context, limit int) ([]*causal.AnalysisReport, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM causal_reports ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*causal.AnalysisReport
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var report causal.AnalysisReport
		if err := json.Unmarshal(payload, &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}
