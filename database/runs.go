package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/ankitarsangwan-bit/misrecon/internal/apierror"
	"github.com/ankitarsangwan-bit/misrecon/model"
	"go.opentelemetry.io/otel"
)

// RecordReconciliationRun inserts a new reconciliation run record.
func (d Datasource) RecordReconciliationRun(ctx context.Context, run *model.ReconciliationRun) error {
	ctx, span := otel.Tracer("Runs").Start(ctx, "Saving reconciliation run to db")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO misrecon.reconciliation_runs(
			run_id, upload_id, status, is_dry_run, started_at
		) VALUES ($1, $2, $3, $4, $5)`,
		run.RunID, run.UploadID, run.Status, run.IsDryRun, run.StartedAt,
	)

	return err
}

// GetReconciliationRun retrieves a run by its id.
func (d Datasource) GetReconciliationRun(ctx context.Context, runID string) (*model.ReconciliationRun, error) {
	ctx, span := otel.Tracer("Runs").Start(ctx, "Fetching reconciliation run from db")
	defer span.End()

	run := &model.ReconciliationRun{}
	var completedAt sql.NullTime
	err := d.Conn.QueryRowContext(ctx, `
		SELECT id, run_id, upload_id, status, is_dry_run,
			new_records, updated_records, unchanged_records, skipped_records,
			total_incoming, duplicates_collapsed, started_at, completed_at
		FROM misrecon.reconciliation_runs
		WHERE run_id = $1
	`, runID).Scan(
		&run.ID, &run.RunID, &run.UploadID, &run.Status, &run.IsDryRun,
		&run.Counts.New, &run.Counts.Updated, &run.Counts.Unchanged, &run.Counts.Skipped,
		&run.Counts.Total, &run.Counts.DuplicatesCollapsed,
		&run.StartedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "reconciliation run not found", runID)
	}
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return run, nil
}

// UpdateReconciliationRunStatus updates the status of a run. A nil counts
// leaves the count columns alone; completion and failure stamp completed_at.
func (d Datasource) UpdateReconciliationRunStatus(ctx context.Context, runID, status string, counts *model.RunCounts) error {
	ctx, span := otel.Tracer("Runs").Start(ctx, "Updating reconciliation run status")
	defer span.End()

	completedAt := sql.NullTime{Time: time.Now(), Valid: status == "completed" || status == "failed"}

	if counts == nil {
		_, err := d.Conn.ExecContext(ctx, `
			UPDATE misrecon.reconciliation_runs
			SET status = $2, completed_at = $3
			WHERE run_id = $1
		`, runID, status, completedAt)
		return err
	}

	_, err := d.Conn.ExecContext(ctx, `
		UPDATE misrecon.reconciliation_runs
		SET status = $2, new_records = $3, updated_records = $4, unchanged_records = $5,
			skipped_records = $6, total_incoming = $7, duplicates_collapsed = $8,
			completed_at = $9
		WHERE run_id = $1
	`, runID, status, counts.New, counts.Updated, counts.Unchanged,
		counts.Skipped, counts.Total, counts.DuplicatesCollapsed, completedAt)

	return err
}
