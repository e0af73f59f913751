package database

import (
	"context"

	"github.com/ankitarsangwan-bit/misrecon/model"
	"go.opentelemetry.io/otel"
)

// RecordConflict appends one entry to the conflict log.
func (d Datasource) RecordConflict(ctx context.Context, entry *model.ConflictEntry) error {
	ctx, span := otel.Tracer("Conflicts").Start(ctx, "Saving conflict entry to db")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO misrecon.conflict_log(
			run_id, application_id, field, old_value, new_value, resolution, pending
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.RunID, entry.ApplicationID, entry.Field, entry.OldValue,
		entry.NewValue, entry.Resolution, entry.Pending,
	)

	return err
}

// GetPendingConflicts retrieves unresolved conflict entries page by page,
// oldest first.
func (d Datasource) GetPendingConflicts(ctx context.Context, batchSize int, offset int64) ([]*model.ConflictEntry, error) {
	ctx, span := otel.Tracer("Conflicts").Start(ctx, "Fetching pending conflicts")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, run_id, application_id, field, old_value, new_value, resolution, pending, created_at
		FROM misrecon.conflict_log
		WHERE pending = TRUE
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`, batchSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*model.ConflictEntry

	for rows.Next() {
		entry := &model.ConflictEntry{}
		err = rows.Scan(
			&entry.ID, &entry.RunID, &entry.ApplicationID, &entry.Field,
			&entry.OldValue, &entry.NewValue, &entry.Resolution, &entry.Pending,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
