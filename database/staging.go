package database

import (
	"context"
	"encoding/json"

	"github.com/ankitarsangwan-bit/misrecon/model"
	"go.opentelemetry.io/otel"
)

// RecordMISRow stages one mapped row under an upload. Fields are kept as
// JSONB so the staging table survives mapping changes without migrations.
func (d Datasource) RecordMISRow(ctx context.Context, uploadID string, row model.MappedRow) error {
	ctx, span := otel.Tracer("Staging").Start(ctx, "Saving MIS row to db")
	defer span.End()

	fields, err := json.Marshal(row.Fields)
	if err != nil {
		return err
	}

	_, err = d.Conn.ExecContext(ctx,
		`INSERT INTO misrecon.mis_rows(upload_id, row_number, fields) VALUES ($1, $2, $3)`,
		uploadID, row.RowNumber, fields,
	)

	return err
}

// GetMISRowsPaginated retrieves the staged rows of an upload page by page in
// source-file order.
func (d Datasource) GetMISRowsPaginated(ctx context.Context, uploadID string, batchSize int, offset int64) ([]model.MappedRow, error) {
	ctx, span := otel.Tracer("Staging").Start(ctx, "Fetching MIS rows paginated")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT row_number, fields
		FROM misrecon.mis_rows
		WHERE upload_id = $1
		ORDER BY row_number ASC
		LIMIT $2 OFFSET $3
	`, uploadID, batchSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staged []model.MappedRow

	for rows.Next() {
		var row model.MappedRow
		var fields []byte
		if err := rows.Scan(&row.RowNumber, &fields); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(fields, &row.Fields); err != nil {
			return nil, err
		}

		staged = append(staged, row)
	}

	return staged, rows.Err()
}
