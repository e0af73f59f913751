package database

import (
	"context"
	"database/sql"

	"github.com/ankitarsangwan-bit/misrecon/internal/apierror"
	"github.com/ankitarsangwan-bit/misrecon/model"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
)

// InsertApplicationRecord inserts a first-seen application record. The month
// column is written here and never again.
func (d Datasource) InsertApplicationRecord(ctx context.Context, record *model.StoredRecord) error {
	ctx, span := otel.Tracer("Records").Start(ctx, "Saving application record to db")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO misrecon.application_records(
			application_id, blaze_output, login_status, final_status, vkyc_status,
			core_non_core, vkyc_eligible, rejection_reason, state, product,
			application_date, last_updated_date, lead_quality, kyc_completed,
			vkyc_done, card_approved, month
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		record.ApplicationID, record.BlazeOutput, record.LoginStatus, record.FinalStatus,
		record.VKYCStatus, record.CoreNonCore, record.VKYCEligible, record.RejectionReason,
		record.State, record.Product, record.ApplicationDate, record.LastUpdatedDate,
		record.LeadQuality, record.KYCCompleted, record.VKYCDone, record.CardApproved,
		record.Month,
	)

	return err
}

// UpdateApplicationRecord overwrites the mutable columns of an existing
// record. The month column is deliberately absent from the statement.
func (d Datasource) UpdateApplicationRecord(ctx context.Context, record *model.StoredRecord) error {
	ctx, span := otel.Tracer("Records").Start(ctx, "Updating application record")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE misrecon.application_records
		SET blaze_output = $2, login_status = $3, final_status = $4, vkyc_status = $5,
			core_non_core = $6, vkyc_eligible = $7, rejection_reason = $8, state = $9,
			product = $10, application_date = $11, last_updated_date = $12,
			lead_quality = $13, kyc_completed = $14, vkyc_done = $15, card_approved = $16,
			updated_at = NOW()
		WHERE application_id = $1
	`, record.ApplicationID, record.BlazeOutput, record.LoginStatus, record.FinalStatus,
		record.VKYCStatus, record.CoreNonCore, record.VKYCEligible, record.RejectionReason,
		record.State, record.Product, record.ApplicationDate, record.LastUpdatedDate,
		record.LeadQuality, record.KYCCompleted, record.VKYCDone, record.CardApproved)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.Errorf("application %s not found for update", record.ApplicationID)
	}

	return nil
}

// GetApplicationRecord retrieves one application record by its id.
func (d Datasource) GetApplicationRecord(ctx context.Context, applicationID string) (*model.StoredRecord, error) {
	ctx, span := otel.Tracer("Records").Start(ctx, "Fetching application record from db")
	defer span.End()

	record := &model.StoredRecord{}
	err := d.Conn.QueryRowContext(ctx, `
		SELECT id, application_id, blaze_output, login_status, final_status, vkyc_status,
			core_non_core, vkyc_eligible, rejection_reason, state, product,
			application_date, last_updated_date, lead_quality, kyc_completed,
			vkyc_done, card_approved, month, created_at, updated_at
		FROM misrecon.application_records
		WHERE application_id = $1
	`, applicationID).Scan(
		&record.ID, &record.ApplicationID, &record.BlazeOutput, &record.LoginStatus,
		&record.FinalStatus, &record.VKYCStatus, &record.CoreNonCore, &record.VKYCEligible,
		&record.RejectionReason, &record.State, &record.Product, &record.ApplicationDate,
		&record.LastUpdatedDate, &record.LeadQuality, &record.KYCCompleted,
		&record.VKYCDone, &record.CardApproved, &record.Month,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "application record not found", applicationID)
	}
	if err != nil {
		return nil, err
	}

	return record, nil
}

// GetApplicationRecordsPaginated retrieves application records page by page
// in insertion order.
func (d Datasource) GetApplicationRecordsPaginated(ctx context.Context, batchSize int, offset int64) ([]*model.StoredRecord, error) {
	ctx, span := otel.Tracer("Records").Start(ctx, "Fetching application records paginated")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, application_id, blaze_output, login_status, final_status, vkyc_status,
			core_non_core, vkyc_eligible, rejection_reason, state, product,
			application_date, last_updated_date, lead_quality, kyc_completed,
			vkyc_done, card_approved, month, created_at, updated_at
		FROM misrecon.application_records
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`, batchSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*model.StoredRecord

	for rows.Next() {
		record := &model.StoredRecord{}
		err = rows.Scan(
			&record.ID, &record.ApplicationID, &record.BlazeOutput, &record.LoginStatus,
			&record.FinalStatus, &record.VKYCStatus, &record.CoreNonCore, &record.VKYCEligible,
			&record.RejectionReason, &record.State, &record.Product, &record.ApplicationDate,
			&record.LastUpdatedDate, &record.LeadQuality, &record.KYCCompleted,
			&record.VKYCDone, &record.CardApproved, &record.Month,
			&record.CreatedAt, &record.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, rows.Err()
}
