/*
Copyright 2025 Misrecon Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package misrecon

import (
	"context"
	"strings"
	"time"

	redlock "github.com/ankitarsangwan-bit/misrecon/internal/lock"
	"github.com/ankitarsangwan-bit/misrecon/internal/notification"
	"github.com/ankitarsangwan-bit/misrecon/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/wacul/ptr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Status constants for a reconciliation run.
const (
	StatusStarted    = "started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// lookupBatchSize is the page size used when draining staged rows and the
// stored-record snapshot. Every page is fetched; the guard needs the full
// set, never a sample.
const lookupBatchSize = 1000

// Commit runs against the same upload are serialized with a redis lock so a
// retried run cannot interleave writes with one still in flight.
const (
	uploadLockTimeout = 5 * time.Minute
	uploadLockWait    = 30 * time.Second
)

// Reconcile runs the pure reconciliation pipeline over one batch: group
// incoming rows by application id, collapse duplicates, and classify each id
// as new, updated, unchanged or skipped against the stored snapshot. It
// performs no I/O; preview and commit call it with identical inputs and
// therefore produce identical change-sets.
func Reconcile(rows []model.MappedRow, existing map[string]*model.StoredRecord) (*model.ChangeSet, error) {
	groups := make(map[string][]model.MappedRow)
	var order []string // first-seen order keeps output deterministic
	for _, row := range rows {
		id := strings.TrimSpace(row.ApplicationID())
		if id == "" {
			return nil, errors.Errorf("row %d without application_id reached the pipeline", row.RowNumber)
		}
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], row)
	}

	changeSet := &model.ChangeSet{TotalIncoming: len(groups)}
	for _, id := range order {
		group := groups[id]
		row := group[0]
		if len(group) > 1 {
			best, err := SelectBestRecord(group)
			if err != nil {
				return nil, err
			}
			row = best
			changeSet.DuplicatesCollapsed += len(group) - 1
		}

		stored, ok := existing[id]
		if !ok {
			// New records bypass the guard entirely.
			changeSet.NewRecords = append(changeSet.NewRecords, NewStoredRecord(row))
			continue
		}

		decision := ShouldUpdateRecord(row, stored)
		if !decision.ShouldUpdate {
			changeSet.SkippedRecords = append(changeSet.SkippedRecords, model.SkippedRecord{
				ApplicationID: id,
				Row:           row.RowNumber,
				Reason:        decision.Reason,
				IncomingStage: decision.IncomingStage.String(),
				ExistingStage: decision.ExistingStage.String(),
			})
			continue
		}

		update := diffRecord(row, stored)
		if len(update.ChangedFields) == 0 {
			// Accepted but vacuous transition.
			changeSet.UnchangedCount++
			continue
		}
		changeSet.UpdatedRecords = append(changeSet.UpdatedRecords, update)
	}
	return changeSet, nil
}

// NewStoredRecord builds the stored representation of a first-seen row: raw
// fields coerced, derived fields computed, reporting month frozen.
func NewStoredRecord(row model.MappedRow) *model.StoredRecord {
	record := &model.StoredRecord{}
	for _, target := range model.TargetFields {
		if raw, ok := row.Fields[target]; ok {
			record.SetField(target, coerceFieldValue(target, raw))
		}
	}
	record.ApplicationID = strings.TrimSpace(row.ApplicationID())
	applyFieldDefaults(record, row)
	record.Month = MonthOf(record.ApplicationDate, record.LastUpdatedDate)
	deriveRecordFields(record)
	return record
}

// coerceFieldValue trims a raw cell and canonicalizes date-typed targets. A
// date no layout parses is kept raw; the guard has already vouched for the
// ordering key by the time a value is stored.
func coerceFieldValue(target, raw string) string {
	v := strings.TrimSpace(raw)
	switch target {
	case model.FieldLastUpdatedDate, model.FieldApplicationDate:
		if normalized, err := NormalizeDate(v); err == nil {
			return normalized
		}
	case model.FieldCoreNonCore:
		if v == "" {
			return "Core"
		}
	}
	return v
}

// applyFieldDefaults marks raw fields that arrived empty and were defaulted
// so the commit stage can log them for pending resolution.
func applyFieldDefaults(record *model.StoredRecord, row model.MappedRow) {
	record.DefaultedFields = nil
	if strings.TrimSpace(row.BlazeOutput()) == "" {
		record.DefaultedFields = append(record.DefaultedFields, model.FieldBlazeOutput)
	}
	if strings.TrimSpace(row.CoreNonCore()) == "" {
		record.CoreNonCore = "Core"
		record.DefaultedFields = append(record.DefaultedFields, model.FieldCoreNonCore)
	}
}

// deriveRecordFields recomputes the derived columns from the raw ones.
// Insert, update and reporting all route through the same derivations.
func deriveRecordFields(record *model.StoredRecord) {
	record.LeadQuality = string(DeriveLeadQuality(record.BlazeOutput))
	record.KYCCompleted = IsKycCompleted(record.LoginStatus, record.FinalStatus, record.VKYCStatus, record.CoreNonCore, record.RejectionReason)
	record.VKYCDone = IsVkycDone(record.VKYCStatus)
	record.CardApproved = IsCardApproved(record.FinalStatus)
}

// diffRecord computes the per-field diff of a guard-accepted row against the
// stored record. Only mapped target columns participate; derived columns are
// recomputed and month is always copied forward from the existing record.
func diffRecord(row model.MappedRow, existing *model.StoredRecord) model.RecordUpdate {
	update := model.RecordUpdate{
		ApplicationID: existing.ApplicationID,
		OldValues:     make(map[string]string),
		NewValues:     make(map[string]string),
	}
	next := existing.Clone()
	for _, target := range model.TargetFields {
		if target == model.FieldApplicationID {
			continue
		}
		raw, ok := row.Fields[target]
		if !ok {
			continue // unmapped column: stored value carries forward
		}
		value := coerceFieldValue(target, raw)
		old := existing.FieldValue(target)
		if value == old {
			continue
		}
		update.ChangedFields = append(update.ChangedFields, target)
		update.OldValues[target] = old
		update.NewValues[target] = value
		next.SetField(target, value)
	}
	if len(update.ChangedFields) > 0 {
		applyFieldDefaults(next, row)
		deriveRecordFields(next)
		next.Month = existing.Month // month is write-once
		update.Record = next
	}
	return update
}

// StartReconciliation records a run and processes it on a detached context so
// the caller's request can return immediately. Dry runs compute the full
// change-set but never touch the stored records.
func (s *Misrecon) StartReconciliation(ctx context.Context, uploadID string, isDryRun bool) (string, error) {
	run := model.ReconciliationRun{
		RunID:     model.GenerateUUIDWithSuffix("run"),
		UploadID:  uploadID,
		Status:    StatusStarted,
		IsDryRun:  isDryRun,
		StartedAt: time.Now(),
	}
	if err := s.datasource.RecordReconciliationRun(ctx, &run); err != nil {
		return "", err
	}

	detachedCtx := trace.ContextWithSpan(context.Background(), trace.SpanFromContext(ctx))
	go func() {
		if err := s.processReconciliation(detachedCtx, run); err != nil {
			logrus.Errorf("reconciliation run %s failed: %v", run.RunID, err)
			notification.NotifyError(err)
			if err := s.datasource.UpdateReconciliationRunStatus(detachedCtx, run.RunID, StatusFailed, nil); err != nil {
				logrus.Errorf("error marking run %s failed: %v", run.RunID, err)
			}
		}
	}()

	return run.RunID, nil
}

// PreviewReconciliation computes the change-set for an upload synchronously
// without persisting anything. It runs the exact pipeline a commit would.
func (s *Misrecon) PreviewReconciliation(ctx context.Context, uploadID string) (*model.ChangeSet, error) {
	return s.computeChangeSet(ctx, uploadID)
}

// GetReconciliationRun returns the persisted state of a run.
func (s *Misrecon) GetReconciliationRun(ctx context.Context, runID string) (*model.ReconciliationRun, error) {
	return s.datasource.GetReconciliationRun(ctx, runID)
}

// GetPendingConflicts returns conflict-log entries still awaiting manual
// resolution, oldest first. These are the rows the commit stage writes for
// defaulted source values.
func (s *Misrecon) GetPendingConflicts(ctx context.Context, batchSize int, offset int64) ([]*model.ConflictEntry, error) {
	return s.datasource.GetPendingConflicts(ctx, batchSize, offset)
}

func (s *Misrecon) processReconciliation(ctx context.Context, run model.ReconciliationRun) error {
	ctx, span := otel.Tracer("misrecon.reconciliation").Start(ctx, "ProcessReconciliation")
	defer span.End()

	if s.redis != nil && !run.IsDryRun {
		locker := redlock.ForUpload(s.redis, run.UploadID)
		if err := locker.WaitLock(ctx, uploadLockTimeout, uploadLockWait); err != nil {
			return errors.Wrap(err, "acquiring upload lock")
		}
		defer func() {
			if err := locker.Unlock(ctx); err != nil {
				logrus.Warnf("releasing upload lock for %s: %v", run.UploadID, err)
			}
		}()
	}

	if err := s.datasource.UpdateReconciliationRunStatus(ctx, run.RunID, StatusInProgress, nil); err != nil {
		return errors.Wrap(err, "updating run status")
	}

	changeSet, err := s.computeChangeSet(ctx, run.UploadID)
	if err != nil {
		return err
	}

	if !run.IsDryRun {
		if err := s.ApplyChangeSet(ctx, run.RunID, changeSet); err != nil {
			return err
		}
		s.invalidateReports(ctx)
	}

	return s.finalizeReconciliation(ctx, run, changeSet)
}

// computeChangeSet is the compute half of the two-phase run: drain the staged
// rows and the full stored-record snapshot, then run the pure pipeline. No
// writes happen here, so a caller may abandon the run between phases without
// corrupting state.
func (s *Misrecon) computeChangeSet(ctx context.Context, uploadID string) (*model.ChangeSet, error) {
	rows, err := s.fetchStagedRows(ctx, uploadID)
	if err != nil {
		return nil, errors.Wrap(err, "fetching staged rows")
	}
	existing, err := s.fetchExistingRecords(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetching stored records")
	}
	return Reconcile(rows, existing)
}

func (s *Misrecon) fetchStagedRows(ctx context.Context, uploadID string) ([]model.MappedRow, error) {
	var rows []model.MappedRow
	for offset := int64(0); ; offset += lookupBatchSize {
		page, err := s.datasource.GetMISRowsPaginated(ctx, uploadID, lookupBatchSize, offset)
		if err != nil {
			return nil, err
		}
		rows = append(rows, page...)
		if len(page) < lookupBatchSize {
			break
		}
	}
	return rows, nil
}

func (s *Misrecon) fetchExistingRecords(ctx context.Context) (map[string]*model.StoredRecord, error) {
	existing := make(map[string]*model.StoredRecord)
	for offset := int64(0); ; offset += lookupBatchSize {
		page, err := s.datasource.GetApplicationRecordsPaginated(ctx, lookupBatchSize, offset)
		if err != nil {
			return nil, err
		}
		for _, record := range page {
			existing[record.ApplicationID] = record
		}
		if len(page) < lookupBatchSize {
			break
		}
	}
	return existing, nil
}

// ApplyChangeSet persists a change-set: inserts with a frozen month, updates
// that preserve the stored month, one conflict-log entry per changed field,
// and a pending-resolution entry per defaulted raw field.
func (s *Misrecon) ApplyChangeSet(ctx context.Context, runID string, changeSet *model.ChangeSet) error {
	ctx, span := otel.Tracer("misrecon.reconciliation").Start(ctx, "ApplyChangeSet")
	defer span.End()

	for _, record := range changeSet.NewRecords {
		if err := s.datasource.InsertApplicationRecord(ctx, record); err != nil {
			return errors.Wrapf(err, "inserting application %s", record.ApplicationID)
		}
		s.recordPendingDefaults(ctx, runID, record)
	}

	for _, update := range changeSet.UpdatedRecords {
		if err := s.datasource.UpdateApplicationRecord(ctx, update.Record); err != nil {
			return errors.Wrapf(err, "updating application %s", update.ApplicationID)
		}
		for _, field := range update.ChangedFields {
			entry := &model.ConflictEntry{
				RunID:         runID,
				ApplicationID: update.ApplicationID,
				Field:         field,
				OldValue:      update.OldValues[field],
				NewValue:      update.NewValues[field],
				Resolution:    "type-1 overwrite: latest accepted value kept",
			}
			if err := s.datasource.RecordConflict(ctx, entry); err != nil {
				return errors.Wrapf(err, "logging conflict for %s.%s", update.ApplicationID, field)
			}
		}
		s.recordPendingDefaults(ctx, runID, update.Record)
	}

	return nil
}

// recordPendingDefaults appends a pending-resolution conflict entry for every
// raw field that had to be defaulted. The log is advisory; failures are
// reported but do not abort the commit.
func (s *Misrecon) recordPendingDefaults(ctx context.Context, runID string, record *model.StoredRecord) {
	for _, field := range record.DefaultedFields {
		entry := &model.ConflictEntry{
			RunID:         runID,
			ApplicationID: record.ApplicationID,
			Field:         field,
			NewValue:      record.FieldValue(field),
			Resolution:    "empty source value defaulted",
			Pending:       true,
		}
		if err := s.datasource.RecordConflict(ctx, entry); err != nil {
			logrus.Errorf("error logging pending default for %s.%s: %v", record.ApplicationID, field, err)
		}
	}
}

func (s *Misrecon) finalizeReconciliation(ctx context.Context, run model.ReconciliationRun, changeSet *model.ChangeSet) error {
	counts := model.RunCounts{
		New:                 len(changeSet.NewRecords),
		Updated:             len(changeSet.UpdatedRecords),
		Unchanged:           changeSet.UnchangedCount,
		Skipped:             len(changeSet.SkippedRecords),
		Total:               changeSet.TotalIncoming,
		DuplicatesCollapsed: changeSet.DuplicatesCollapsed,
	}
	run.Counts = counts
	run.CompletedAt = ptr.Time(time.Now())

	if run.IsDryRun {
		logrus.Infof("dry run %s completed: %d new, %d updated, %d unchanged, %d skipped",
			run.RunID, counts.New, counts.Updated, counts.Unchanged, counts.Skipped)
	}

	return s.datasource.UpdateReconciliationRunStatus(ctx, run.RunID, StatusCompleted, &counts)
}
