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
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ankitarsangwan-bit/misrecon/database/mocks"
	"github.com/ankitarsangwan-bit/misrecon/model"
)

func batchRow(rowNum int, fields map[string]string) model.MappedRow {
	return model.MappedRow{RowNumber: rowNum, Fields: fields}
}

func TestReconcile_AllNewRecords(t *testing.T) {
	rows := []model.MappedRow{
		batchRow(2, map[string]string{
			model.FieldApplicationID:   "APP001",
			model.FieldFinalStatus:     "IPA",
			model.FieldLastUpdatedDate: "2024-03-01",
		}),
		batchRow(3, map[string]string{
			model.FieldApplicationID:   "APP002",
			model.FieldFinalStatus:     "SANCTIONED",
			model.FieldLastUpdatedDate: "2024-03-01",
		}),
	}

	changeSet, err := Reconcile(rows, map[string]*model.StoredRecord{})
	require.NoError(t, err)
	assert.Len(t, changeSet.NewRecords, 2)
	assert.Equal(t, 2, changeSet.TotalIncoming)
	assert.Empty(t, changeSet.UpdatedRecords)
	assert.Empty(t, changeSet.SkippedRecords)
	assert.Zero(t, changeSet.UnchangedCount)
}

func TestReconcile_DuplicateCollapse(t *testing.T) {
	// Three rows for one application count once in TotalIncoming and produce
	// exactly one stored record, built from the best row.
	rows := []model.MappedRow{
		batchRow(2, map[string]string{
			model.FieldApplicationID:   "APP001",
			model.FieldFinalStatus:     "IPA",
			model.FieldLastUpdatedDate: "2024-03-01",
		}),
		batchRow(3, map[string]string{
			model.FieldApplicationID:   "APP001",
			model.FieldFinalStatus:     "SANCTIONED",
			model.FieldLastUpdatedDate: "2024-03-02",
		}),
		batchRow(4, map[string]string{
			model.FieldApplicationID:   "APP001",
			model.FieldFinalStatus:     "IPA",
			model.FieldLastUpdatedDate: "2024-03-03",
		}),
	}

	changeSet, err := Reconcile(rows, map[string]*model.StoredRecord{})
	require.NoError(t, err)
	assert.Equal(t, 1, changeSet.TotalIncoming)
	assert.Equal(t, 2, changeSet.DuplicatesCollapsed)
	require.Len(t, changeSet.NewRecords, 1)
	assert.Equal(t, "SANCTIONED", changeSet.NewRecords[0].FinalStatus, "survivor is the highest-stage row")
}

func TestReconcile_TerminalRecordSkipped(t *testing.T) {
	existing := map[string]*model.StoredRecord{
		"APP001": {
			ApplicationID:   "APP001",
			FinalStatus:     "DISBURSED",
			LastUpdatedDate: "2024-03-01",
			Month:           "2024-03",
		},
	}
	rows := []model.MappedRow{
		batchRow(2, map[string]string{
			model.FieldApplicationID:   "APP001",
			model.FieldFinalStatus:     "CARD DISPATCHED",
			model.FieldLastUpdatedDate: "2024-03-10",
		}),
	}

	changeSet, err := Reconcile(rows, existing)
	require.NoError(t, err)
	require.Len(t, changeSet.SkippedRecords, 1)
	skipped := changeSet.SkippedRecords[0]
	assert.Equal(t, "APP001", skipped.ApplicationID)
	assert.Contains(t, skipped.Reason, "terminal stage")
	assert.Equal(t, "DISBURSED", skipped.ExistingStage)
}

func TestReconcile_StaleRowSkipped(t *testing.T) {
	existing := map[string]*model.StoredRecord{
		"APP001": {
			ApplicationID:   "APP001",
			FinalStatus:     "IPA",
			LastUpdatedDate: "2024-03-10",
		},
	}
	rows := []model.MappedRow{
		batchRow(2, map[string]string{
			model.FieldApplicationID:   "APP001",
			model.FieldFinalStatus:     "SANCTIONED",
			model.FieldLastUpdatedDate: "2024-03-01",
		}),
	}

	changeSet, err := Reconcile(rows, existing)
	require.NoError(t, err)
	require.Len(t, changeSet.SkippedRecords, 1)
	assert.Contains(t, changeSet.SkippedRecords[0].Reason, "stale incoming record")
}

func TestReconcile_IdenticalRowIsUnchanged(t *testing.T) {
	// Guard-accepted but every field matches: counted unchanged, not skipped.
	existing := map[string]*model.StoredRecord{
		"APP001": {
			ApplicationID:   "APP001",
			FinalStatus:     "IPA",
			BlazeOutput:     "STPK",
			CoreNonCore:     "Core",
			LastUpdatedDate: "2024-03-01",
			Month:           "2024-03",
		},
	}
	rows := []model.MappedRow{
		batchRow(2, map[string]string{
			model.FieldApplicationID:   "APP001",
			model.FieldFinalStatus:     "IPA",
			model.FieldBlazeOutput:     "STPK",
			model.FieldCoreNonCore:     "Core",
			model.FieldLastUpdatedDate: "2024-03-01",
		}),
	}

	changeSet, err := Reconcile(rows, existing)
	require.NoError(t, err)
	assert.Equal(t, 1, changeSet.UnchangedCount)
	assert.Empty(t, changeSet.UpdatedRecords)
	assert.Empty(t, changeSet.SkippedRecords)
}

func TestReconcile_UpdatePreservesMonth(t *testing.T) {
	existing := map[string]*model.StoredRecord{
		"APP001": {
			ApplicationID:   "APP001",
			FinalStatus:     "IPA",
			CoreNonCore:     "Core",
			LastUpdatedDate: "2024-03-01",
			Month:           "2024-03",
		},
	}
	rows := []model.MappedRow{
		batchRow(2, map[string]string{
			model.FieldApplicationID:   "APP001",
			model.FieldFinalStatus:     "SANCTIONED",
			model.FieldCoreNonCore:     "Core",
			model.FieldLastUpdatedDate: "2024-04-15",
			model.FieldApplicationDate: "2024-04-10",
		}),
	}

	changeSet, err := Reconcile(rows, existing)
	require.NoError(t, err)
	require.Len(t, changeSet.UpdatedRecords, 1)
	update := changeSet.UpdatedRecords[0]
	assert.Equal(t, "2024-03", update.Record.Month, "month is frozen at first insert")
	assert.Contains(t, update.ChangedFields, model.FieldFinalStatus)
	assert.Equal(t, "IPA", update.OldValues[model.FieldFinalStatus])
	assert.Equal(t, "SANCTIONED", update.NewValues[model.FieldFinalStatus])
	assert.True(t, update.Record.CardApproved, "derived columns recomputed on update")
}

func TestReconcile_CategorySumInvariant(t *testing.T) {
	existing := map[string]*model.StoredRecord{
		"UPD": {ApplicationID: "UPD", FinalStatus: "IPA", CoreNonCore: "Core", LastUpdatedDate: "2024-03-01", Month: "2024-03"},
		"UNCH": {ApplicationID: "UNCH", FinalStatus: "IPA", CoreNonCore: "Core", LastUpdatedDate: "2024-03-01", Month: "2024-03"},
		"SKIP": {ApplicationID: "SKIP", FinalStatus: "DISBURSED", CoreNonCore: "Core", LastUpdatedDate: "2024-03-01", Month: "2024-03"},
	}
	rows := []model.MappedRow{
		batchRow(2, map[string]string{
			model.FieldApplicationID: "NEW1", model.FieldFinalStatus: "IPA",
			model.FieldCoreNonCore: "Core", model.FieldLastUpdatedDate: "2024-03-05",
		}),
		batchRow(3, map[string]string{
			model.FieldApplicationID: "UPD", model.FieldFinalStatus: "SANCTIONED",
			model.FieldCoreNonCore: "Core", model.FieldLastUpdatedDate: "2024-03-05",
		}),
		batchRow(4, map[string]string{
			model.FieldApplicationID: "UNCH", model.FieldFinalStatus: "IPA",
			model.FieldCoreNonCore: "Core", model.FieldLastUpdatedDate: "2024-03-01",
		}),
		batchRow(5, map[string]string{
			model.FieldApplicationID: "SKIP", model.FieldFinalStatus: "CARD DISPATCHED",
			model.FieldCoreNonCore: "Core", model.FieldLastUpdatedDate: "2024-03-05",
		}),
		// duplicate of NEW1, collapses into it
		batchRow(6, map[string]string{
			model.FieldApplicationID: "NEW1", model.FieldFinalStatus: "IPA",
			model.FieldCoreNonCore: "Core", model.FieldLastUpdatedDate: "2024-03-04",
		}),
	}

	changeSet, err := Reconcile(rows, existing)
	require.NoError(t, err)
	assert.Equal(t, 4, changeSet.TotalIncoming)
	assert.Equal(t, changeSet.TotalIncoming,
		len(changeSet.NewRecords)+len(changeSet.UpdatedRecords)+changeSet.UnchangedCount+len(changeSet.SkippedRecords),
		"the four categories partition the incoming applications")
	assert.Equal(t, 1, changeSet.DuplicatesCollapsed)
	assert.Equal(t, 2, changeSet.NoActionCount())
}

func TestReconcile_RowWithoutApplicationID(t *testing.T) {
	rows := []model.MappedRow{
		batchRow(2, map[string]string{model.FieldFinalStatus: "IPA"}),
	}
	_, err := Reconcile(rows, map[string]*model.StoredRecord{})
	assert.Error(t, err, "unkeyed rows must be filtered out before the pipeline")
}

func TestNewStoredRecord(t *testing.T) {
	row := batchRow(2, map[string]string{
		model.FieldApplicationID:   " APP001 ",
		model.FieldFinalStatus:     "SANCTIONED",
		model.FieldLoginStatus:     "LOGIN",
		model.FieldBlazeOutput:     "STPT",
		model.FieldVKYCStatus:      "APPROVED",
		model.FieldCoreNonCore:     "",
		model.FieldApplicationDate: "05/03/2024",
		model.FieldLastUpdatedDate: "10-03-2024",
	})

	record := NewStoredRecord(row)
	assert.Equal(t, "APP001", record.ApplicationID)
	assert.Equal(t, "2024-03-05", record.ApplicationDate, "dates canonicalized on insert")
	assert.Equal(t, "2024-03-10", record.LastUpdatedDate)
	assert.Equal(t, "2024-03", record.Month, "month frozen from application date")
	assert.Equal(t, "Core", record.CoreNonCore, "empty core_non_core defaults")
	assert.Contains(t, record.DefaultedFields, model.FieldCoreNonCore)
	assert.NotContains(t, record.DefaultedFields, model.FieldBlazeOutput)
	assert.Equal(t, string(QualityAverage), record.LeadQuality)
	assert.True(t, record.KYCCompleted)
	assert.True(t, record.VKYCDone)
	assert.True(t, record.CardApproved)
}

func TestNewStoredRecord_EmptyBlazeOutputIsPending(t *testing.T) {
	row := batchRow(2, map[string]string{
		model.FieldApplicationID:   "APP001",
		model.FieldBlazeOutput:     "",
		model.FieldCoreNonCore:     "Core",
		model.FieldLastUpdatedDate: "2024-03-01",
	})

	record := NewStoredRecord(row)
	assert.Contains(t, record.DefaultedFields, model.FieldBlazeOutput)
	assert.Equal(t, string(QualityGood), record.LeadQuality, "empty blaze_output derives as STPK")
}

func TestPreviewReconciliation(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	service := &Misrecon{datasource: mockDS}
	ctx := context.Background()

	staged := []model.MappedRow{
		batchRow(2, map[string]string{
			model.FieldApplicationID:   "APP001",
			model.FieldFinalStatus:     "IPA",
			model.FieldLastUpdatedDate: "2024-03-01",
		}),
	}
	mockDS.On("GetMISRowsPaginated", mock.Anything, "upload_1", lookupBatchSize, int64(0)).Return(staged, nil)
	mockDS.On("GetApplicationRecordsPaginated", mock.Anything, lookupBatchSize, int64(0)).Return([]*model.StoredRecord{}, nil)

	changeSet, err := service.PreviewReconciliation(ctx, "upload_1")
	require.NoError(t, err)
	assert.Len(t, changeSet.NewRecords, 1)

	// Preview never writes.
	mockDS.AssertNotCalled(t, "InsertApplicationRecord", mock.Anything, mock.Anything)
	mockDS.AssertNotCalled(t, "UpdateApplicationRecord", mock.Anything, mock.Anything)
	mockDS.AssertNotCalled(t, "RecordConflict", mock.Anything, mock.Anything)
	mockDS.AssertExpectations(t)
}

func TestFetchStagedRows_DrainsEveryPage(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	service := &Misrecon{datasource: mockDS}

	fullPage := make([]model.MappedRow, lookupBatchSize)
	for i := range fullPage {
		fullPage[i] = batchRow(i+2, map[string]string{model.FieldApplicationID: gofakeit.UUID()})
	}
	lastPage := []model.MappedRow{
		batchRow(lookupBatchSize+2, map[string]string{model.FieldApplicationID: "APP_LAST"}),
	}
	mockDS.On("GetMISRowsPaginated", mock.Anything, "upload_1", lookupBatchSize, int64(0)).Return(fullPage, nil)
	mockDS.On("GetMISRowsPaginated", mock.Anything, "upload_1", lookupBatchSize, int64(lookupBatchSize)).Return(lastPage, nil)

	rows, err := service.fetchStagedRows(context.Background(), "upload_1")
	require.NoError(t, err)
	assert.Len(t, rows, lookupBatchSize+1)
	mockDS.AssertExpectations(t)
}

func TestApplyChangeSet(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	service := &Misrecon{datasource: mockDS}
	ctx := context.Background()

	newRecord := &model.StoredRecord{
		ApplicationID:   "NEW1",
		CoreNonCore:     "Core",
		DefaultedFields: []string{model.FieldCoreNonCore},
	}
	updated := &model.StoredRecord{ApplicationID: "UPD1", FinalStatus: "SANCTIONED", Month: "2024-03"}
	changeSet := &model.ChangeSet{
		NewRecords: []*model.StoredRecord{newRecord},
		UpdatedRecords: []model.RecordUpdate{
			{
				ApplicationID: "UPD1",
				ChangedFields: []string{model.FieldFinalStatus, model.FieldLastUpdatedDate},
				OldValues: map[string]string{
					model.FieldFinalStatus:     "IPA",
					model.FieldLastUpdatedDate: "2024-03-01",
				},
				NewValues: map[string]string{
					model.FieldFinalStatus:     "SANCTIONED",
					model.FieldLastUpdatedDate: "2024-03-05",
				},
				Record: updated,
			},
		},
		TotalIncoming: 2,
	}

	mockDS.On("InsertApplicationRecord", mock.Anything, newRecord).Return(nil)
	mockDS.On("UpdateApplicationRecord", mock.Anything, updated).Return(nil)
	mockDS.On("RecordConflict", mock.Anything, mock.MatchedBy(func(e *model.ConflictEntry) bool {
		return e.RunID == "run_1"
	})).Return(nil)

	err := service.ApplyChangeSet(ctx, "run_1", changeSet)
	require.NoError(t, err)

	// One overwrite entry per changed field plus one pending entry for the
	// defaulted core_non_core on the insert.
	mockDS.AssertNumberOfCalls(t, "RecordConflict", 3)
	mockDS.AssertExpectations(t)
}

func TestApplyChangeSet_InsertFailureAborts(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	service := &Misrecon{datasource: mockDS}

	record := &model.StoredRecord{ApplicationID: "NEW1"}
	changeSet := &model.ChangeSet{NewRecords: []*model.StoredRecord{record}, TotalIncoming: 1}

	mockDS.On("InsertApplicationRecord", mock.Anything, record).Return(assert.AnError)

	err := service.ApplyChangeSet(context.Background(), "run_1", changeSet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting application NEW1")
}

func TestStartReconciliation_CommitFlow(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	service := &Misrecon{datasource: mockDS}
	ctx := context.Background()

	staged := []model.MappedRow{
		batchRow(2, map[string]string{
			model.FieldApplicationID:   "APP001",
			model.FieldFinalStatus:     "IPA",
			model.FieldCoreNonCore:     "Core",
			model.FieldBlazeOutput:     "STPK",
			model.FieldLastUpdatedDate: "2024-03-01",
		}),
	}

	done := make(chan struct{})
	mockDS.On("RecordReconciliationRun", mock.Anything, mock.MatchedBy(func(run *model.ReconciliationRun) bool {
		return run.UploadID == "upload_1" && run.Status == StatusStarted && !run.IsDryRun
	})).Return(nil)
	mockDS.On("UpdateReconciliationRunStatus", mock.Anything, mock.Anything, StatusInProgress, (*model.RunCounts)(nil)).Return(nil)
	mockDS.On("GetMISRowsPaginated", mock.Anything, "upload_1", lookupBatchSize, int64(0)).Return(staged, nil)
	mockDS.On("GetApplicationRecordsPaginated", mock.Anything, lookupBatchSize, int64(0)).Return([]*model.StoredRecord{}, nil)
	mockDS.On("InsertApplicationRecord", mock.Anything, mock.Anything).Return(nil)
	mockDS.On("UpdateReconciliationRunStatus", mock.Anything, mock.Anything, StatusCompleted, mock.MatchedBy(func(counts *model.RunCounts) bool {
		return counts != nil && counts.New == 1 && counts.Total == 1
	})).Return(nil).Run(func(args mock.Arguments) { close(done) })

	runID, err := service.StartReconciliation(ctx, "upload_1", false)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reconciliation run did not complete")
	}
	mockDS.AssertExpectations(t)
}

func TestStartReconciliation_DryRunNeverWrites(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	service := &Misrecon{datasource: mockDS}
	ctx := context.Background()

	staged := []model.MappedRow{
		batchRow(2, map[string]string{
			model.FieldApplicationID:   "APP001",
			model.FieldFinalStatus:     "IPA",
			model.FieldLastUpdatedDate: "2024-03-01",
		}),
	}

	done := make(chan struct{})
	mockDS.On("RecordReconciliationRun", mock.Anything, mock.Anything).Return(nil)
	mockDS.On("UpdateReconciliationRunStatus", mock.Anything, mock.Anything, StatusInProgress, (*model.RunCounts)(nil)).Return(nil)
	mockDS.On("GetMISRowsPaginated", mock.Anything, "upload_1", lookupBatchSize, int64(0)).Return(staged, nil)
	mockDS.On("GetApplicationRecordsPaginated", mock.Anything, lookupBatchSize, int64(0)).Return([]*model.StoredRecord{}, nil)
	mockDS.On("UpdateReconciliationRunStatus", mock.Anything, mock.Anything, StatusCompleted, mock.AnythingOfType("*model.RunCounts")).
		Return(nil).Run(func(args mock.Arguments) { close(done) })

	_, err := service.StartReconciliation(ctx, "upload_1", true)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dry run did not complete")
	}
	mockDS.AssertNotCalled(t, "InsertApplicationRecord", mock.Anything, mock.Anything)
	mockDS.AssertNotCalled(t, "UpdateApplicationRecord", mock.Anything, mock.Anything)
	mockDS.AssertNotCalled(t, "RecordConflict", mock.Anything, mock.Anything)
}

func TestGetReconciliationRun(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	service := &Misrecon{datasource: mockDS}

	want := &model.ReconciliationRun{RunID: "run_1", Status: StatusCompleted}
	mockDS.On("GetReconciliationRun", mock.Anything, "run_1").Return(want, nil)

	got, err := service.GetReconciliationRun(context.Background(), "run_1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	mockDS.AssertExpectations(t)
}
