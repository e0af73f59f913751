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

package database

import (
	"context"

	"github.com/ankitarsangwan-bit/misrecon/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	applicationRecord // Interface for stored application record operations
	misRow            // Interface for staged MIS row operations
	reconciliationRun // Interface for reconciliation run operations
	conflict          // Interface for conflict log operations
}

// applicationRecord defines methods for the stored application records.
type applicationRecord interface {
	InsertApplicationRecord(ctx context.Context, record *model.StoredRecord) error                                // Inserts a first-seen application
	UpdateApplicationRecord(ctx context.Context, record *model.StoredRecord) error                                // Updates an existing application, month excluded
	GetApplicationRecord(ctx context.Context, applicationID string) (*model.StoredRecord, error)                  // Retrieves one application by its id
	GetApplicationRecordsPaginated(ctx context.Context, batchSize int, offset int64) ([]*model.StoredRecord, error) // Retrieves applications in a paginated manner
}

// misRow defines methods for the staged rows of an upload.
type misRow interface {
	RecordMISRow(ctx context.Context, uploadID string, row model.MappedRow) error                               // Stages one mapped row under an upload
	GetMISRowsPaginated(ctx context.Context, uploadID string, batchSize int, offset int64) ([]model.MappedRow, error) // Retrieves staged rows in a paginated manner
}

// reconciliationRun defines methods for reconciliation run bookkeeping.
type reconciliationRun interface {
	RecordReconciliationRun(ctx context.Context, run *model.ReconciliationRun) error                             // Records a new run
	GetReconciliationRun(ctx context.Context, runID string) (*model.ReconciliationRun, error)                    // Retrieves a run by its id
	UpdateReconciliationRunStatus(ctx context.Context, runID, status string, counts *model.RunCounts) error      // Updates run status, optionally with final counts
}

// conflict defines methods for the append-only conflict log.
type conflict interface {
	RecordConflict(ctx context.Context, entry *model.ConflictEntry) error                                  // Appends one conflict log entry
	GetPendingConflicts(ctx context.Context, batchSize int, offset int64) ([]*model.ConflictEntry, error)  // Retrieves unresolved entries in a paginated manner
}
