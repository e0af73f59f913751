package model

import "time"

// RunCounts summarizes a finished reconciliation run.
type RunCounts struct {
	New                 int `json:"new_records"`
	Updated             int `json:"updated_records"`
	Unchanged           int `json:"unchanged_records"`
	Skipped             int `json:"skipped_records"`
	Total               int `json:"total_incoming"`
	DuplicatesCollapsed int `json:"duplicates_collapsed"`
}

// ReconciliationRun tracks one ingestion pass over an uploaded MIS file.
type ReconciliationRun struct {
	ID          int64      `json:"-"`
	RunID       string     `json:"run_id"`
	UploadID    string     `json:"upload_id"`
	Status      string     `json:"status"`
	IsDryRun    bool       `json:"is_dry_run"`
	Counts      RunCounts  `json:"counts"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
