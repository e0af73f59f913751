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
package model

// UpdateDecision is the transition guard's verdict for one incoming row
// against its stored record.
type UpdateDecision struct {
	ShouldUpdate  bool         `json:"should_update"`
	Reason        string       `json:"reason"`
	IncomingStage JourneyStage `json:"incoming_stage"`
	ExistingStage JourneyStage `json:"existing_stage"`
}

// SkippedRecord reports a guard rejection. Rejections are expected outcomes,
// not errors; the reason string is machine-readable and names the gate that
// fired.
type SkippedRecord struct {
	ApplicationID string `json:"application_id"`
	Row           int    `json:"row"`
	Reason        string `json:"reason"`
	IncomingStage string `json:"incoming_stage"`
	ExistingStage string `json:"existing_stage"`
}

// RecordUpdate is an accepted, non-vacuous transition: the changed target
// fields with their old and new values, plus the fully updated record ready
// to persist.
type RecordUpdate struct {
	ApplicationID string            `json:"application_id"`
	ChangedFields []string          `json:"changed_fields"`
	OldValues     map[string]string `json:"old_values"`
	NewValues     map[string]string `json:"new_values"`
	Record        *StoredRecord     `json:"record"`
}

// ChangeSet is the ephemeral output of one reconciliation run. The four
// categories are exclusive per application id:
//
//	len(NewRecords) + len(UpdatedRecords) + UnchangedCount + len(SkippedRecords) == TotalIncoming
//
// UnchangedCount counts only guard-accepted rows whose every field matched
// the stored record; guard rejections are counted in SkippedRecords alone.
type ChangeSet struct {
	NewRecords          []*StoredRecord `json:"new_records"`
	UpdatedRecords      []RecordUpdate  `json:"updated_records"`
	SkippedRecords      []SkippedRecord `json:"skipped_records"`
	UnchangedCount      int             `json:"unchanged_count"`
	TotalIncoming       int             `json:"total_incoming"`
	DuplicatesCollapsed int             `json:"duplicates_collapsed"`
}

// NoActionCount returns the ids that produced no persistence action, whether
// because the guard rejected them or because the accepted row was identical.
func (c *ChangeSet) NoActionCount() int {
	return c.UnchangedCount + len(c.SkippedRecords)
}
