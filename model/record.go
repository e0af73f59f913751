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

import "time"

// Target fields a source MIS column can be mapped to. Every value the core
// reasons over travels through one of these names.
const (
	FieldApplicationID   = "application_id"
	FieldBlazeOutput     = "blaze_output"
	FieldLoginStatus     = "login_status"
	FieldFinalStatus     = "final_status"
	FieldLastUpdatedDate = "last_updated_date"
	FieldVKYCStatus      = "vkyc_status"
	FieldCoreNonCore     = "core_non_core"
	FieldVKYCEligible    = "vkyc_eligible"
	FieldRejectionReason = "rejection_reason"
	FieldState           = "state"
	FieldProduct         = "product"
	FieldApplicationDate = "application_date"
)

// TargetFields lists every mappable target field.
var TargetFields = []string{
	FieldApplicationID,
	FieldBlazeOutput,
	FieldLoginStatus,
	FieldFinalStatus,
	FieldLastUpdatedDate,
	FieldVKYCStatus,
	FieldCoreNonCore,
	FieldVKYCEligible,
	FieldRejectionReason,
	FieldState,
	FieldProduct,
	FieldApplicationDate,
}

// RequiredTargetFields must all be covered by a column mapping before any row
// of a file is processed.
var RequiredTargetFields = []string{
	FieldApplicationID,
	FieldBlazeOutput,
	FieldLoginStatus,
	FieldFinalStatus,
	FieldLastUpdatedDate,
	FieldVKYCStatus,
	FieldCoreNonCore,
}

// ColumnMapping maps a source column header to one of the target fields.
type ColumnMapping map[string]string

// MissingRequired returns the required target fields the mapping does not
// cover, in the order of RequiredTargetFields.
func (m ColumnMapping) MissingRequired() []string {
	mapped := make(map[string]bool, len(m))
	for _, target := range m {
		mapped[target] = true
	}
	var missing []string
	for _, target := range RequiredTargetFields {
		if !mapped[target] {
			missing = append(missing, target)
		}
	}
	return missing
}

// MappedRow is one MIS file row after column mapping: target field name to
// raw cell value. RowNumber is 1-based and counts the header row, matching
// what an analyst sees in the source spreadsheet.
type MappedRow struct {
	RowNumber int               `json:"row_number"`
	Fields    map[string]string `json:"fields"`
}

// Field returns the raw cell value mapped to the given target field, or ""
// when the file carried no such column.
func (r MappedRow) Field(target string) string {
	return r.Fields[target]
}

func (r MappedRow) ApplicationID() string   { return r.Fields[FieldApplicationID] }
func (r MappedRow) BlazeOutput() string     { return r.Fields[FieldBlazeOutput] }
func (r MappedRow) LoginStatus() string     { return r.Fields[FieldLoginStatus] }
func (r MappedRow) FinalStatus() string     { return r.Fields[FieldFinalStatus] }
func (r MappedRow) VKYCStatus() string      { return r.Fields[FieldVKYCStatus] }
func (r MappedRow) CoreNonCore() string     { return r.Fields[FieldCoreNonCore] }
func (r MappedRow) LastUpdatedDate() string { return r.Fields[FieldLastUpdatedDate] }
func (r MappedRow) ApplicationDate() string { return r.Fields[FieldApplicationDate] }

// RowError reports a row excluded from a batch by row-level validation.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// StoredRecord is the persisted state of one application: the latest accepted
// raw fields plus the derived classification columns. Month is derived once
// at first insert and copied forward on every update, never recomputed.
type StoredRecord struct {
	ID              int64     `json:"-"`
	ApplicationID   string    `json:"application_id"`
	BlazeOutput     string    `json:"blaze_output"`
	LoginStatus     string    `json:"login_status"`
	FinalStatus     string    `json:"final_status"`
	VKYCStatus      string    `json:"vkyc_status"`
	CoreNonCore     string    `json:"core_non_core"`
	VKYCEligible    string    `json:"vkyc_eligible"`
	RejectionReason string    `json:"rejection_reason"`
	State           string    `json:"state"`
	Product         string    `json:"product"`
	ApplicationDate string    `json:"application_date"`
	LastUpdatedDate string    `json:"last_updated_date"`
	LeadQuality     string    `json:"lead_quality"`
	KYCCompleted    bool      `json:"kyc_completed"`
	VKYCDone        bool      `json:"vkyc_done"`
	CardApproved    bool      `json:"card_approved"`
	Month           string    `json:"month"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// DefaultedFields names raw fields that were empty in the source file and
	// had to be defaulted. Not persisted as a column; the commit stage turns
	// each entry into a pending-resolution conflict log row.
	DefaultedFields []string `json:"-"`
}

// FieldValue returns the stored raw value for a mapped target field name.
func (r *StoredRecord) FieldValue(target string) string {
	switch target {
	case FieldApplicationID:
		return r.ApplicationID
	case FieldBlazeOutput:
		return r.BlazeOutput
	case FieldLoginStatus:
		return r.LoginStatus
	case FieldFinalStatus:
		return r.FinalStatus
	case FieldLastUpdatedDate:
		return r.LastUpdatedDate
	case FieldVKYCStatus:
		return r.VKYCStatus
	case FieldCoreNonCore:
		return r.CoreNonCore
	case FieldVKYCEligible:
		return r.VKYCEligible
	case FieldRejectionReason:
		return r.RejectionReason
	case FieldState:
		return r.State
	case FieldProduct:
		return r.Product
	case FieldApplicationDate:
		return r.ApplicationDate
	}
	return ""
}

// SetField writes a raw value into the column a target field maps to.
// Unknown targets are ignored.
func (r *StoredRecord) SetField(target, value string) {
	switch target {
	case FieldApplicationID:
		r.ApplicationID = value
	case FieldBlazeOutput:
		r.BlazeOutput = value
	case FieldLoginStatus:
		r.LoginStatus = value
	case FieldFinalStatus:
		r.FinalStatus = value
	case FieldLastUpdatedDate:
		r.LastUpdatedDate = value
	case FieldVKYCStatus:
		r.VKYCStatus = value
	case FieldCoreNonCore:
		r.CoreNonCore = value
	case FieldVKYCEligible:
		r.VKYCEligible = value
	case FieldRejectionReason:
		r.RejectionReason = value
	case FieldState:
		r.State = value
	case FieldProduct:
		r.Product = value
	case FieldApplicationDate:
		r.ApplicationDate = value
	}
}

// Clone returns a shallow copy safe to mutate during diffing.
func (r *StoredRecord) Clone() *StoredRecord {
	c := *r
	c.DefaultedFields = append([]string(nil), r.DefaultedFields...)
	return &c
}
