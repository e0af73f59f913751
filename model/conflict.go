package model

import "time"

// ConflictType classifies contradictory raw signals on a single record.
type ConflictType string

const (
	ConflictLoginIPA        ConflictType = "LOGIN_IPA_CONFLICT"
	ConflictPostKYCNoLogin  ConflictType = "POST_KYC_NO_LOGIN"
	ConflictRejectWithLogin ConflictType = "REJECT_WITH_LOGIN"
)

// ConflictEntry is one append-only row in the conflict log. Field-level
// overwrites produce one entry per changed field; defaulted empty inputs
// produce a Pending entry awaiting manual resolution.
type ConflictEntry struct {
	ID            int64     `json:"-"`
	RunID         string    `json:"run_id"`
	ApplicationID string    `json:"application_id"`
	Field         string    `json:"field"`
	OldValue      string    `json:"old_value"`
	NewValue      string    `json:"new_value"`
	Resolution    string    `json:"resolution"`
	Pending       bool      `json:"pending"`
	CreatedAt     time.Time `json:"created_at"`
}
