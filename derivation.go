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
	"strings"

	"github.com/ankitarsangwan-bit/misrecon/model"
)

// LeadQuality classifies an application by its risk-engine output. Derived
// once from blaze_output and frozen after first derivation.
type LeadQuality string

const (
	QualityGood     LeadQuality = "Good"
	QualityAverage  LeadQuality = "Average"
	QualityRejected LeadQuality = "Rejected"
)

// normalize trims and upper-cases a raw MIS cell value. Every string rule in
// this package compares normalized values.
func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// DeriveLeadQuality maps a raw blaze_output value to a lead quality. An empty
// value is treated as STPK (the bureau-pass output), so unmapped values
// default to Good.
//
// This is the single authoritative quality rule. An older reporting path used
// a strict whitelist that sent unmapped values to a "Blank" bucket; that
// variant breaks the quality-sum invariant against this one and must not be
// reintroduced at any call site.
func DeriveLeadQuality(blazeOutput string) LeadQuality {
	out := normalize(blazeOutput)
	if out == "" {
		out = "STPK"
	}
	switch out {
	case "STPT", "STPI":
		return QualityAverage
	case "REJECT":
		return QualityRejected
	default:
		return QualityGood
	}
}

// IsVkycDone reports whether video KYC reached a terminal outcome. Both
// approval and rejection count as done; only pending and dropped states do
// not.
func IsVkycDone(vkycStatus string) bool {
	switch normalize(vkycStatus) {
	case "APPROVED", "REJECTED":
		return true
	}
	return false
}

// IsKycCompleted applies the KYC completion rules to a record's raw fields.
// A record is complete when any of the following holds:
//
//  1. the bank recorded a login (LOGIN or LOGIN 26),
//  2. video KYC reached a terminal outcome,
//  3. the application is non-core (cannot complete KYC digitally; deemed
//     closed),
//  4. a final status other than IPA was recorded.
//
// rejectionReason is accepted for call-site compatibility with the MIS
// column set and never influences the result.
func IsKycCompleted(loginStatus, finalStatus, vkycStatus, coreNonCore, rejectionReason string) bool {
	_ = rejectionReason

	switch normalize(loginStatus) {
	case "LOGIN", "LOGIN 26":
		return true
	}
	if IsVkycDone(vkycStatus) {
		return true
	}
	if normalize(coreNonCore) == "NON-CORE" {
		return true
	}
	if fs := normalize(finalStatus); fs != "" && fs != "IPA" {
		return true
	}
	return false
}

// cardApprovedOutcomes are the post-KYC final statuses that count as an
// approved card, matched as substrings of the normalized final status.
var cardApprovedOutcomes = []string{"APPROVED", "DISBURSED", "CARD DISPATCHED", "SANCTIONED"}

// IsCardApproved reports whether the final status carries any approved-card
// outcome.
func IsCardApproved(finalStatus string) bool {
	fs := normalize(finalStatus)
	for _, outcome := range cardApprovedOutcomes {
		if strings.Contains(fs, outcome) {
			return true
		}
	}
	return false
}

// ConflictResolution pairs the fixed resolution note for a conflict type with
// the KYC outcome that resolution implies.
type ConflictResolution struct {
	Resolution   string
	KYCCompleted bool
}

// conflictResolutions is a lookup table, not computed logic: each known
// contradiction resolves the same way every time.
var conflictResolutions = map[model.ConflictType]ConflictResolution{
	model.ConflictLoginIPA: {
		Resolution:   "login recorded while final status still IPA; login takes precedence, KYC treated as done",
		KYCCompleted: true,
	},
	model.ConflictPostKYCNoLogin: {
		Resolution:   "post-KYC final outcome recorded without a login; final outcome takes precedence, KYC treated as done",
		KYCCompleted: true,
	},
	model.ConflictRejectWithLogin: {
		Resolution:   "risk engine rejected but a login was recorded; login takes precedence, KYC treated as done",
		KYCCompleted: true,
	},
}

// DetectConflict classifies contradictory raw signals on one record. Returns
// the empty conflict type when no known contradiction matches.
func DetectConflict(loginStatus, finalStatus, blazeOutput string) model.ConflictType {
	hasLogin := strings.Contains(normalize(loginStatus), "LOGIN")
	finalIPA := normalize(finalStatus) == "IPA"

	if hasLogin && finalIPA {
		return model.ConflictLoginIPA
	}
	if !hasLogin && IsCardApproved(finalStatus) {
		return model.ConflictPostKYCNoLogin
	}
	if hasLogin && DeriveLeadQuality(blazeOutput) == QualityRejected {
		return model.ConflictRejectWithLogin
	}
	return ""
}

// ResolveConflict returns the fixed resolution policy for a conflict type.
func ResolveConflict(t model.ConflictType) (ConflictResolution, bool) {
	resolution, ok := conflictResolutions[t]
	return resolution, ok
}
