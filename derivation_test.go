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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankitarsangwan-bit/misrecon/model"
)

func TestDeriveLeadQuality(t *testing.T) {
	tests := []struct {
		blazeOutput string
		want        LeadQuality
	}{
		{"STPK", QualityGood},
		{"stpk", QualityGood},
		{"STPT", QualityAverage},
		{"STPI", QualityAverage},
		{"REJECT", QualityRejected},
		{" reject ", QualityRejected},
		{"", QualityGood},             // empty defaults to STPK
		{"SOMETHING_NEW", QualityGood}, // unmapped values are Good, never a fourth bucket
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveLeadQuality(tt.blazeOutput), "blaze_output %q", tt.blazeOutput)
	}
}

func TestIsVkycDone(t *testing.T) {
	assert.True(t, IsVkycDone("APPROVED"))
	assert.True(t, IsVkycDone("rejected"), "rejection is a terminal outcome too")
	assert.False(t, IsVkycDone("PENDING"))
	assert.False(t, IsVkycDone("ATTEMPTED"))
	assert.False(t, IsVkycDone(""))
}

func TestIsKycCompleted(t *testing.T) {
	tests := []struct {
		name        string
		loginStatus string
		finalStatus string
		vkycStatus  string
		coreNonCore string
		want        bool
	}{
		{"login recorded", "LOGIN", "IPA", "", "Core", true},
		{"login 26 variant", "LOGIN 26", "IPA", "", "Core", true},
		{"vkyc approved", "", "IPA", "APPROVED", "Core", true},
		{"vkyc rejected still counts", "", "IPA", "REJECTED", "Core", true},
		{"non-core deemed closed", "", "IPA", "", "Non-Core", true},
		{"final status beyond IPA", "", "SANCTIONED", "", "Core", true},
		{"nothing completed", "", "IPA", "PENDING", "Core", false},
		{"all empty", "", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsKycCompleted(tt.loginStatus, tt.finalStatus, tt.vkycStatus, tt.coreNonCore, "")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsCardApproved(t *testing.T) {
	assert.True(t, IsCardApproved("APPROVED"))
	assert.True(t, IsCardApproved("CARD DISPATCHED"))
	assert.True(t, IsCardApproved("DISBURSED"))
	assert.True(t, IsCardApproved("SANCTIONED - PENDING DISPATCH"))
	assert.False(t, IsCardApproved("IPA"))
	assert.False(t, IsCardApproved("REJECTED"))
	assert.False(t, IsCardApproved(""))
}

func TestDetectConflict(t *testing.T) {
	tests := []struct {
		name        string
		loginStatus string
		finalStatus string
		blazeOutput string
		want        model.ConflictType
	}{
		{"login while final still IPA", "LOGIN", "IPA", "STPK", model.ConflictLoginIPA},
		{"post-KYC outcome without login", "", "DISBURSED", "STPK", model.ConflictPostKYCNoLogin},
		{"risk reject but login recorded", "LOGIN", "SANCTIONED", "REJECT", model.ConflictRejectWithLogin},
		{"no contradiction", "LOGIN", "SANCTIONED", "STPK", ""},
		{"nothing recorded", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectConflict(tt.loginStatus, tt.finalStatus, tt.blazeOutput))
		})
	}
}

func TestResolveConflict_EveryDetectableTypeHasAPolicy(t *testing.T) {
	for _, conflictType := range []model.ConflictType{
		model.ConflictLoginIPA,
		model.ConflictPostKYCNoLogin,
		model.ConflictRejectWithLogin,
	} {
		resolution, ok := ResolveConflict(conflictType)
		require.True(t, ok, "conflict type %s must resolve", conflictType)
		assert.True(t, resolution.KYCCompleted, "every known contradiction resolves with KYC done")
		assert.NotEmpty(t, resolution.Resolution)
	}

	_, ok := ResolveConflict("SOMETHING_ELSE")
	assert.False(t, ok)
}

func TestQualitySumInvariant(t *testing.T) {
	// Every possible blaze_output lands in exactly one of the three buckets,
	// so bucket counts always sum to the total.
	inputs := []string{"STPK", "STPT", "STPI", "REJECT", "", "UNKNOWN", "stpt", " reject "}
	counts := map[LeadQuality]int{}
	for _, in := range inputs {
		counts[DeriveLeadQuality(in)]++
	}
	assert.Equal(t, len(inputs), counts[QualityGood]+counts[QualityAverage]+counts[QualityRejected])
}
