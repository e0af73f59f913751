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

// statusFields carries the four normalized raw signals the journey stage is
// computed from.
type statusFields struct {
	finalStatus string
	loginStatus string
	vkycStatus  string
	blazeOutput string
}

// stageRule pairs a predicate with the stage it yields.
type stageRule struct {
	name    string
	matches func(statusFields) bool
	stage   model.JourneyStage
}

func vkycIn(f statusFields, values ...string) bool {
	for _, v := range values {
		if f.vkycStatus == v {
			return true
		}
	}
	return false
}

// stageRules is evaluated top to bottom and the first match returns
// immediately. The ordering IS the algorithm: a rejected application counts
// as FINAL_REJECT only when KYC was at least attempted, otherwise it falls
// through to whatever lower stage its other fields support.
var stageRules = []stageRule{
	{"disbursed", func(f statusFields) bool {
		return strings.Contains(f.finalStatus, "DISBURSED")
	}, model.StageDisbursed},

	{"card dispatched", func(f statusFields) bool {
		return strings.Contains(f.finalStatus, "CARD DISPATCH")
	}, model.StageCardDispatched},

	{"approved", func(f statusFields) bool {
		return strings.Contains(f.finalStatus, "APPROVED")
	}, model.StageApproved},

	{"rejected after KYC attempt", func(f statusFields) bool {
		rejected := strings.Contains(f.finalStatus, "REJECTED") || f.finalStatus == "DECLINED"
		kycTouched := strings.Contains(f.loginStatus, "LOGIN") ||
			vkycIn(f, "APPROVED", "REJECTED", "HARD_ACCEPT", "HARD_REJECT")
		return rejected && kycTouched
	}, model.StageFinalReject},

	{"sanctioned", func(f statusFields) bool {
		return strings.Contains(f.finalStatus, "SANCTION")
	}, model.StageSanctioned},

	{"underwriting", func(f statusFields) bool {
		return f.finalStatus == "LOGGED" || strings.Contains(f.finalStatus, "UNDERWRITING")
	}, model.StageUnderwriting},

	{"login", func(f statusFields) bool {
		return strings.Contains(f.loginStatus, "LOGIN")
	}, model.StageLogin},

	{"vkyc approved", func(f statusFields) bool {
		return vkycIn(f, "APPROVED", "HARD_ACCEPT")
	}, model.StageVKYCApproved},

	{"vkyc rejected", func(f statusFields) bool {
		return vkycIn(f, "REJECTED", "HARD_REJECT")
	}, model.StageVKYCRejected},

	{"vkyc attempted", func(f statusFields) bool {
		return vkycIn(f, "ATTEMPTED", "IN_PROGRESS")
	}, model.StageVKYCAttempted},

	{"vkyc initiated", func(f statusFields) bool {
		return vkycIn(f, "INITIATED", "PENDING")
	}, model.StageVKYCInitiated},

	{"vkyc eligible", func(f statusFields) bool {
		return f.vkycStatus != "" && !vkycIn(f, "NOT_ELIGIBLE", "DROPOFF", "DROPPED")
	}, model.StageVKYCEligible},

	{"bureau pass", func(f statusFields) bool {
		return f.blazeOutput == "STPK"
	}, model.StageBureauPass},

	{"dedupe pass", func(f statusFields) bool {
		return f.blazeOutput == "STPT" || f.blazeOutput == "STPI" || f.blazeOutput == "REJECT"
	}, model.StageDedupePass},

	{"ipa", func(f statusFields) bool {
		return f.finalStatus == "IPA"
	}, model.StageIPA},
}

// CalculateJourneyStage maps a record's raw status fields to the single
// ordinal stage its application has reached. Deterministic and total; any
// record no rule claims is NEW.
func CalculateJourneyStage(finalStatus, loginStatus, vkycStatus, blazeOutput string) model.JourneyStage {
	f := statusFields{
		finalStatus: normalize(finalStatus),
		loginStatus: normalize(loginStatus),
		vkycStatus:  normalize(vkycStatus),
		blazeOutput: normalize(blazeOutput),
	}
	for _, rule := range stageRules {
		if rule.matches(f) {
			return rule.stage
		}
	}
	return model.StageNew
}
