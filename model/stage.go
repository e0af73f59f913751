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

// JourneyStage is the ordinal progress marker of a card application. A higher
// rank is always a later state, never a worse one. Ranks are deliberately
// spaced out so a new intermediate stage can be added without renumbering
// everything downstream of it.
type JourneyStage int

const (
	StageNew            JourneyStage = 0
	StageIPA            JourneyStage = 10
	StageDedupePass     JourneyStage = 20
	StageBureauPass     JourneyStage = 30
	StageVKYCEligible   JourneyStage = 40
	StageVKYCInitiated  JourneyStage = 50
	StageVKYCAttempted  JourneyStage = 55
	StageVKYCRejected   JourneyStage = 60
	StageVKYCApproved   JourneyStage = 65
	StageLogin          JourneyStage = 70
	StageUnderwriting   JourneyStage = 80
	StageSanctioned     JourneyStage = 85
	StageApproved       JourneyStage = 90
	StageDisbursed      JourneyStage = 95
	StageCardDispatched JourneyStage = 96
	StageFinalReject    JourneyStage = 100
)

// StageOrder lists every stage in ascending rank. Code that needs "all stages
// in order" iterates this slice instead of relying on declaration order.
var StageOrder = []JourneyStage{
	StageNew,
	StageIPA,
	StageDedupePass,
	StageBureauPass,
	StageVKYCEligible,
	StageVKYCInitiated,
	StageVKYCAttempted,
	StageVKYCRejected,
	StageVKYCApproved,
	StageLogin,
	StageUnderwriting,
	StageSanctioned,
	StageApproved,
	StageDisbursed,
	StageCardDispatched,
	StageFinalReject,
}

var stageNames = map[JourneyStage]string{
	StageNew:            "NEW",
	StageIPA:            "IPA",
	StageDedupePass:     "DEDUPE_PASS",
	StageBureauPass:     "BUREAU_PASS",
	StageVKYCEligible:   "VKYC_ELIGIBLE",
	StageVKYCInitiated:  "VKYC_INITIATED",
	StageVKYCAttempted:  "VKYC_ATTEMPTED",
	StageVKYCRejected:   "VKYC_REJECTED",
	StageVKYCApproved:   "VKYC_APPROVED",
	StageLogin:          "LOGIN",
	StageUnderwriting:   "UNDERWRITING",
	StageSanctioned:     "SANCTIONED",
	StageApproved:       "APPROVED",
	StageDisbursed:      "DISBURSED",
	StageCardDispatched: "CARD_DISPATCHED",
	StageFinalReject:    "FINAL_REJECT",
}

// terminalStages holds the stages after which a stored record is frozen. Once
// a record reaches one of these, no incoming row may mutate it again.
var terminalStages = map[JourneyStage]bool{
	StageApproved:       true,
	StageDisbursed:      true,
	StageCardDispatched: true,
	StageFinalReject:    true,
}

func (s JourneyStage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Rank returns the stage's integer rank, the key used for ordering guards.
func (s JourneyStage) Rank() int {
	return int(s)
}

// IsTerminal reports whether the stage freezes the stored record.
func (s JourneyStage) IsTerminal() bool {
	return terminalStages[s]
}
