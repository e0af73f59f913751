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
	"fmt"
	"strings"

	"github.com/ankitarsangwan-bit/misrecon/model"
	"github.com/sirupsen/logrus"
)

// IsTerminalStage reports whether a stage freezes the stored record.
func IsTerminalStage(stage model.JourneyStage) bool {
	return stage.IsTerminal()
}

// IsTransitionAllowed reports whether a record at current may move to next.
// Terminal stages never move. Equal ranks are allowed so re-ingesting the
// same extract stays idempotent.
func IsTransitionAllowed(current, next model.JourneyStage) bool {
	if current.IsTerminal() {
		return false
	}
	return next >= current
}

// IsNewerOrEqual compares the temporal ordering keys of an incoming and an
// existing record. No stored date means the first write wins unconditionally.
// An incoming record without a date, or with one no known layout parses,
// cannot be validated and is rejected (fail-closed).
func IsNewerOrEqual(incomingDate, existingDate string) bool {
	if strings.TrimSpace(existingDate) == "" {
		return true
	}
	if strings.TrimSpace(incomingDate) == "" {
		return false
	}
	incoming, err := ParseMISDate(incomingDate)
	if err != nil {
		logrus.Warnf("rejecting row with unparseable incoming date %q: %v", incomingDate, err)
		return false
	}
	existing, err := ParseMISDate(existingDate)
	if err != nil {
		logrus.Warnf("rejecting row because stored date %q is unparseable: %v", existingDate, err)
		return false
	}
	return !incoming.Before(existing)
}

// ShouldUpdateRecord decides whether an incoming MIS row may overwrite its
// stored record. The gates run in strict order and each is a hard stop:
//
//  1. terminal guard: a record frozen at a terminal stage never mutates,
//     even for a newer date;
//  2. temporal guard: a stale or unverifiable date is rejected before the
//     stages are compared;
//  3. stage guard: a backward journey move on a live record is rejected.
//
// Anything that passes all three is an accepted (possibly same-stage)
// transition.
func ShouldUpdateRecord(incoming model.MappedRow, existing *model.StoredRecord) model.UpdateDecision {
	decision := model.UpdateDecision{
		IncomingStage: CalculateJourneyStage(incoming.FinalStatus(), incoming.LoginStatus(), incoming.VKYCStatus(), incoming.BlazeOutput()),
		ExistingStage: CalculateJourneyStage(existing.FinalStatus, existing.LoginStatus, existing.VKYCStatus, existing.BlazeOutput),
	}

	if decision.ExistingStage.IsTerminal() {
		decision.Reason = fmt.Sprintf("record frozen at terminal stage %s", decision.ExistingStage)
		return decision
	}

	if !IsNewerOrEqual(incoming.LastUpdatedDate(), existing.LastUpdatedDate) {
		decision.Reason = fmt.Sprintf("stale incoming record: last_updated_date %q is older than stored %q",
			incoming.LastUpdatedDate(), existing.LastUpdatedDate)
		return decision
	}

	if !IsTransitionAllowed(decision.ExistingStage, decision.IncomingStage) {
		decision.Reason = fmt.Sprintf("backward journey transition %s -> %s rejected",
			decision.ExistingStage, decision.IncomingStage)
		return decision
	}

	decision.ShouldUpdate = true
	decision.Reason = fmt.Sprintf("stage transition %s -> %s", decision.ExistingStage, decision.IncomingStage)
	return decision
}
