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
	"errors"

	"github.com/ankitarsangwan-bit/misrecon/model"
)

func rowStage(r model.MappedRow) model.JourneyStage {
	return CalculateJourneyStage(r.FinalStatus(), r.LoginStatus(), r.VKYCStatus(), r.BlazeOutput())
}

// SelectBestRecord collapses multiple rows for the same application within
// one MIS file into the single row that represents it. A strictly higher
// journey stage always wins; on a stage tie the later row wins when its date
// is equal or newer than the current survivor's. The left-to-right fold and
// its tie-break are part of the contract: re-running the same file must pick
// the same survivor.
//
// Calling this with an empty slice is a programmer error and returns an
// error rather than a zero row.
func SelectBestRecord(rows []model.MappedRow) (model.MappedRow, error) {
	if len(rows) == 0 {
		return model.MappedRow{}, errors.New("SelectBestRecord: no rows given")
	}
	best := rows[0]
	bestStage := rowStage(best)
	for _, candidate := range rows[1:] {
		candidateStage := rowStage(candidate)
		switch {
		case candidateStage > bestStage:
			best, bestStage = candidate, candidateStage
		case candidateStage == bestStage && IsNewerOrEqual(candidate.LastUpdatedDate(), best.LastUpdatedDate()):
			best = candidate
		}
	}
	return best, nil
}
