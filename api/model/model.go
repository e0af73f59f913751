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

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// StartReconciliation is the request body for starting or previewing a
// reconciliation run over a staged upload.
type StartReconciliation struct {
	UploadID string `json:"upload_id"`
	DryRun   bool   `json:"dry_run"`
}

func (r *StartReconciliation) ValidateStartReconciliation() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UploadID, validation.Required),
	)
}

// SuggestMapping is the request body for deriving a column mapping from a
// set of source file headers.
type SuggestMapping struct {
	Headers []string `json:"headers"`
}

func (r *SuggestMapping) ValidateSuggestMapping() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Headers, validation.Required, validation.Length(1, 0)),
	)
}
