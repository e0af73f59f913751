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
	"time"
)

// dateLayout is the canonical storage form for every date-like MIS value.
const dateLayout = "2006-01-02"

// monthLayout is the reporting-month form frozen on a record at first insert.
const monthLayout = "2006-01"

// misDateFormats is the ordered list of layouts bank extracts have been seen
// to carry. The canonical layout comes first so normalizing twice is a no-op.
// The numeric day-first layouts are fixed by position in this list; ambiguous
// values are never re-interpreted by magnitude, so a day and month can never
// silently swap.
var misDateFormats = []string{
	dateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02/01/2006",
	"02-Jan-2006",
	"02-Jan-06",
	"2006/01/02",
}

// ParseMISDate parses a date-like MIS string against the known layouts.
func ParseMISDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	for _, layout := range misDateFormats {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}

// NormalizeDate canonicalizes a date-like string to YYYY-MM-DD. Idempotent:
// normalizing an already-normalized value returns it unchanged.
func NormalizeDate(s string) (string, error) {
	t, err := ParseMISDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(dateLayout), nil
}

// MonthOf derives the reporting month (YYYY-MM) of a record from its
// application date, falling back to its last-updated date. The caller freezes
// the result at first insert; it is never recomputed on update.
func MonthOf(applicationDate, lastUpdatedDate string) string {
	if t, err := ParseMISDate(applicationDate); err == nil {
		return t.Format(monthLayout)
	}
	if t, err := ParseMISDate(lastUpdatedDate); err == nil {
		return t.Format(monthLayout)
	}
	return ""
}
