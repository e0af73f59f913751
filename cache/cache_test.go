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

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankitarsangwan-bit/misrecon/model"
)

func testCache(t *testing.T) *RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := newRedisCache([]string{"redis://" + mr.Addr()})
	require.NoError(t, err)
	return c
}

func TestCache_ReportRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := testCache(t)

	report := model.LeadQualityReport{Good: 3, Average: 1, Rejected: 1, Total: 5}
	require.NoError(t, c.Set(ctx, "reports:lead-quality", report, 5*time.Minute))

	var got model.LeadQualityReport
	require.NoError(t, c.Get(ctx, "reports:lead-quality", &got))
	assert.Equal(t, report, got)
}

func TestCache_MissLeavesTargetUntouched(t *testing.T) {
	ctx := context.Background()
	c := testCache(t)

	var got model.LeadQualityReport
	require.NoError(t, c.Get(ctx, "reports:kyc", &got), "a miss is not an error")
	assert.Zero(t, got.Total)
}

func TestCache_DeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	c := testCache(t)

	report := model.KYCReport{Completed: 2, Pending: 1, Total: 3}
	require.NoError(t, c.Set(ctx, "reports:kyc", report, 5*time.Minute))
	require.NoError(t, c.Delete(ctx, "reports:kyc"))

	var got model.KYCReport
	require.NoError(t, c.Get(ctx, "reports:kyc", &got))
	assert.Zero(t, got.Total, "deleted key reads as a miss")
}
