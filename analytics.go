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
	"context"
	"time"

	"github.com/ankitarsangwan-bit/misrecon/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// reportCacheTTL bounds how stale a cached report can get even if an
// invalidation is missed.
const reportCacheTTL = 5 * time.Minute

const (
	leadQualityCacheKey = "misrecon:reports:lead_quality"
	kycReportCacheKey   = "misrecon:reports:kyc"
	stageFunnelCacheKey = "misrecon:reports:funnel"
)

// GetLeadQualityReport buckets every stored application by lead quality. The
// quality is re-derived from the raw blaze output, not read from the stored
// column, so the report can never drift from what the pipeline would decide.
func (s *Misrecon) GetLeadQualityReport(ctx context.Context) (*model.LeadQualityReport, error) {
	var cached model.LeadQualityReport
	if hit, err := s.reportFromCache(ctx, leadQualityCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	report := &model.LeadQualityReport{}
	err := s.walkStoredRecords(ctx, func(record *model.StoredRecord) {
		switch DeriveLeadQuality(record.BlazeOutput) {
		case QualityGood:
			report.Good++
		case QualityAverage:
			report.Average++
		case QualityRejected:
			report.Rejected++
		}
		report.Total++
	})
	if err != nil {
		return nil, err
	}

	s.cacheReport(ctx, leadQualityCacheKey, report)
	return report, nil
}

// GetKYCReport summarizes KYC completion across stored applications, again
// re-deriving every flag from the raw fields.
func (s *Misrecon) GetKYCReport(ctx context.Context) (*model.KYCReport, error) {
	var cached model.KYCReport
	if hit, err := s.reportFromCache(ctx, kycReportCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	report := &model.KYCReport{}
	err := s.walkStoredRecords(ctx, func(record *model.StoredRecord) {
		report.Total++
		if IsKycCompleted(record.LoginStatus, record.FinalStatus, record.VKYCStatus, record.CoreNonCore, record.RejectionReason) {
			report.Completed++
		} else {
			report.Pending++
		}
		if IsVkycDone(record.VKYCStatus) {
			report.VKYCDone++
		}
		if IsCardApproved(record.FinalStatus) {
			report.CardApproved++
		}
	})
	if err != nil {
		return nil, err
	}
	if report.Total > 0 {
		report.CompletionRate = float64(report.Completed) / float64(report.Total)
	}

	s.cacheReport(ctx, kycReportCacheKey, report)
	return report, nil
}

// GetStageFunnelReport computes the journey funnel: for each stage in rank
// order, how many applications sit at it and how many have reached at least
// its rank. Stages are recomputed from the raw status fields.
func (s *Misrecon) GetStageFunnelReport(ctx context.Context) (*model.StageFunnelReport, error) {
	var cached model.StageFunnelReport
	if hit, err := s.reportFromCache(ctx, stageFunnelCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	at := make(map[model.JourneyStage]int)
	total := 0
	err := s.walkStoredRecords(ctx, func(record *model.StoredRecord) {
		stage := CalculateJourneyStage(record.FinalStatus, record.LoginStatus, record.VKYCStatus, record.BlazeOutput)
		at[stage]++
		total++
	})
	if err != nil {
		return nil, err
	}

	report := &model.StageFunnelReport{Total: total}
	for _, stage := range model.StageOrder {
		reached := 0
		for other, count := range at {
			if other.Rank() >= stage.Rank() {
				reached += count
			}
		}
		report.Stages = append(report.Stages, model.FunnelStage{
			Stage:   stage.String(),
			Rank:    stage.Rank(),
			At:      at[stage],
			Reached: reached,
		})
	}

	s.cacheReport(ctx, stageFunnelCacheKey, report)
	return report, nil
}

// GetApplicationRecord returns one stored application by its id.
func (s *Misrecon) GetApplicationRecord(ctx context.Context, applicationID string) (*model.StoredRecord, error) {
	return s.datasource.GetApplicationRecord(ctx, applicationID)
}

// walkStoredRecords drains the stored-record table page by page, applying fn
// to every record.
func (s *Misrecon) walkStoredRecords(ctx context.Context, fn func(*model.StoredRecord)) error {
	for offset := int64(0); ; offset += lookupBatchSize {
		page, err := s.datasource.GetApplicationRecordsPaginated(ctx, lookupBatchSize, offset)
		if err != nil {
			return errors.Wrap(err, "fetching stored records")
		}
		for _, record := range page {
			fn(record)
		}
		if len(page) < lookupBatchSize {
			return nil
		}
	}
}

// reportFromCache reports whether key held a usable cached report. Cache
// failures degrade to a recompute, never to an error.
func (s *Misrecon) reportFromCache(ctx context.Context, key string, out interface{}) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	if err := s.cache.Get(ctx, key, out); err != nil {
		logrus.Warnf("report cache read for %s failed: %v", key, err)
		return false, err
	}
	// A miss leaves out untouched; an empty report means nothing was cached.
	switch v := out.(type) {
	case *model.LeadQualityReport:
		return v.Total > 0, nil
	case *model.KYCReport:
		return v.Total > 0, nil
	case *model.StageFunnelReport:
		return len(v.Stages) > 0, nil
	}
	return false, nil
}

func (s *Misrecon) cacheReport(ctx context.Context, key string, report interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, report, reportCacheTTL); err != nil {
		logrus.Warnf("report cache write for %s failed: %v", key, err)
	}
}

// invalidateReports drops every cached report. Called after a committed run;
// dry runs change nothing and leave the cache alone.
func (s *Misrecon) invalidateReports(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, key := range []string{leadQualityCacheKey, kycReportCacheKey, stageFunnelCacheKey} {
		if err := s.cache.Delete(ctx, key); err != nil {
			logrus.Warnf("report cache invalidation for %s failed: %v", key, err)
		}
	}
}
