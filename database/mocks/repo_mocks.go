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
package mocks

import (
	"context"

	"github.com/ankitarsangwan-bit/misrecon/model"
	"github.com/stretchr/testify/mock"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Application record methods

func (m *MockDataSource) InsertApplicationRecord(ctx context.Context, record *model.StoredRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockDataSource) UpdateApplicationRecord(ctx context.Context, record *model.StoredRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockDataSource) GetApplicationRecord(ctx context.Context, applicationID string) (*model.StoredRecord, error) {
	args := m.Called(ctx, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredRecord), args.Error(1)
}

func (m *MockDataSource) GetApplicationRecordsPaginated(ctx context.Context, batchSize int, offset int64) ([]*model.StoredRecord, error) {
	args := m.Called(ctx, batchSize, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.StoredRecord), args.Error(1)
}

// MIS row methods

func (m *MockDataSource) RecordMISRow(ctx context.Context, uploadID string, row model.MappedRow) error {
	args := m.Called(ctx, uploadID, row)
	return args.Error(0)
}

func (m *MockDataSource) GetMISRowsPaginated(ctx context.Context, uploadID string, batchSize int, offset int64) ([]model.MappedRow, error) {
	args := m.Called(ctx, uploadID, batchSize, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MappedRow), args.Error(1)
}

// Reconciliation run methods

func (m *MockDataSource) RecordReconciliationRun(ctx context.Context, run *model.ReconciliationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockDataSource) GetReconciliationRun(ctx context.Context, runID string) (*model.ReconciliationRun, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReconciliationRun), args.Error(1)
}

func (m *MockDataSource) UpdateReconciliationRunStatus(ctx context.Context, runID, status string, counts *model.RunCounts) error {
	args := m.Called(ctx, runID, status, counts)
	return args.Error(0)
}

// Conflict log methods

func (m *MockDataSource) RecordConflict(ctx context.Context, entry *model.ConflictEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockDataSource) GetPendingConflicts(ctx context.Context, batchSize int, offset int64) ([]*model.ConflictEntry, error) {
	args := m.Called(ctx, batchSize, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ConflictEntry), args.Error(1)
}
