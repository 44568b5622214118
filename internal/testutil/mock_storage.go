// Package testutil holds fakes shared by package tests.
package testutil

import (
	"anonrelay/backend/internal/models"
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) UpsertUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStorage) IsBanned(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) RecordMessage(ctx context.Context, userID int64, anonID string, content models.Content) (uint, error) {
	args := m.Called(ctx, userID, anonID, content)
	return args.Get(0).(uint), args.Error(1)
}

func (m *MockStorage) FindPendingByAnonID(ctx context.Context, anonID string) (*models.Message, error) {
	args := m.Called(ctx, anonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) MarkReplied(ctx context.Context, anonID, response string) error {
	args := m.Called(ctx, anonID, response)
	return args.Error(0)
}

func (m *MockStorage) MarkDone(ctx context.Context, anonID string) error {
	args := m.Called(ctx, anonID)
	return args.Error(0)
}

func (m *MockStorage) BanUser(ctx context.Context, userID int64, reason string) error {
	args := m.Called(ctx, userID, reason)
	return args.Error(0)
}

func (m *MockStorage) AnonIDInUse(ctx context.Context, anonID string) (bool, error) {
	args := m.Called(ctx, anonID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) ListPending(ctx context.Context, limit int) ([]models.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}
