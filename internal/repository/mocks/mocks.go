package mocks

import (
	"context"

	"github.com/datalens-ai/lens/internal/domain/activity"
	"github.com/stretchr/testify/mock"
)

// StateRepository is a mock for repository.StateRepository.
type StateRepository struct {
	mock.Mock
}

func (m *StateRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *StateRepository) Put(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *StateRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Append(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) Recent(ctx context.Context, limit int) ([]activity.Entry, error) {
	args := m.Called(ctx, limit)
	if entries, ok := args.Get(0).([]activity.Entry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}
