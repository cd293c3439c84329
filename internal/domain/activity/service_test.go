package activity_test

import (
	"context"
	"testing"

	"github.com/datalens-ai/lens/internal/domain/activity"
	"github.com/datalens-ai/lens/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_AppendValidation(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	svc := activity.NewService(repo, nil)

	err := svc.Append(ctx, nil)
	require.ErrorIs(t, err, activity.ErrInvalidInput)

	err = svc.Append(ctx, &activity.Entry{Summary: "no type"})
	require.ErrorIs(t, err, activity.ErrInvalidInput)
}

func TestActivityService_AppendSetsTimestamp(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	repo.On("Append", ctx, mock.MatchedBy(func(e *activity.Entry) bool {
		return e.Type == activity.TypeLogin && !e.CreatedAt.IsZero()
	})).Return(nil)

	svc := activity.NewService(repo, nil)
	err := svc.Append(ctx, &activity.Entry{Type: activity.TypeLogin, Summary: "signed in"})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestActivityService_RecordSwallowsErrors(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	repo.On("Append", ctx, mock.Anything).Return(context.DeadlineExceeded)

	svc := activity.NewService(repo, nil)
	// Must not panic or propagate.
	svc.Record(ctx, activity.TypeProjectCreated, "created project")
	repo.AssertExpectations(t)
}

func TestActivityService_RecentDefaultLimit(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	repo.On("Recent", ctx, 20).Return([]activity.Entry{{ID: 1}}, nil)

	svc := activity.NewService(repo, nil)
	entries, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	repo.AssertExpectations(t)
}
