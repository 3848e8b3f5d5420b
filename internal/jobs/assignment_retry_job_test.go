package jobs_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReader struct{ mock.Mock }

func (m *MockReader) Handle(ctx context.Context, q queries.GetAssignableOrdersQuery) ([]queries.GetAssignableOrdersQueryResponse, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queries.GetAssignableOrdersQueryResponse), args.Error(1)
}

type MockAssigner struct{ mock.Mock }

func (m *MockAssigner) Handle(ctx context.Context, cmd commands.AssignCourierCommand) (commands.AssignCourierResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.AssignCourierResult), args.Error(1)
}

func forOrder(id kernel.UUID) any {
	return mock.MatchedBy(func(cmd commands.AssignCourierCommand) bool {
		return cmd.OrderID().IsEqual(id)
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func pendingOrders(n int) []queries.GetAssignableOrdersQueryResponse {
	out := make([]queries.GetAssignableOrdersQueryResponse, n)
	for i := range out {
		out[i] = queries.GetAssignableOrdersQueryResponse{
			ID:        kernel.NewUUID(),
			StoreID:   kernel.NewUUID(),
			Status:    "pending",
			CreatedAt: time.Date(2025, 3, 14, 12, i, 0, 0, time.UTC),
		}
	}
	return out
}

func TestAssignmentRetryJob_RunOnceCountsOutcomes(t *testing.T) {
	reader := &MockReader{}
	assigner := &MockAssigner{}
	pending := pendingOrders(3)

	reader.On("Handle", mock.Anything, mock.MatchedBy(func(q queries.GetAssignableOrdersQuery) bool {
		return q.Limit() == 10
	})).Return(pending, nil)
	assigner.On("Handle", mock.Anything, forOrder(pending[0].ID)).
		Return(commands.AssignCourierResult{Assigned: true, OrderID: pending[0].ID}, nil)
	assigner.On("Handle", mock.Anything, forOrder(pending[1].ID)).
		Return(commands.AssignCourierResult{OrderID: pending[1].ID}, nil)
	assigner.On("Handle", mock.Anything, forOrder(pending[2].ID)).
		Return(commands.AssignCourierResult{}, errors.New("version conflict"))

	job := jobs.NewAssignmentRetryJob(reader, assigner, "", 10, discardLogger())
	report, err := job.RunOnce(t.Context())

	require.NoError(t, err)
	assert.Equal(t, jobs.RetryReport{Scanned: 3, Assigned: 1, Failed: 1}, report)
	assigner.AssertNumberOfCalls(t, "Handle", 3)
}

func TestAssignmentRetryJob_RunOnceStopsOnListingError(t *testing.T) {
	reader := &MockReader{}
	assigner := &MockAssigner{}
	dbDown := errors.New("connection refused")
	reader.On("Handle", mock.Anything, mock.Anything).Return(nil, dbDown)

	_, err := jobs.NewAssignmentRetryJob(reader, assigner, "", 0, discardLogger()).RunOnce(t.Context())

	require.ErrorIs(t, err, dbDown)
	assigner.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestAssignmentRetryJob_RunOnceHonoursCancellation(t *testing.T) {
	reader := &MockReader{}
	assigner := &MockAssigner{}
	pending := pendingOrders(2)
	ctx, cancel := context.WithCancel(t.Context())

	reader.On("Handle", mock.Anything, mock.Anything).Return(pending, nil)
	assigner.On("Handle", mock.Anything, forOrder(pending[0].ID)).
		Run(func(mock.Arguments) { cancel() }).
		Return(commands.AssignCourierResult{}, nil)

	report, err := jobs.NewAssignmentRetryJob(reader, assigner, "", 0, discardLogger()).RunOnce(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, report.Scanned)
	assigner.AssertNumberOfCalls(t, "Handle", 1)
}

func TestAssignmentRetryJob_InvalidSchedule(t *testing.T) {
	job := jobs.NewAssignmentRetryJob(&MockReader{}, &MockAssigner{}, "not a schedule", 0, discardLogger())

	manager := jobs.NewJobManager(job)
	err := manager.StartAll()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "assignment_retry")
}

func TestAssignmentRetryJob_StartAndStop(t *testing.T) {
	reader := &MockReader{}
	reader.On("Handle", mock.Anything, mock.Anything).Return([]queries.GetAssignableOrdersQueryResponse{}, nil).Maybe()
	job := jobs.NewAssignmentRetryJob(reader, &MockAssigner{}, "@every 1h", 0, discardLogger())

	manager := jobs.NewJobManager(job)
	require.NoError(t, manager.StartAll())
	manager.StopAll()
}
