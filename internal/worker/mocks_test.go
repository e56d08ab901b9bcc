package worker_test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"taxdoc/apps/processor/features/failedevent"
	"taxdoc/apps/processor/internal/audit"
	"taxdoc/apps/processor/internal/extract"
	"taxdoc/apps/processor/internal/worker"
)

// Mocks

type MockJobUpdater struct{ mock.Mock }

func (m *MockJobUpdater) Update(ctx context.Context, jobID string, update worker.JobUpdate) error {
	args := m.Called(ctx, jobID, update)
	return args.Error(0)
}

type MockExtractor struct{ mock.Mock }

func (m *MockExtractor) Extract(ctx context.Context, ref extract.ObjectRef) (*extract.W2Fields, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*extract.W2Fields), args.Error(1)
}

type MockGateway struct{ mock.Mock }

func (m *MockGateway) SubmitUpload(ctx context.Context, s3URL, jobID string) (string, error) {
	args := m.Called(ctx, s3URL, jobID)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) SubmitData(ctx context.Context, fields *extract.W2Fields, jobID string) (string, string, error) {
	args := m.Called(ctx, fields, jobID)
	return args.String(0), args.String(1), args.Error(2)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

type MockDeadLetterRepo struct{ mock.Mock }

func (m *MockDeadLetterRepo) Save(ctx context.Context, ev *failedevent.FailedEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
func (m *MockDeadLetterRepo) List(ctx context.Context) ([]failedevent.FailedEvent, error) {
	return nil, nil
}
func (m *MockDeadLetterRepo) Get(ctx context.Context, id string) (*failedevent.FailedEvent, error) {
	return nil, nil
}
func (m *MockDeadLetterRepo) Delete(ctx context.Context, id string) error { return nil }
func (m *MockDeadLetterRepo) Count(ctx context.Context) (int, error)      { return 0, nil }

func discardAudit() *audit.Logger {
	return audit.NewLogger(io.Discard)
}
