package worker

import (
	"context"

	"taxdoc/apps/processor/internal/extract"
)

// JobUpdater applies partial updates to a job record through the
// record-keeping API.
type JobUpdater interface {
	Update(ctx context.Context, jobID string, update JobUpdate) error
}

// Extractor pulls structured W-2 fields out of a stored document.
type Extractor interface {
	Extract(ctx context.Context, ref extract.ObjectRef) (*extract.W2Fields, error)
}

// Gateway performs the authenticated calls to the two external ingestion
// APIs.
type Gateway interface {
	SubmitUpload(ctx context.Context, s3URL, jobID string) (fileID string, err error)
	SubmitData(ctx context.Context, fields *extract.W2Fields, jobID string) (reportID, fileID string, err error)
}

// TaskPublisher publishes follow-on events back onto the queue.
type TaskPublisher interface {
	Publish(topic string, body []byte) error
}
