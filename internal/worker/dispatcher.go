package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"taxdoc/apps/processor/features/failedevent"
	"taxdoc/apps/processor/internal/audit"
	"taxdoc/apps/processor/internal/extract"
	"taxdoc/apps/processor/internal/middleware"
)

var errMissingFields = errors.New("missing required event fields")

// Dispatcher is the queue-facing entry point: it decodes inbound messages,
// classifies the event type, routes to the matching orchestrator handler,
// and applies the outcome policy (publish follow-ons, surface for
// redelivery, or dead-letter).
type Dispatcher struct {
	orch         *Orchestrator
	publisher    TaskPublisher
	deadLetters  failedevent.Repository
	audit        *audit.Logger
	uploadPrefix string
}

func NewDispatcher(orch *Orchestrator, pub TaskPublisher, deadLetters failedevent.Repository, auditLog *audit.Logger, uploadPrefix string) *Dispatcher {
	return &Dispatcher{
		orch:         orch,
		publisher:    pub,
		deadLetters:  deadLetters,
		audit:        auditLog,
		uploadPrefix: uploadPrefix,
	}
}

func (d *Dispatcher) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var ev Envelope
	if err := json.Unmarshal(m.Body, &ev); err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	correlationID := ev.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	ctx := middleware.WithCorrelationID(context.Background(), correlationID)

	eventType := ev.EventType
	if !knownEventType(eventType) {
		// Backward compatibility: early producers sent bare storage
		// notifications without a discriminator.
		slog.WarnContext(ctx, "missing or unknown event_type, assuming s3_upload", "event_type", ev.EventType)
		eventType = EventS3Upload
	}

	start := time.Now()
	outcome := d.route(ctx, eventType, ev, correlationID)

	jobID := ev.JobID
	if jobID == "" {
		if key, err := ParseObjectKey(ev.ObjectKey, d.uploadPrefix); err == nil {
			jobID = key.JobID
		}
	}

	entry := audit.Entry{
		JobID:         jobID,
		EventType:     eventType,
		Outcome:       outcome.Disposition.String(),
		Duration:      time.Since(start),
		CorrelationID: correlationID,
	}
	if outcome.Err != nil {
		entry.Error = outcome.Err.Error()
	}
	d.audit.Log(entry)

	switch outcome.Disposition {
	case RetryableFailure:
		return outcome.Err // surface to NSQ for redelivery
	case PermanentFailure:
		d.deadLetter(ctx, eventType, jobID, m.Body, outcome.Err)
		return nil
	}

	for _, f := range outcome.FollowOn {
		if err := d.publisher.Publish(f.Topic, f.Body); err != nil {
			slog.ErrorContext(ctx, "failed to publish follow-on event", "topic", f.Topic, "error", err)
			return err // Durable: fail so the phase is redelivered
		}
	}
	if len(outcome.FollowOn) > 0 {
		slog.InfoContext(ctx, "published follow-on events", "count", len(outcome.FollowOn))
	}

	return nil
}

func (d *Dispatcher) route(ctx context.Context, eventType string, ev Envelope, correlationID string) Outcome {
	switch eventType {
	case EventS3Upload:
		key, err := ParseObjectKey(ev.ObjectKey, d.uploadPrefix)
		if err != nil {
			slog.ErrorContext(ctx, "bad object key format", "object_key", ev.ObjectKey, "error", err)
			return Permanent(err)
		}
		slog.InfoContext(ctx, "processing upload event",
			"job_id", key.JobID, "bucket", ev.BucketName, "filename", key.Filename, "event_name", ev.EventName)
		return d.orch.HandleS3Upload(ctx, key, ev.BucketName, correlationID)

	case EventExternalUpload:
		if ev.JobID == "" || ev.S3URL == "" {
			slog.ErrorContext(ctx, "dropping external_upload event with missing fields", "job_id", ev.JobID)
			return Permanent(errMissingFields)
		}
		return d.orch.HandleExternalUpload(ctx, ev.JobID, ev.S3URL)

	case EventExternalDataUpdate:
		if ev.JobID == "" || ev.W2Data == nil {
			slog.ErrorContext(ctx, "dropping external_data_update event with missing fields", "job_id", ev.JobID)
			return Permanent(errMissingFields)
		}
		if err := extract.Validate(ev.W2Data); err != nil {
			slog.ErrorContext(ctx, "dropping external_data_update event with invalid fields", "job_id", ev.JobID, "error", err)
			return Permanent(err)
		}
		return d.orch.HandleExternalDataUpdate(ctx, ev.JobID, ev.W2Data)
	}

	// unreachable: knownEventType guards routing
	return Permanent(errMissingFields)
}

func (d *Dispatcher) deadLetter(ctx context.Context, eventType, jobID string, body []byte, cause error) {
	ev := &failedevent.FailedEvent{
		JobID:     jobID,
		EventType: eventType,
		Payload:   body,
	}
	if cause != nil {
		ev.Error = cause.Error()
	}

	if err := d.deadLetters.Save(ctx, ev); err != nil {
		// Don't fail the message over a dead-letter write; the failure is
		// already recorded on the job and in the audit log.
		slog.ErrorContext(ctx, "failed to save dead-lettered event", "error", err, "job_id", jobID)
		return
	}
	slog.InfoContext(ctx, "dead-lettered event", "id", ev.ID, "job_id", jobID, "event_type", eventType)
}
