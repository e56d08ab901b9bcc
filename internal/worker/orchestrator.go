package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"taxdoc/apps/processor/internal/config"
	"taxdoc/apps/processor/internal/extract"
)

// Orchestrator owns the state machine for a single job: it sequences phase
// transitions, invokes extraction and the external gateway, and records
// outcomes on the job record.
type Orchestrator struct {
	jobs      JobUpdater
	extractor Extractor
	gateway   Gateway
}

func NewOrchestrator(jobs JobUpdater, extractor Extractor, gateway Gateway) *Orchestrator {
	return &Orchestrator{jobs: jobs, extractor: extractor, gateway: gateway}
}

// HandleS3Upload runs the upload-received phase: confirm the stored object
// on the job record, extract and validate the W-2 fields, and stage the two
// external phases as follow-on events.
//
// Extraction and validation failures are recorded on the job and then
// surfaced as retryable, so the queue redelivers the whole phase.
func (o *Orchestrator) HandleS3Upload(ctx context.Context, key ObjectKey, bucket, correlationID string) Outcome {
	if err := o.jobs.Update(ctx, key.JobID, JobUpdate{
		Filename:     ptr(key.Filename),
		FileUploaded: ptr(true),
	}); err != nil {
		return Retryable(fmt.Errorf("mark uploaded: %w", err))
	}

	ref := extract.ObjectRef{Bucket: bucket, Key: key.Key}
	fields, err := o.extractor.Extract(ctx, ref)
	if err != nil {
		slog.ErrorContext(ctx, "extraction failed", "job_id", key.JobID, "error", err)
		msg := err.Error()
		if uerr := o.jobs.Update(ctx, key.JobID, JobUpdate{
			ExtractionStatus:  ptr(ExtractionFailed),
			ExtractionMessage: &msg,
		}); uerr != nil {
			slog.ErrorContext(ctx, "failed to record extraction failure", "job_id", key.JobID, "error", uerr)
		}
		return Retryable(err)
	}

	if err := o.jobs.Update(ctx, key.JobID, JobUpdate{
		Status:            ptr(StatusSuccess),
		ExtractionStatus:  ptr(ExtractionSuccess),
		ExtractionMessage: ptr("w2 data extracted"),
		W2Data:            fields,
	}); err != nil {
		return Retryable(fmt.Errorf("persist extracted fields: %w", err))
	}

	slog.InfoContext(ctx, "extraction completed", "job_id", key.JobID, "filename", key.Filename)

	s3URL := fmt.Sprintf("s3://%s/%s", bucket, key.Key)
	uploadEvent, err := json.Marshal(Envelope{
		EventType:     EventExternalUpload,
		JobID:         key.JobID,
		S3URL:         s3URL,
		CorrelationID: correlationID,
	})
	if err != nil {
		return Retryable(fmt.Errorf("marshal external_upload event: %w", err))
	}
	dataEvent, err := json.Marshal(Envelope{
		EventType:     EventExternalDataUpdate,
		JobID:         key.JobID,
		W2Data:        fields,
		CorrelationID: correlationID,
	})
	if err != nil {
		return Retryable(fmt.Errorf("marshal external_data_update event: %w", err))
	}

	return Succeeded(
		FollowOn{Topic: config.TopicJobEvents, Body: uploadEvent},
		FollowOn{Topic: config.TopicJobEvents, Body: dataEvent},
	)
}

// HandleExternalUpload runs the file-ingestion phase. Gateway or
// record-write failures are recorded on the job and reported as permanent
// for this attempt; the queue's redrive policy owns any further retries.
// Setting the completion flag is an idempotent field-set, safe to re-run.
func (o *Orchestrator) HandleExternalUpload(ctx context.Context, jobID, s3URL string) Outcome {
	fileID, err := o.gateway.SubmitUpload(ctx, s3URL, jobID)
	if err != nil {
		slog.ErrorContext(ctx, "external upload failed", "job_id", jobID, "error", err)
		return o.recordExternalFailure(ctx, jobID, fmt.Sprintf("external upload failed: %v", err), err)
	}

	if err := o.jobs.Update(ctx, jobID, JobUpdate{
		ExternalUploadDone: ptr(true),
		ExtractionStatus:   ptr(ExtractionSuccess),
		ExtractionMessage:  ptr(fmt.Sprintf("external upload confirmed, file_id=%s", fileID)),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to record external upload result", "job_id", jobID, "error", err)
		return o.recordExternalFailure(ctx, jobID, fmt.Sprintf("recording external upload result failed: %v", err), err)
	}

	slog.InfoContext(ctx, "external upload completed", "job_id", jobID, "file_id", fileID)
	return Succeeded()
}

// HandleExternalDataUpdate runs the data-ingestion phase, symmetric to
// HandleExternalUpload.
func (o *Orchestrator) HandleExternalDataUpdate(ctx context.Context, jobID string, fields *extract.W2Fields) Outcome {
	reportID, fileID, err := o.gateway.SubmitData(ctx, fields, jobID)
	if err != nil {
		slog.ErrorContext(ctx, "external data update failed", "job_id", jobID, "error", err)
		return o.recordExternalFailure(ctx, jobID, fmt.Sprintf("external data update failed: %v", err), err)
	}

	if err := o.jobs.Update(ctx, jobID, JobUpdate{
		ExternalDataUpdateDone: ptr(true),
		ExtractionStatus:       ptr(ExtractionSuccess),
		ExtractionMessage:      ptr(fmt.Sprintf("external data update confirmed, report_id=%s", reportID)),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to record external data update result", "job_id", jobID, "error", err)
		return o.recordExternalFailure(ctx, jobID, fmt.Sprintf("recording external data update result failed: %v", err), err)
	}

	slog.InfoContext(ctx, "external data update completed", "job_id", jobID, "report_id", reportID, "file_id", fileID)
	return Succeeded()
}

func (o *Orchestrator) recordExternalFailure(ctx context.Context, jobID, msg string, cause error) Outcome {
	if err := o.jobs.Update(ctx, jobID, JobUpdate{
		ExtractionStatus:  ptr(ExtractionFailed),
		ExtractionMessage: &msg,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to record phase failure", "job_id", jobID, "error", err)
	}
	return Permanent(cause)
}
