package worker

import "taxdoc/apps/processor/internal/extract"

// Coarse job lifecycle. Status success marks the extraction milestone; the
// external phases are tracked by their own flags (see Done).
const (
	StatusStarted = "started"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

const (
	ExtractionSuccess = "success"
	ExtractionFailed  = "failed"
)

// JobRecord is a read snapshot of a job held by the record-keeping API.
// This service never creates or deletes jobs, it only patches them.
type JobRecord struct {
	JobID                  string            `json:"job_id"`
	Filename               string            `json:"filename"`
	FileUploaded           bool              `json:"file_uploaded"`
	Status                 string            `json:"status"`
	ExtractionStatus       string            `json:"extraction_status"`
	ExtractionMessage      string            `json:"extraction_message"`
	ExternalUploadDone     bool              `json:"external_upload_done"`
	ExternalDataUpdateDone bool              `json:"external_data_update_done"`
	W2Data                 *extract.W2Fields `json:"w2_data,omitempty"`
}

// JobUpdate is a partial update; only set (non-nil) fields go on the wire,
// so concurrent handlers touching disjoint fields never conflict.
type JobUpdate struct {
	Filename               *string           `json:"filename,omitempty"`
	FileUploaded           *bool             `json:"file_uploaded,omitempty"`
	Status                 *string           `json:"status,omitempty"`
	ExtractionStatus       *string           `json:"extraction_status,omitempty"`
	ExtractionMessage      *string           `json:"extraction_message,omitempty"`
	ExternalUploadDone     *bool             `json:"external_upload_done,omitempty"`
	ExternalDataUpdateDone *bool             `json:"external_data_update_done,omitempty"`
	W2Data                 *extract.W2Fields `json:"w2_data,omitempty"`
}

func ptr[T any](v T) *T { return &v }
