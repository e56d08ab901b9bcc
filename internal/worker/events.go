package worker

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"taxdoc/apps/processor/internal/extract"
)

const (
	EventS3Upload           = "s3_upload"
	EventExternalUpload     = "external_upload"
	EventExternalDataUpdate = "external_data_update"
)

// Envelope is the queue message shape. event_type discriminates which of
// the type-specific fields carry meaning.
type Envelope struct {
	EventType string `json:"event_type"`

	// s3_upload
	BucketName string `json:"bucket_name,omitempty"`
	ObjectKey  string `json:"object_key,omitempty"`
	EventName  string `json:"event_name,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`

	// external_upload
	JobID string `json:"job_id,omitempty"`
	S3URL string `json:"s3_url,omitempty"`

	// external_data_update
	W2Data *extract.W2Fields `json:"w2_data,omitempty"`

	CorrelationID string `json:"correlation_id,omitempty"`
}

func knownEventType(t string) bool {
	switch t {
	case EventS3Upload, EventExternalUpload, EventExternalDataUpdate:
		return true
	}
	return false
}

// ErrBadObjectKey marks a storage key that cannot be split into
// {prefix}/{job_id}/{filename}. Permanently malformed, never retried.
var ErrBadObjectKey = errors.New("malformed object key")

// ObjectKey is a parsed storage key.
type ObjectKey struct {
	JobID    string
	Filename string
	Key      string // decoded full key
}

// ParseObjectKey URL-decodes a storage key (with '+' as space, matching how
// storage notifications encode keys) and splits it into job id and filename.
func ParseObjectKey(raw, prefix string) (ObjectKey, error) {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return ObjectKey{}, fmt.Errorf("%w: %q", ErrBadObjectKey, raw)
	}

	parts := strings.Split(decoded, "/")
	if len(parts) < 3 || parts[0] != prefix || parts[1] == "" || parts[2] == "" {
		return ObjectKey{}, fmt.Errorf("%w: %q", ErrBadObjectKey, decoded)
	}

	return ObjectKey{JobID: parts[1], Filename: parts[2], Key: decoded}, nil
}
