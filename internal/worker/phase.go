package worker

// Phase is the derived position of a job in the pipeline. The record store
// exposes independent boolean flags; the enumeration is computed from the
// full flag set, never stored or read back from the coarse status field.
type Phase int

const (
	PhaseReceived Phase = iota
	PhaseUploaded
	PhaseExtracted
	PhaseExternalPending
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseReceived:
		return "received"
	case PhaseUploaded:
		return "uploaded"
	case PhaseExtracted:
		return "extracted"
	case PhaseExternalPending:
		return "external_pending"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// PhaseOf derives the phase from a job snapshot.
func PhaseOf(r JobRecord) Phase {
	switch {
	case r.Status == StatusFailed || r.ExtractionStatus == ExtractionFailed:
		return PhaseFailed
	case r.ExternalUploadDone && r.ExternalDataUpdateDone:
		return PhaseCompleted
	case r.ExtractionStatus == ExtractionSuccess:
		if r.ExternalUploadDone || r.ExternalDataUpdateDone {
			return PhaseExternalPending
		}
		return PhaseExtracted
	case r.FileUploaded:
		return PhaseUploaded
	default:
		return PhaseReceived
	}
}

// Done reports whether every phase of the pipeline has completed for a job.
// status=success only marks the extraction milestone, so completion is
// computed from the flags alone.
func Done(r JobRecord) bool {
	return r.FileUploaded &&
		r.ExtractionStatus == ExtractionSuccess &&
		r.ExternalUploadDone &&
		r.ExternalDataUpdateDone
}
