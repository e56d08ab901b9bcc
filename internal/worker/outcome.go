package worker

// Disposition classifies how the dispatcher concludes a message: success
// publishes follow-on events, a retryable failure is surfaced to the queue
// for redelivery, a permanent failure goes to the dead-letter store.
type Disposition int

const (
	Success Disposition = iota
	RetryableFailure
	PermanentFailure
)

func (d Disposition) String() string {
	switch d {
	case Success:
		return "success"
	case RetryableFailure:
		return "retryable_failure"
	case PermanentFailure:
		return "permanent_failure"
	}
	return "unknown"
}

// FollowOn is an event to publish once the current phase has succeeded.
type FollowOn struct {
	Topic string
	Body  []byte
}

// Outcome is the uniform result of a phase handler.
type Outcome struct {
	Disposition Disposition
	Err         error
	FollowOn    []FollowOn
}

func Succeeded(followOn ...FollowOn) Outcome {
	return Outcome{Disposition: Success, FollowOn: followOn}
}

func Retryable(err error) Outcome {
	return Outcome{Disposition: RetryableFailure, Err: err}
}

func Permanent(err error) Outcome {
	return Outcome{Disposition: PermanentFailure, Err: err}
}
