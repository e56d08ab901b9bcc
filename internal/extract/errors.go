package extract

import "fmt"

// ExtractionError reports that the source document could not be retrieved
// or parsed. The caller decides retry policy; the engine never panics.
type ExtractionError struct {
	Stage string // fetch, spool, form-fields, render
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed at %s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ValidationError identifies the first missing or semantically invalid field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid w2 data: %s %s", e.Field, e.Reason)
}
