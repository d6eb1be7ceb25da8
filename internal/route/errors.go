package route

import "fmt"

// MissingFieldError reports a required field absent from a record. During
// batch normalization it is caught and the record skipped; when normalizing
// a single admin-submitted payload it propagates to the caller.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// MalformedRecordError reports a raw record with no recognizable coordinate
// fields under any dialect. The record is skipped; the batch continues.
type MalformedRecordError struct {
	Index int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("record at index %d has no recognizable coordinate fields", e.Index)
}
