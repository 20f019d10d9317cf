package batch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInput is returned when there are no operations to submit.
	ErrEmptyInput = errors.New("no operations to submit")

	// ErrSessionNotReady is returned when no signing session is available.
	ErrSessionNotReady = errors.New("signing session not ready")

	// ErrRunInProgress is returned when Run is invoked while another run is
	// still active on the same orchestrator.
	ErrRunInProgress = errors.New("batch run already in progress")

	// ErrInvalidCeiling is returned for batch ceilings below 1.
	ErrInvalidCeiling = errors.New("batch ceiling must be at least 1")
)

// FieldError is one validation violation, addressed by request index and
// field name so callers can display all problems at once.
type FieldError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("request %d, %s: %s", e.Index, e.Field, e.Message)
}

// ValidationError carries the complete list of violations found in a request
// list. It is never partial: validation inspects every request before failing.
type ValidationError struct {
	Violations []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("%d invalid operation(s): %s", len(e.Violations), strings.Join(msgs, "; "))
}
