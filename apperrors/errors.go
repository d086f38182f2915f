// apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrTemplateNotFound = errors.New("template not found or inactive")
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrScheduleInactive = errors.New("schedule is inactive")
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrJobNotFound      = errors.New("job not found")

	// ErrExecutionSkipped means another run under the same key is in flight.
	ErrExecutionSkipped = errors.New("execution already in progress")
)

// ValidationError rejects a schedule or template at the admin boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// TriggerBuildError means a persisted schedule could not be turned into a
// runtime trigger. The schedule stays unregistered until it is corrected.
type TriggerBuildError struct {
	ScheduleID uuid.UUID
	Err        error
}

func (e *TriggerBuildError) Error() string {
	return fmt.Sprintf("schedule %s: cannot build trigger: %v", e.ScheduleID, e.Err)
}

func (e *TriggerBuildError) Unwrap() error {
	return e.Err
}

// SendError is a per-recipient delivery failure. It never aborts a batch.
type SendError struct {
	Phone string
	Err   error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to %s failed: %v", e.Phone, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is one of the lookup sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrCampaignNotFound) ||
		errors.Is(err, ErrJobNotFound)
}
