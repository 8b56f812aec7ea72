package domain

import "errors"

// ErrValidation is matched by every input validation error in this package.
var ErrValidation = errors.New("validation failed")

var (
	// ErrEmptyClassName is returned when the class name is empty or whitespace.
	ErrEmptyClassName = newValidationError("class name cannot be empty")

	// ErrInvalidThreshold is returned when the threshold is not an integer in [0,100].
	ErrInvalidThreshold = newValidationError("threshold percentage must be an integer between 0 and 100")

	// ErrDelimiterInField is returned when a job field contains the queue record delimiter.
	ErrDelimiterInField = newValidationError("job fields cannot contain the '|' delimiter")

	// ErrInvalidCorrelationID is returned for unparsable or all-zero correlation IDs.
	ErrInvalidCorrelationID = newValidationError("invalid correlation ID")
)

var (
	// ErrLookupFailed is returned when the artifact store cannot be listed.
	// It is never reported as an absent result.
	ErrLookupFailed = errors.New("result artifact store is currently unavailable")

	// ErrRateLimitExceeded is returned when API rate limit is hit.
	ErrRateLimitExceeded = errors.New("rate limit exceeded, try again later")
)

type validationError struct {
	msg string
}

func newValidationError(msg string) error {
	return &validationError{msg: msg}
}

func (e *validationError) Error() string { return e.msg }

// Is lets errors.Is(err, ErrValidation) match any validation error.
func (e *validationError) Is(target error) bool {
	return target == ErrValidation
}
