package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
	ErrToolLoop        = errors.New("tool loop did not converge")
)

// ErrSessionEnded is returned to callers that address a session after it was closed.
var ErrSessionEnded = errors.New("session has ended")
