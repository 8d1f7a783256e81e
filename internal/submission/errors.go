package submission

import (
	"errors"
	"strings"
)

// Sentinel errors returned by Service.Submit.
var (
	// ErrNotConfigured is returned when no webhook URL is configured. It is an
	// operator problem; callers should get a generic message.
	ErrNotConfigured = errors.New("submission: downstream webhook not configured")

	// ErrDownstreamUnreachable is returned when the payload could not be
	// delivered. Callers may retry.
	ErrDownstreamUnreachable = errors.New("submission: downstream unreachable")

	// ErrDownstreamRejected is returned in strict mode when the webhook answers
	// with anything other than 200 or 201.
	ErrDownstreamRejected = errors.New("submission: downstream rejected submission")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
