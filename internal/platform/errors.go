package platform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failed interaction with the commerce platform.
type ErrorKind string

const (
	// ErrTransport covers network, DNS, and timeout failures. Retryable.
	ErrTransport ErrorKind = "transport"
	// ErrRejected covers platform-side validation failures. Not retryable
	// without changing the input.
	ErrRejected ErrorKind = "rejected"
	// ErrMalformedResponse covers responses missing the expected shape.
	// Signals contract drift with the platform.
	ErrMalformedResponse ErrorKind = "malformed_response"
	// ErrRateLimited covers throttling signals. Retryable with backoff.
	ErrRateLimited ErrorKind = "rate_limited"
	// ErrResolutionTimeout is returned when an asset is still processing
	// after the retry budget is exhausted. The caller may retry later.
	ErrResolutionTimeout ErrorKind = "resolution_timeout"
)

// UserError is one field-level validation error reported by the platform.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func (u UserError) String() string {
	if len(u.Field) == 0 {
		return u.Message
	}
	return fmt.Sprintf("%s: %s", strings.Join(u.Field, "."), u.Message)
}

// Error is the failure type for every platform call.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Details []UserError
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && len(e.Details) > 0 {
		parts := make([]string, len(e.Details))
		for i, d := range e.Details {
			parts[i] = d.String()
		}
		msg = strings.Join(parts, "; ")
	}
	if e.Err != nil {
		if msg == "" {
			return fmt.Sprintf("platform %s: %s: %v", e.Op, e.Kind, e.Err)
		}
		return fmt.Sprintf("platform %s: %s: %s: %v", e.Op, e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("platform %s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a platform Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// Kind returns the classification of err, or empty for non-platform errors.
func Kind(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
