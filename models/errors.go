package models

import "fmt"

// FetchError wraps a failed upstream fetch with a technical message, a
// separate user-facing message, and whether the retry policy applies.
type FetchError struct {
	Op          string // "prpc", "credits", "geo"
	Message     string // technical detail, for logs
	UserMessage string // safe to surface to a dashboard banner
	Retryable   bool
	Err         error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewRetryableError marks a transport failure or 5xx that the caller's
// retry loop may attempt again.
func NewRetryableError(op, message, userMessage string, err error) *FetchError {
	return &FetchError{Op: op, Message: message, UserMessage: userMessage, Retryable: true, Err: err}
}

// NewPermanentError marks a 4xx, RPC-level error, or parse failure that
// propagates immediately.
func NewPermanentError(op, message, userMessage string, err error) *FetchError {
	return &FetchError{Op: op, Message: message, UserMessage: userMessage, Retryable: false, Err: err}
}

func errMissingField(field string) error {
	return fmt.Errorf("response missing required field '%s'", field)
}
