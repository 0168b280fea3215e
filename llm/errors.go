package llm

import "fmt"

// FailureReason classifies why an extraction attempt failed. There are no
// retries: every reason is terminal for the invocation.
type FailureReason string

const (
	// ReasonCredentials covers a missing or rejected API key.
	ReasonCredentials FailureReason = "credentials"
	// ReasonNetwork covers transport failures before a backend reply.
	ReasonNetwork FailureReason = "network"
	// ReasonBackend covers non-success replies from the model service.
	ReasonBackend FailureReason = "backend"
	// ReasonDecode covers replies that are not parseable JSON.
	ReasonDecode FailureReason = "decode"
	// ReasonSchema covers parseable JSON that violates the schema.
	ReasonSchema FailureReason = "schema"
)

// ExtractionError is the typed failure of one extraction attempt.
type ExtractionError struct {
	Reason  FailureReason
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed (%s): %s: %v", e.Reason, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction failed (%s): %s", e.Reason, e.Message)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

func failf(reason FailureReason, cause error, format string, args ...any) *ExtractionError {
	return &ExtractionError{
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}
