package extract

import "fmt"

// Reason classifies a ValidationError.
type Reason string

const (
	ReasonMissing   Reason = "missing"
	ReasonMediaType Reason = "media-type"
	ReasonTooLarge  Reason = "too-large"
)

// ValidationError is returned when the upload itself is unacceptable. The
// Message is safe to show to the user.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("extract: invalid upload (%s): %s", e.Reason, e.Message)
}

// ExtractionError is returned when the document could not be opened at all.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract: failed to read PDF: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
