package extraction

import (
	"errors"
	"fmt"
)

// Sentinel errors for extraction operations.
var (
	// ErrInvalidInput rejects a contract violation before any model call:
	// an empty schema, an empty document, or a feedback/prior-result pairing
	// mismatch. Never retried.
	ErrInvalidInput = errors.New("invalid extraction input")

	// ErrExtractionFailed is the class matched by errors.Is for any
	// ExtractionError.
	ErrExtractionFailed = errors.New("extraction failed")
)

// ExtractionError reports an engine failure (capability unavailable, timeout,
// response malformed beyond per-field coercion) with its underlying cause.
type ExtractionError struct {
	Stage string // "complete", "parse", "decode"
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed during %s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is matches ErrExtractionFailed so callers can class-check without knowing
// the stage.
func (e *ExtractionError) Is(target error) bool { return target == ErrExtractionFailed }
