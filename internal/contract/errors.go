package contract

import (
	"errors"
	"fmt"
	"slices"
)

// Error kinds. Callers classify failures with errors.Is.
var (
	// ErrConfig marks bad or missing configuration and artifacts. Fatal at startup.
	ErrConfig = errors.New("config error")

	// ErrInsufficientData marks too few readings to proceed. The caller waits for more data.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrFeedRead marks a transient failure reading the feed. Retried on the next poll.
	ErrFeedRead = errors.New("feed read error")

	// ErrModelInference marks an unusable model output. The affected window is skipped.
	ErrModelInference = errors.New("model inference error")

	// ErrAlertDelivery marks a failed alert delivery. Logged and swallowed.
	ErrAlertDelivery = errors.New("alert delivery error")
)

// ConfigErrorf wraps a formatted message with ErrConfig.
func ConfigErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// InsufficientDataf wraps a formatted message with ErrInsufficientData.
func InsufficientDataf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, fmt.Sprintf(format, args...))
}

// FeedReadErrorf wraps a formatted message with ErrFeedRead.
func FeedReadErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFeedRead, fmt.Sprintf(format, args...))
}

// InferenceError reports the windows of a batch whose scores could not be computed.
type InferenceError struct {
	Indices []int // positions in the scored slice, ascending
	Err     error // first underlying cause
}

// Error implements the error interface.
func (e *InferenceError) Error() string {
	return fmt.Sprintf("%v: %d window(s) failed: %v", ErrModelInference, len(e.Indices), e.Err)
}

// Unwrap lets errors.Is match both ErrModelInference and the underlying cause.
func (e *InferenceError) Unwrap() []error {
	return []error{ErrModelInference, e.Err}
}

// Failed reports whether the window at index i failed.
func (e *InferenceError) Failed(i int) bool {
	_, found := slices.BinarySearch(e.Indices, i)
	return found
}
