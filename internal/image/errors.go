package image

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned by Validate and Generate when the backend
	// has no credential configured.
	ErrMissingAPIKey = errors.New("api key is required")

	// ErrTimeout is returned when a task does not reach a terminal state
	// within the configured wall-clock budget.
	ErrTimeout = errors.New("image generation timed out")
)

// SubmissionError reports a failed or malformed task creation. Submission
// failures are fatal immediately, unlike transient polling errors.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string { return "submitting generation task: " + e.Err.Error() }
func (e *SubmissionError) Unwrap() error { return e.Err }

// TaskError reports a generation the server itself marked FAILED. Message is
// the server-supplied reason.
type TaskError struct {
	Message string
}

func (e *TaskError) Error() string { return "image generation failed: " + e.Message }

// DownloadError reports a failed fetch of the final image binary.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading image from %s: %s", e.URL, e.Err)
}
func (e *DownloadError) Unwrap() error { return e.Err }
