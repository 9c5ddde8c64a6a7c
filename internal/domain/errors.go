package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUserCancelled is returned when the user aborts the workflow. It is not a failure.
	ErrUserCancelled = errors.New("cancelled by user")
	// ErrConfigurationMissing marks a missing token file or a required selection that was never made.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrEventTypeLimit is returned when GitHub rejects a dispatch with 422.
	ErrEventTypeLimit = errors.New(
		"dispatch rejected with 422: the repository reached its limit of distinct event types, " +
			"delete old workflow runs before dispatching again",
	)
)

// RemoteRequestError describes a non-success response or transport failure from the GitHub API.
type RemoteRequestError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RemoteRequestError) Error() string {
	if e.StatusCode != 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("%s failed with status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RemoteRequestError) Unwrap() error {
	return e.Err
}

// ItemFailure records one failed item of a batch operation.
type ItemFailure struct {
	Item string
	Err  error
}

// BatchResult is the aggregate outcome of a best-effort batch operation.
// Per-item failures never turn the batch into an error.
type BatchResult struct {
	Total     int
	Succeeded int
	Failures  []ItemFailure
}

// Record adds the outcome of a single item.
func (r *BatchResult) Record(item string, err error) {
	r.Total++
	if err != nil {
		r.Failures = append(r.Failures, ItemFailure{Item: item, Err: err})
		return
	}
	r.Succeeded++
}

// Summary renders a one-line description of the batch.
func (r *BatchResult) Summary(noun string) string {
	if len(r.Failures) == 0 {
		return fmt.Sprintf("%d/%d %s deleted", r.Succeeded, r.Total, noun)
	}
	failed := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		failed = append(failed, f.Item)
	}
	return fmt.Sprintf("%d/%d %s deleted (failed: %s)", r.Succeeded, r.Total, noun, strings.Join(failed, ", "))
}
