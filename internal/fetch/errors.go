package fetch

import "errors"

var (
	// ErrFetchFailed indicates the upstream request failed after all
	// retry attempts.
	ErrFetchFailed = errors.New("fetch: upstream request failed")

	// ErrEmptyPayload indicates the upstream responded successfully but
	// returned no data for the requested window.
	ErrEmptyPayload = errors.New("fetch: empty payload")
)
