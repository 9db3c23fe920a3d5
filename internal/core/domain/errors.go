package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingCredentials indicates required platform credentials are
	// not configured. Fatal to the run, never retried.
	ErrMissingCredentials = errors.New("missing credentials")

	// Authentication errors.

	// ErrAuthRequired indicates a call was made before logging in.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthExpired indicates the session has expired or was rejected.
	// The orchestrator forces re-authentication before the next retry.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrAuthInvalid indicates the configured credentials are invalid.
	ErrAuthInvalid = errors.New("authentication invalid")

	// Transfer errors.

	// ErrRateLimited indicates the API rate limit was exceeded.
	// Shapes the upload backoff with an additional flat delay.
	ErrRateLimited = errors.New("rate limited")

	// ErrMissingDownloadRef indicates the activity has no recording file.
	ErrMissingDownloadRef = errors.New("missing download reference")

	// ErrEmptyRecording indicates a download returned no data.
	ErrEmptyRecording = errors.New("empty recording")
)
