package domain

import "time"

// SyncReport summarises the outcome of one transfer run.
type SyncReport struct {
	// Transferred is the number of candidates uploaded successfully.
	Transferred int

	// Failed is the number of candidates that failed to download or
	// exhausted their upload retries.
	Failed int

	// NewestTransferred is the latest start time among successfully
	// uploaded candidates. Zero when nothing was transferred.
	NewestTransferred time.Time
}

// TransferOutcome describes how a single transfer ended.
type TransferOutcome string

const (
	// OutcomeUploaded marks a confirmed upload.
	OutcomeUploaded TransferOutcome = "uploaded"

	// OutcomeFailed marks a download failure or exhausted upload retries.
	OutcomeFailed TransferOutcome = "failed"
)

// Transfer is one row of the transfer history: a single candidate's
// journey through the orchestrator.
type Transfer struct {
	// RunID groups transfers belonging to the same sync run.
	RunID string

	// ActivityID is the source platform's activity identifier.
	ActivityID int64

	// StartTime is the activity's resolved start time.
	StartTime time.Time

	// Bytes is the size of the downloaded recording, 0 when the
	// download itself failed.
	Bytes int

	// Outcome records how the transfer ended.
	Outcome TransferOutcome

	// RecordedAt is when the row was written.
	RecordedAt time.Time
}
