package domain

import "time"

// Activity is a source-side activity as returned by the listing endpoint.
// The listing start time may carry date-only precision; the full-precision
// time comes from ActivityDetail. Immutable once fetched.
type Activity struct {
	// ID is the source platform's activity identifier.
	ID int64

	// StartTime is the start time as reported by the listing endpoint.
	// May be midnight-truncated when the platform only reports a date.
	StartTime time.Time

	// DownloadRef is an opaque locator for the recording file.
	// Empty when the platform has no recording for this activity.
	DownloadRef string
}

// ActivityDetail carries the full-precision timing for an activity,
// fetched separately from the listing.
type ActivityDetail struct {
	StartTime time.Time
	Duration  time.Duration
}

// ActivityPage is one page of a source activity listing.
type ActivityPage struct {
	Activities []Activity
	HasMore    bool
}

// SyncCandidate is an activity selected for transfer after passing the
// watermark and overlap filters. Created by the selector, consumed once
// by the orchestrator.
type SyncCandidate struct {
	ActivityID  int64
	DownloadRef string
	StartTime   time.Time
	Duration    time.Duration
}

// Interval makes the candidate's resolved timing available for overlap
// comparisons.
func (c SyncCandidate) Interval() Interval {
	return Interval{Start: c.StartTime, Duration: c.Duration}
}
