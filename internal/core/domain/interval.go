package domain

import "time"

// DefaultOverlapBuffer is the tolerance window used when comparing two
// intervals for equivalence. Platforms rarely agree on start times to the
// second, so two recordings within this window count as the same ride.
const DefaultOverlapBuffer = 5 * time.Minute

// Interval is a span of time described by its start and duration.
// A zero duration describes a point event.
type Interval struct {
	Start    time.Time
	Duration time.Duration
}

// End returns the end of the interval.
func (i Interval) End() time.Time {
	return i.Start.Add(i.Duration)
}

// Overlaps reports whether two intervals overlap within the given buffer.
// An endpoint of either interval falling inside the other's buffered range
// counts as overlap, which also covers full containment. Symmetric in a
// and b; no side effects.
func Overlaps(a, b Interval, buffer time.Duration) bool {
	return within(b.Start, a, buffer) ||
		within(b.End(), a, buffer) ||
		within(a.Start, b, buffer) ||
		within(a.End(), b, buffer)
}

// within reports whether t falls inside [i.Start - buffer, i.End() + buffer].
func within(t time.Time, i Interval, buffer time.Duration) bool {
	lo := i.Start.Add(-buffer)
	hi := i.End().Add(buffer)
	return !t.Before(lo) && !t.After(hi)
}
