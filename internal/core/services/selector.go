package services

import (
	"context"
	"time"

	"github.com/velosync/velosync-cli/internal/core/domain"
	"github.com/velosync/velosync-cli/internal/core/ports/driven"
	"github.com/velosync/velosync-cli/internal/logger"
)

// Selector decides which source activities need transferring. It owns
// candidate list construction; the orchestrator owns everything after.
type Selector struct {
	source driven.SourceClient
	buffer time.Duration
}

// NewSelector creates a selector that resolves activity details through
// the given source client. A non-positive buffer falls back to the
// default overlap buffer.
func NewSelector(source driven.SourceClient, buffer time.Duration) *Selector {
	if buffer <= 0 {
		buffer = domain.DefaultOverlapBuffer
	}
	return &Selector{source: source, buffer: buffer}
}

// Select filters the source activities down to the ordered list of
// candidates that must be transferred:
//
//  1. Activities from a calendar day before the watermark's day are
//     dropped. The comparison is date-only to tolerate clock skew
//     between the platforms.
//  2. Full-precision timing is resolved via a detail fetch; a failed
//     fetch skips that activity with a warning, never the batch.
//  3. Activities whose resolved interval overlaps any destination
//     interval within the buffer are dropped as already present.
//  4. Activities without a download reference are dropped with a warning.
//
// Source order is preserved. An empty destination list disables overlap
// filtering; only the watermark filter applies then.
func (s *Selector) Select(
	ctx context.Context,
	activities []domain.Activity,
	destIntervals []domain.Interval,
	watermark time.Time,
) []domain.SyncCandidate {
	var candidates []domain.SyncCandidate

	for _, activity := range activities {
		if activity.StartTime.IsZero() {
			logger.Warn("skipping activity %d: unusable start time", activity.ID)
			continue
		}

		if beforeCalendarDay(activity.StartTime, watermark) {
			logger.Debug("skipping activity %d from %s: older than last sync",
				activity.ID, activity.StartTime.Format("2006-01-02"))
			continue
		}

		detail, err := s.source.ActivityDetail(ctx, activity.ID)
		if err != nil {
			logger.Warn("could not fetch details for activity %d: %v", activity.ID, err)
			continue
		}
		if detail.StartTime.IsZero() {
			logger.Warn("skipping activity %d: malformed detail start time", activity.ID)
			continue
		}

		resolved := domain.Interval{Start: detail.StartTime, Duration: detail.Duration}
		if s.overlapsAny(resolved, destIntervals) {
			logger.Info("skipping activity %d: overlaps an existing destination activity", activity.ID)
			continue
		}

		if activity.DownloadRef == "" {
			logger.Warn("skipping activity %d: no recording to download", activity.ID)
			continue
		}

		candidates = append(candidates, domain.SyncCandidate{
			ActivityID:  activity.ID,
			DownloadRef: activity.DownloadRef,
			StartTime:   detail.StartTime,
			Duration:    detail.Duration,
		})
	}

	return candidates
}

// overlapsAny tests the interval against every destination interval.
func (s *Selector) overlapsAny(interval domain.Interval, destIntervals []domain.Interval) bool {
	for _, dest := range destIntervals {
		if domain.Overlaps(interval, dest, s.buffer) {
			return true
		}
	}
	return false
}

// beforeCalendarDay reports whether a's calendar date is strictly before
// b's. Dates are compared in each time's own location: platforms report
// local times without zone information, so normalising here would shift
// rides near midnight onto the wrong day more often than it would help.
func beforeCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
