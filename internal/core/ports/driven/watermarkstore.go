package driven

import (
	"context"
	"time"
)

// WatermarkStore persists the last-sync watermark: the start time of the
// most recent successfully transferred activity.
type WatermarkStore interface {
	// Load returns the persisted watermark. Implementations never fail
	// the caller: a missing, unreadable or malformed value falls back
	// to now minus the configured lookback window.
	Load(ctx context.Context) time.Time

	// Save persists the watermark. A failed save must leave the
	// previously persisted value intact; callers treat the error as
	// non-fatal.
	Save(ctx context.Context, ts time.Time) error
}
