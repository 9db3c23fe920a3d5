package driven

import (
	"context"

	"github.com/velosync/velosync-cli/internal/core/domain"
)

// DestinationClient talks to the platform activities are synced to.
//
// Session caching is the client's own concern: Authenticate with
// force=false may reuse a stored session, force=true must discard it and
// log in afresh.
type DestinationClient interface {
	// Authenticate establishes a session with the destination platform.
	Authenticate(ctx context.Context, force bool) error

	// ListRecentActivities returns the timing of the user's most recent
	// activities, used for duplicate detection.
	ListRecentActivities(ctx context.Context, limit int) ([]domain.Interval, error)

	// UploadRecording uploads a recording file. Failures are classified
	// via domain.ErrAuthExpired and domain.ErrRateLimited so callers can
	// shape their retry behaviour; anything else is a generic failure.
	UploadRecording(ctx context.Context, data []byte) error
}
