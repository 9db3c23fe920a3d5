package driven

import (
	"context"

	"github.com/velosync/velosync-cli/internal/core/domain"
)

// SourceClient talks to the platform activities are synced from.
type SourceClient interface {
	// Login authenticates with the source platform. Must be called
	// before any other method.
	Login(ctx context.Context) error

	// ListActivities fetches one page of the user's activities, most
	// recent first. Pages are 1-based.
	ListActivities(ctx context.Context, page int) (*domain.ActivityPage, error)

	// ActivityDetail fetches full-precision timing for an activity.
	ActivityDetail(ctx context.Context, activityID int64) (*domain.ActivityDetail, error)

	// DownloadRecording fetches the raw recording file behind an
	// activity's download reference.
	DownloadRecording(ctx context.Context, ref string) ([]byte, error)
}
