package driving

import (
	"context"

	"github.com/velosync/velosync-cli/internal/core/domain"
)

// Syncer runs a full synchronisation pass: authenticate with both
// platforms, select new activities and transfer them.
type Syncer interface {
	// Sync runs one synchronisation pass and returns its report.
	// The report is valid even when an error is returned; partial
	// progress is preserved through incremental watermark saves.
	Sync(ctx context.Context) (*domain.SyncReport, error)
}
