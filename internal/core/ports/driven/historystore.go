package driven

import (
	"context"

	"github.com/velosync/velosync-cli/internal/core/domain"
)

// HistoryStore records the outcome of individual transfers for later
// inspection. Recording is best-effort; a failed write never fails a run.
type HistoryStore interface {
	// RecordTransfer appends one transfer outcome.
	RecordTransfer(ctx context.Context, transfer domain.Transfer) error

	// ListTransfers returns the most recent transfers, newest first.
	ListTransfers(ctx context.Context, limit int) ([]domain.Transfer, error)
}
