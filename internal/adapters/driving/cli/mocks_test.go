package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	statefile "github.com/velosync/velosync-cli/internal/adapters/driven/state/file"
	"github.com/velosync/velosync-cli/internal/core/domain"
	"github.com/velosync/velosync-cli/internal/core/ports/driven"
	"github.com/velosync/velosync-cli/internal/core/ports/driving"
)

// mockSyncer implements driving.Syncer for testing.
type mockSyncer struct {
	report *domain.SyncReport
	err    error
	calls  int
}

func (m *mockSyncer) Sync(_ context.Context) (*domain.SyncReport, error) {
	m.calls++
	if m.err != nil {
		return &domain.SyncReport{}, m.err
	}
	return m.report, nil
}

// mockHistoryStore implements driven.HistoryStore for testing.
type mockHistoryStore struct {
	transfers []domain.Transfer
	err       error
	gotLimit  int
}

func (m *mockHistoryStore) RecordTransfer(_ context.Context, transfer domain.Transfer) error {
	m.transfers = append(m.transfers, transfer)
	return nil
}

func (m *mockHistoryStore) ListTransfers(_ context.Context, limit int) ([]domain.Transfer, error) {
	m.gotLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.transfers, nil
}

var (
	_ driving.Syncer      = (*mockSyncer)(nil)
	_ driven.HistoryStore = (*mockHistoryStore)(nil)
)

// setupCLITest injects test doubles for the package-level services and
// returns a cleanup that restores the previous wiring. The watermark
// store is a real file store rooted in a temp directory.
func setupCLITest(t *testing.T, syncer driving.Syncer, history driven.HistoryStore) *statefile.WatermarkStore {
	t.Helper()

	store, err := statefile.NewWatermarkStore(t.TempDir(), 0)
	require.NoError(t, err)

	oldSync, oldWatermark, oldHistory := syncService, watermarkStore, historyStore
	syncService = syncer
	watermarkStore = store
	historyStore = history
	t.Cleanup(func() {
		syncService, watermarkStore, historyStore = oldSync, oldWatermark, oldHistory
	})

	return store
}
