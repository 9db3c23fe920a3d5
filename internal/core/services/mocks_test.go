package services

import (
	"context"
	"errors"
	"time"

	"github.com/velosync/velosync-cli/internal/core/domain"
	"github.com/velosync/velosync-cli/internal/core/ports/driven"
)

// --- Mock collaborators shared by the service tests ---

// mockSourceClient implements driven.SourceClient.
type mockSourceClient struct {
	loginErr error

	pages   map[int]*domain.ActivityPage
	listErr error

	details    map[int64]*domain.ActivityDetail
	detailErrs map[int64]error

	downloads    map[string][]byte
	downloadErrs map[string]error

	listCalls     []int
	detailCalls   []int64
	downloadCalls []string
}

var _ driven.SourceClient = (*mockSourceClient)(nil)

func (m *mockSourceClient) Login(_ context.Context) error {
	return m.loginErr
}

func (m *mockSourceClient) ListActivities(_ context.Context, page int) (*domain.ActivityPage, error) {
	m.listCalls = append(m.listCalls, page)
	if m.listErr != nil {
		return nil, m.listErr
	}
	if p, ok := m.pages[page]; ok {
		return p, nil
	}
	return &domain.ActivityPage{}, nil
}

func (m *mockSourceClient) ActivityDetail(_ context.Context, activityID int64) (*domain.ActivityDetail, error) {
	m.detailCalls = append(m.detailCalls, activityID)
	if err, ok := m.detailErrs[activityID]; ok {
		return nil, err
	}
	if d, ok := m.details[activityID]; ok {
		return d, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockSourceClient) DownloadRecording(_ context.Context, ref string) ([]byte, error) {
	m.downloadCalls = append(m.downloadCalls, ref)
	if err, ok := m.downloadErrs[ref]; ok {
		return nil, err
	}
	if data, ok := m.downloads[ref]; ok {
		return data, nil
	}
	return nil, domain.ErrNotFound
}

// mockDestClient implements driven.DestinationClient. Upload errors are
// consumed in order; once the queue is drained uploads succeed.
type mockDestClient struct {
	authErr   error
	authCalls []bool

	intervals []domain.Interval
	listErr   error

	uploadErrs  []error
	uploadFn    func(call int) error
	uploadCalls int
}

var _ driven.DestinationClient = (*mockDestClient)(nil)

func (m *mockDestClient) Authenticate(_ context.Context, force bool) error {
	m.authCalls = append(m.authCalls, force)
	return m.authErr
}

func (m *mockDestClient) ListRecentActivities(_ context.Context, _ int) ([]domain.Interval, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.intervals, nil
}

func (m *mockDestClient) UploadRecording(_ context.Context, _ []byte) error {
	m.uploadCalls++
	if m.uploadFn != nil {
		return m.uploadFn(m.uploadCalls)
	}
	if len(m.uploadErrs) > 0 {
		err := m.uploadErrs[0]
		m.uploadErrs = m.uploadErrs[1:]
		return err
	}
	return nil
}

// mockWatermarkStore implements driven.WatermarkStore.
type mockWatermarkStore struct {
	loaded  time.Time
	saved   []time.Time
	saveErr error
}

var _ driven.WatermarkStore = (*mockWatermarkStore)(nil)

func (m *mockWatermarkStore) Load(_ context.Context) time.Time {
	if m.loaded.IsZero() {
		return time.Now().Add(-domain.DefaultLookback)
	}
	return m.loaded
}

func (m *mockWatermarkStore) Save(_ context.Context, ts time.Time) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, ts)
	return nil
}

// last returns the most recently saved watermark, or zero.
func (m *mockWatermarkStore) last() time.Time {
	if len(m.saved) == 0 {
		return time.Time{}
	}
	return m.saved[len(m.saved)-1]
}

// mockHistoryStore implements driven.HistoryStore.
type mockHistoryStore struct {
	recorded  []domain.Transfer
	recordErr error
}

var _ driven.HistoryStore = (*mockHistoryStore)(nil)

func (m *mockHistoryStore) RecordTransfer(_ context.Context, transfer domain.Transfer) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.recorded = append(m.recorded, transfer)
	return nil
}

func (m *mockHistoryStore) ListTransfers(_ context.Context, limit int) ([]domain.Transfer, error) {
	if limit > len(m.recorded) {
		limit = len(m.recorded)
	}
	out := make([]domain.Transfer, 0, limit)
	for i := len(m.recorded) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.recorded[i])
	}
	return out, nil
}

var errUploadBroken = errors.New("upload broken")
