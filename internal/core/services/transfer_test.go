package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velosync/velosync-cli/internal/core/domain"
	"github.com/velosync/velosync-cli/internal/core/ports/driven"
)

// newTestOrchestrator builds an orchestrator with instant, recorded
// sleeps and deterministic zero jitter.
func newTestOrchestrator(
	source *mockSourceClient,
	dest *mockDestClient,
	watermarks *mockWatermarkStore,
	history *mockHistoryStore,
) (*Orchestrator, *[]time.Duration) {
	cfg := domain.DefaultConfig()

	var hist driven.HistoryStore
	if history != nil {
		hist = history
	}
	o := NewOrchestrator(source, dest, watermarks, hist, cfg)

	var sleeps []time.Duration
	o.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	o.jitter = func(time.Duration) time.Duration { return 0 }
	return o, &sleeps
}

func candidate(id int64, start time.Time) domain.SyncCandidate {
	return domain.SyncCandidate{
		ActivityID:  id,
		DownloadRef: "fit",
		StartTime:   start,
		Duration:    time.Hour,
	}
}

func TestOrchestratorSuccessfulTransfer(t *testing.T) {
	source := &mockSourceClient{downloads: map[string][]byte{"fit": []byte("data")}}
	dest := &mockDestClient{}
	watermarks := &mockWatermarkStore{}

	o, sleeps := newTestOrchestrator(source, dest, watermarks, nil)
	report := o.Run(context.Background(), []domain.SyncCandidate{candidate(1, dayAt(15, 9))})

	assert.Equal(t, 1, report.Transferred)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, dayAt(15, 9), report.NewestTransferred)
	assert.Equal(t, 1, dest.uploadCalls)

	// Watermark checkpointed immediately after the success.
	assert.Equal(t, []time.Time{dayAt(15, 9)}, watermarks.saved)

	// Only the inter-transfer delay slept.
	assert.Equal(t, []time.Duration{2 * time.Second}, *sleeps)
}

func TestOrchestratorRetriesThenSucceeds(t *testing.T) {
	source := &mockSourceClient{downloads: map[string][]byte{"fit": []byte("data")}}
	dest := &mockDestClient{uploadErrs: []error{errUploadBroken, errUploadBroken}}
	watermarks := &mockWatermarkStore{}

	o, sleeps := newTestOrchestrator(source, dest, watermarks, nil)
	report := o.Run(context.Background(), []domain.SyncCandidate{candidate(1, dayAt(15, 9))})

	// Fails twice then succeeds: exactly 3 attempts.
	assert.Equal(t, 3, dest.uploadCalls)
	assert.Equal(t, 1, report.Transferred)
	assert.Equal(t, 0, report.Failed)

	// Exponential backoff between attempts: 5s, then 10s, then the
	// 2s inter-transfer delay.
	require.Len(t, *sleeps, 3)
	assert.Equal(t, 5*time.Second, (*sleeps)[0])
	assert.Equal(t, 10*time.Second, (*sleeps)[1])
	assert.Equal(t, 2*time.Second, (*sleeps)[2])
	assert.Greater(t, (*sleeps)[1], (*sleeps)[0])
}

func TestOrchestratorExhaustsRetries(t *testing.T) {
	source := &mockSourceClient{downloads: map[string][]byte{"fit": []byte("data")}}
	dest := &mockDestClient{
		uploadErrs: []error{errUploadBroken, errUploadBroken, errUploadBroken, errUploadBroken, errUploadBroken},
	}
	watermarks := &mockWatermarkStore{}

	o, _ := newTestOrchestrator(source, dest, watermarks, nil)
	report := o.Run(context.Background(), []domain.SyncCandidate{candidate(1, dayAt(15, 9))})

	// MaxRetries (3) beyond the first attempt: 4 in total.
	assert.Equal(t, 4, dest.uploadCalls)
	assert.Equal(t, 0, report.Transferred)
	assert.Equal(t, 1, report.Failed)
	assert.True(t, report.NewestTransferred.IsZero())

	// Nothing succeeded, so the watermark never moved.
	assert.Empty(t, watermarks.saved)
}

func TestOrchestratorAuthFailureForcesReauth(t *testing.T) {
	source := &mockSourceClient{downloads: map[string][]byte{"fit": []byte("data")}}
	dest := &mockDestClient{uploadErrs: []error{domain.ErrAuthExpired}}
	watermarks := &mockWatermarkStore{}

	o, _ := newTestOrchestrator(source, dest, watermarks, nil)
	report := o.Run(context.Background(), []domain.SyncCandidate{candidate(1, dayAt(15, 9))})

	assert.Equal(t, 1, report.Transferred)
	assert.Equal(t, 2, dest.uploadCalls)

	// A forced re-authentication happened before the retry.
	require.Len(t, dest.authCalls, 1)
	assert.True(t, dest.authCalls[0])
}

func TestOrchestratorRateLimitAddsFlatDelay(t *testing.T) {
	source := &mockSourceClient{downloads: map[string][]byte{"fit": []byte("data")}}
	dest := &mockDestClient{uploadErrs: []error{domain.ErrRateLimited}}
	watermarks := &mockWatermarkStore{}

	o, sleeps := newTestOrchestrator(source, dest, watermarks, nil)
	report := o.Run(context.Background(), []domain.SyncCandidate{candidate(1, dayAt(15, 9))})

	assert.Equal(t, 1, report.Transferred)

	// Flat 30s rate-limit delay, then the 5s exponential backoff,
	// then the inter-transfer delay.
	require.Len(t, *sleeps, 3)
	assert.Equal(t, 30*time.Second, (*sleeps)[0])
	assert.Equal(t, 5*time.Second, (*sleeps)[1])
	assert.Equal(t, 2*time.Second, (*sleeps)[2])

	// Rate limiting does not force re-authentication.
	assert.Empty(t, dest.authCalls)
}

func TestOrchestratorDownloadFailureNotRetried(t *testing.T) {
	source := &mockSourceClient{
		downloadErrs: map[string]error{"fit": errUploadBroken},
	}
	dest := &mockDestClient{}
	watermarks := &mockWatermarkStore{}

	o, _ := newTestOrchestrator(source, dest, watermarks, nil)
	report := o.Run(context.Background(), []domain.SyncCandidate{candidate(1, dayAt(15, 9))})

	assert.Equal(t, 0, report.Transferred)
	assert.Equal(t, 1, report.Failed)

	// The upload was never attempted and only one download happened.
	assert.Equal(t, 0, dest.uploadCalls)
	assert.Len(t, source.downloadCalls, 1)
	assert.Empty(t, watermarks.saved)
}

func TestOrchestratorEmptyDownloadIsFailure(t *testing.T) {
	source := &mockSourceClient{downloads: map[string][]byte{"fit": {}}}
	dest := &mockDestClient{}
	watermarks := &mockWatermarkStore{}

	o, _ := newTestOrchestrator(source, dest, watermarks, nil)
	report := o.Run(context.Background(), []domain.SyncCandidate{candidate(1, dayAt(15, 9))})

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, dest.uploadCalls)
}

func TestOrchestratorMiddleCandidateFailure(t *testing.T) {
	source := &mockSourceClient{
		downloads: map[string][]byte{
			"fit-1": []byte("one"),
			"fit-2": []byte("two"),
			"fit-3": []byte("three"),
		},
	}
	// The second candidate's upload fails on every attempt (calls
	// 2 through 5), the first and third succeed first try.
	dest := &mockDestClient{
		uploadFn: func(call int) error {
			if call >= 2 && call <= 5 {
				return errUploadBroken
			}
			return nil
		},
	}
	watermarks := &mockWatermarkStore{}
	history := &mockHistoryStore{}

	o, _ := newTestOrchestrator(source, dest, watermarks, history)

	candidates := []domain.SyncCandidate{
		{ActivityID: 1, DownloadRef: "fit-1", StartTime: dayAt(10, 9), Duration: time.Hour},
		{ActivityID: 2, DownloadRef: "fit-2", StartTime: dayAt(11, 9), Duration: time.Hour},
		{ActivityID: 3, DownloadRef: "fit-3", StartTime: dayAt(12, 9), Duration: time.Hour},
	}

	report := o.Run(context.Background(), candidates)

	assert.Equal(t, 2, report.Transferred)
	assert.Equal(t, 1, report.Failed)

	// The final watermark is the later of the two successes, not the
	// failed middle candidate's time.
	assert.Equal(t, dayAt(12, 9), report.NewestTransferred)
	assert.Equal(t, dayAt(12, 9), watermarks.last())

	// History recorded all three outcomes.
	require.Len(t, history.recorded, 3)
	assert.Equal(t, domain.OutcomeUploaded, history.recorded[0].Outcome)
	assert.Equal(t, domain.OutcomeFailed, history.recorded[1].Outcome)
	assert.Equal(t, domain.OutcomeUploaded, history.recorded[2].Outcome)
	assert.Equal(t, history.recorded[0].RunID, history.recorded[2].RunID)
}

func TestOrchestratorWatermarkNeverMovesBackward(t *testing.T) {
	source := &mockSourceClient{
		downloads: map[string][]byte{
			"fit-1": []byte("one"),
			"fit-2": []byte("two"),
		},
	}
	dest := &mockDestClient{}
	watermarks := &mockWatermarkStore{}

	o, _ := newTestOrchestrator(source, dest, watermarks, nil)

	// Candidates out of chronological order: the newer one first.
	candidates := []domain.SyncCandidate{
		{ActivityID: 1, DownloadRef: "fit-1", StartTime: dayAt(12, 9), Duration: time.Hour},
		{ActivityID: 2, DownloadRef: "fit-2", StartTime: dayAt(10, 9), Duration: time.Hour},
	}

	report := o.Run(context.Background(), candidates)

	assert.Equal(t, 2, report.Transferred)
	assert.Equal(t, dayAt(12, 9), report.NewestTransferred)

	// Both checkpoints carried the newest transferred time.
	assert.Equal(t, []time.Time{dayAt(12, 9), dayAt(12, 9)}, watermarks.saved)
}

func TestOrchestratorHistoryFailureIsNonFatal(t *testing.T) {
	source := &mockSourceClient{downloads: map[string][]byte{"fit": []byte("data")}}
	dest := &mockDestClient{}
	watermarks := &mockWatermarkStore{}
	history := &mockHistoryStore{recordErr: errUploadBroken}

	o, _ := newTestOrchestrator(source, dest, watermarks, history)
	report := o.Run(context.Background(), []domain.SyncCandidate{candidate(1, dayAt(15, 9))})

	assert.Equal(t, 1, report.Transferred)
}

func TestUploadStateString(t *testing.T) {
	assert.Equal(t, "attempting", stateAttempting.String())
	assert.Equal(t, "backoff-generic", stateBackoffGeneric.String())
	assert.Equal(t, "backoff-auth", stateBackoffAuth.String())
	assert.Equal(t, "backoff-rate-limit", stateBackoffRateLimit.String())
	assert.Equal(t, "succeeded", stateSucceeded.String())
	assert.Equal(t, "exhausted", stateExhausted.String())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, stateBackoffAuth, classify(domain.ErrAuthExpired))
	assert.Equal(t, stateBackoffAuth, classify(domain.ErrAuthInvalid))
	assert.Equal(t, stateBackoffRateLimit, classify(domain.ErrRateLimited))
	assert.Equal(t, stateBackoffGeneric, classify(errUploadBroken))
}

func TestRandomJitter(t *testing.T) {
	assert.Equal(t, time.Duration(0), randomJitter(0))

	for range 100 {
		j := randomJitter(2 * time.Second)
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.Less(t, j, 2*time.Second)
	}
}
