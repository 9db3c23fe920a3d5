package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/velosync/velosync-cli/internal/core/domain"
	"github.com/velosync/velosync-cli/internal/core/ports/driven"
	"github.com/velosync/velosync-cli/internal/logger"
)

const (
	// backoffJitterMax is the random jitter added to every retry delay.
	backoffJitterMax = 2 * time.Second

	// rateLimitDelay is the flat extra delay applied after a
	// rate-limited upload attempt, on top of the exponential backoff.
	rateLimitDelay = 30 * time.Second

	// rateLimitJitterMax is the random jitter added to rateLimitDelay.
	rateLimitJitterMax = 10 * time.Second
)

// uploadState drives the per-candidate upload retry loop. Modelling the
// classification-shaped backoff as explicit states keeps the transitions
// auditable.
type uploadState int

const (
	stateAttempting uploadState = iota
	stateBackoffGeneric
	stateBackoffAuth
	stateBackoffRateLimit
	stateSucceeded
	stateExhausted
)

func (s uploadState) String() string {
	switch s {
	case stateAttempting:
		return "attempting"
	case stateBackoffGeneric:
		return "backoff-generic"
	case stateBackoffAuth:
		return "backoff-auth"
	case stateBackoffRateLimit:
		return "backoff-rate-limit"
	case stateSucceeded:
		return "succeeded"
	case stateExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Orchestrator transfers sync candidates one at a time: download from
// the source, upload to the destination with retries, and checkpoint the
// watermark after every confirmed upload. Strictly sequential; the only
// suspension points are the backoff and inter-transfer delays.
type Orchestrator struct {
	source     driven.SourceClient
	dest       driven.DestinationClient
	watermarks driven.WatermarkStore
	history    driven.HistoryStore
	cfg        domain.Config

	// sleep and jitter are replaceable so tests can run without
	// real delays.
	sleep  func(time.Duration)
	jitter func(max time.Duration) time.Duration
}

// NewOrchestrator creates a transfer orchestrator. The history store is
// optional; pass nil to disable transfer recording.
func NewOrchestrator(
	source driven.SourceClient,
	dest driven.DestinationClient,
	watermarks driven.WatermarkStore,
	history driven.HistoryStore,
	cfg domain.Config,
) *Orchestrator {
	return &Orchestrator{
		source:     source,
		dest:       dest,
		watermarks: watermarks,
		history:    history,
		cfg:        cfg,
		sleep:      time.Sleep,
		jitter:     randomJitter,
	}
}

// Run transfers the candidates in order and returns a report of the
// outcome. Each success immediately advances the persisted watermark to
// the newest transferred start time, so a killed run loses at most the
// in-flight candidate. The watermark never moves when nothing succeeds.
func (o *Orchestrator) Run(ctx context.Context, candidates []domain.SyncCandidate) domain.SyncReport {
	var report domain.SyncReport
	runID := uuid.NewString()

	for _, cand := range candidates {
		if ctx.Err() != nil {
			logger.Warn("transfer run cancelled: %v", ctx.Err())
			break
		}

		data, err := o.source.DownloadRecording(ctx, cand.DownloadRef)
		if err == nil && len(data) == 0 {
			err = domain.ErrEmptyRecording
		}
		if err != nil {
			// Download failures are not retried; only uploads are.
			logger.Warn("failed to download recording for activity %d: %v", cand.ActivityID, err)
			report.Failed++
			o.record(ctx, runID, cand, 0, domain.OutcomeFailed)
			continue
		}

		if err := o.uploadWithRetry(ctx, cand, data); err != nil {
			logger.Warn("failed to upload activity %d after all retry attempts: %v", cand.ActivityID, err)
			report.Failed++
			o.record(ctx, runID, cand, len(data), domain.OutcomeFailed)
		} else {
			logger.Info("uploaded activity %d (%d bytes)", cand.ActivityID, len(data))
			report.Transferred++
			o.record(ctx, runID, cand, len(data), domain.OutcomeUploaded)

			if cand.StartTime.After(report.NewestTransferred) {
				report.NewestTransferred = cand.StartTime
			}
			// Checkpoint after every success so partial runs keep
			// their progress. The saved value is this run's newest
			// success, even if an older stored watermark was newer;
			// re-scanning that window is harmless because overlap
			// detection catches the duplicates. A failed save is
			// logged, never fatal.
			if err := o.watermarks.Save(ctx, report.NewestTransferred); err != nil {
				logger.Warn("could not save watermark: %v", err)
			}
		}

		// Pause between attempt-sequences to respect destination
		// rate limits.
		o.sleep(o.cfg.TransferDelay)
	}

	return report
}

// uploadWithRetry runs the upload state machine for one candidate:
// up to MaxRetries attempts beyond the first, exponential backoff with
// jitter, forced re-authentication after auth failures and an extra flat
// delay after rate-limited ones.
func (o *Orchestrator) uploadWithRetry(ctx context.Context, cand domain.SyncCandidate, data []byte) error {
	state := stateAttempting
	attempt := 0
	var lastErr error

	for {
		switch state {
		case stateAttempting:
			attempt++
			err := o.dest.UploadRecording(ctx, data)
			if err == nil {
				state = stateSucceeded
				continue
			}

			lastErr = err
			logger.Warn("upload attempt %d/%d failed for activity %d (%d bytes): %v",
				attempt, o.cfg.MaxRetries+1, cand.ActivityID, len(data), err)

			if attempt > o.cfg.MaxRetries {
				state = stateExhausted
				continue
			}
			state = classify(err)
			logger.Debug("upload state for activity %d: %s", cand.ActivityID, state)

		case stateBackoffGeneric:
			o.backoff(attempt)
			state = stateAttempting

		case stateBackoffAuth:
			o.backoff(attempt)
			// The session is stale; retrying without a fresh one
			// would fail the same way.
			if err := o.dest.Authenticate(ctx, true); err != nil {
				logger.Warn("re-authentication failed: %v", err)
			}
			state = stateAttempting

		case stateBackoffRateLimit:
			o.sleep(rateLimitDelay + o.jitter(rateLimitJitterMax))
			o.backoff(attempt)
			state = stateAttempting

		case stateSucceeded:
			return nil

		case stateExhausted:
			return fmt.Errorf("exhausted %d attempts: %w", attempt, lastErr)
		}
	}
}

// backoff sleeps for the exponential retry delay plus jitter.
// attempt is the number of attempts already made.
func (o *Orchestrator) backoff(attempt int) {
	delay := o.cfg.RetryBaseDelay*time.Duration(1<<(attempt-1)) + o.jitter(backoffJitterMax)
	logger.Info("retrying upload (attempt %d/%d) after %s delay", attempt+1, o.cfg.MaxRetries+1, delay.Round(time.Millisecond))
	o.sleep(delay)
}

// record appends the transfer outcome to the history store, best-effort.
func (o *Orchestrator) record(ctx context.Context, runID string, cand domain.SyncCandidate, size int, outcome domain.TransferOutcome) {
	if o.history == nil {
		return
	}

	transfer := domain.Transfer{
		RunID:      runID,
		ActivityID: cand.ActivityID,
		StartTime:  cand.StartTime,
		Bytes:      size,
		Outcome:    outcome,
		RecordedAt: time.Now(),
	}
	if err := o.history.RecordTransfer(ctx, transfer); err != nil {
		logger.Warn("could not record transfer for activity %d: %v", cand.ActivityID, err)
	}
}

// classify maps an upload failure onto the backoff state that should
// precede the next attempt.
func classify(err error) uploadState {
	switch {
	case errors.Is(err, domain.ErrAuthExpired), errors.Is(err, domain.ErrAuthInvalid), errors.Is(err, domain.ErrAuthRequired):
		return stateBackoffAuth
	case errors.Is(err, domain.ErrRateLimited):
		return stateBackoffRateLimit
	default:
		return stateBackoffGeneric
	}
}

// randomJitter returns a uniformly random duration in [0, max).
func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}
