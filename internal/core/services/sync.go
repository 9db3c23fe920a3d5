package services

import (
	"context"
	"fmt"
	"time"

	"github.com/velosync/velosync-cli/internal/core/domain"
	"github.com/velosync/velosync-cli/internal/core/ports/driven"
	"github.com/velosync/velosync-cli/internal/core/ports/driving"
	"github.com/velosync/velosync-cli/internal/logger"
)

// Ensure SyncService implements the interface.
var _ driving.Syncer = (*SyncService)(nil)

// SyncService runs a complete synchronisation pass from the source
// platform to the destination platform.
type SyncService struct {
	cfg        domain.Config
	source     driven.SourceClient
	dest       driven.DestinationClient
	watermarks driven.WatermarkStore

	selector     *Selector
	orchestrator *Orchestrator
}

// NewSyncService wires the selector and orchestrator from the given
// collaborators. The history store is optional.
func NewSyncService(
	cfg domain.Config,
	source driven.SourceClient,
	dest driven.DestinationClient,
	watermarks driven.WatermarkStore,
	history driven.HistoryStore,
) *SyncService {
	return &SyncService{
		cfg:          cfg,
		source:       source,
		dest:         dest,
		watermarks:   watermarks,
		selector:     NewSelector(source, cfg.OverlapBuffer),
		orchestrator: NewOrchestrator(source, dest, watermarks, history, cfg),
	}
}

// Sync runs one synchronisation pass.
//
// Configuration and initial authentication failures end the run with an
// error; everything after that is per-activity skip-and-continue, so the
// returned report is always meaningful.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncReport, error) {
	report := &domain.SyncReport{}

	if err := s.cfg.Validate(); err != nil {
		logger.Error("invalid configuration: %v", err)
		return report, err
	}

	if err := s.source.Login(ctx); err != nil {
		logger.Error("source login failed: %v", err)
		return report, fmt.Errorf("source login: %w", err)
	}
	if err := s.dest.Authenticate(ctx, false); err != nil {
		logger.Error("destination authentication failed: %v", err)
		return report, fmt.Errorf("destination authentication: %w", err)
	}

	watermark := s.watermarks.Load(ctx)
	logger.Info("last sync watermark: %s", watermark.Format(time.RFC3339))

	destIntervals, err := s.dest.ListRecentActivities(ctx, s.cfg.DestListLimit)
	if err != nil {
		// Overlap filtering degrades gracefully; the watermark
		// filter still bounds what gets re-uploaded.
		logger.Warn("could not list destination activities: %v", err)
		destIntervals = nil
	}

	activities := s.listSourceActivities(ctx, watermark)
	candidates := s.selector.Select(ctx, activities, destIntervals, watermark)
	logger.Info("selected %d of %d source activities for transfer", len(candidates), len(activities))

	*report = s.orchestrator.Run(ctx, candidates)
	logger.Info("sync completed: %d activities uploaded, %d failed", report.Transferred, report.Failed)

	return report, nil
}

// listSourceActivities pages through the source listing, newest first,
// and stops once a whole page predates the watermark's calendar day -
// anything older would be dropped by the selector anyway.
func (s *SyncService) listSourceActivities(ctx context.Context, watermark time.Time) []domain.Activity {
	var all []domain.Activity

	for page := 1; ; page++ {
		p, err := s.source.ListActivities(ctx, page)
		if err != nil {
			logger.Warn("could not list source activities (page %d): %v", page, err)
			break
		}
		if len(p.Activities) == 0 {
			break
		}

		all = append(all, p.Activities...)

		if !p.HasMore || pageBeforeWatermark(p.Activities, watermark) {
			break
		}
	}

	return all
}

// pageBeforeWatermark reports whether every activity on the page falls
// on a calendar day before the watermark's.
func pageBeforeWatermark(activities []domain.Activity, watermark time.Time) bool {
	for _, a := range activities {
		if a.StartTime.IsZero() {
			continue
		}
		if !beforeCalendarDay(a.StartTime, watermark) {
			return false
		}
	}
	return true
}
