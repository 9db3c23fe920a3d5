// Package file provides a file-based implementation of the watermark
// store: a single-record JSON file holding the last-sync timestamp.
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/velosync/velosync-cli/internal/core/domain"
	"github.com/velosync/velosync-cli/internal/core/ports/driven"
	"github.com/velosync/velosync-cli/internal/logger"
)

// watermarkFile is the file name within the state directory.
const watermarkFile = "last_sync_date.json"

// Ensure WatermarkStore implements the interface.
var _ driven.WatermarkStore = (*WatermarkStore)(nil)

// record is the on-disk shape: {"last_sync_date": "<RFC3339>"}.
type record struct {
	LastSyncDate string `json:"last_sync_date"`
}

// WatermarkStore persists the watermark as a JSON file.
type WatermarkStore struct {
	mu       sync.Mutex
	filePath string
	lookback time.Duration
}

// NewWatermarkStore creates a watermark store in the given state
// directory. If stateDir is empty, defaults to ~/.velosync. The
// lookback is the fallback window when no usable watermark exists;
// non-positive falls back to the default.
func NewWatermarkStore(stateDir string, lookback time.Duration) (*WatermarkStore, error) {
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		stateDir = filepath.Join(home, ".velosync")
	}
	if lookback <= 0 {
		lookback = domain.DefaultLookback
	}

	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, err
	}

	return &WatermarkStore{
		filePath: filepath.Join(stateDir, watermarkFile),
		lookback: lookback,
	}, nil
}

// Path returns the watermark file path.
func (s *WatermarkStore) Path() string {
	return s.filePath
}

// Load returns the persisted watermark. A missing, unreadable or
// malformed file falls back to now minus the configured lookback; the
// caller never sees an error.
func (s *WatermarkStore) Load(_ context.Context) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	fallback := time.Now().Add(-s.lookback)

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("could not read watermark file: %v", err)
		}
		return fallback
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.Warn("malformed watermark file %s: %v", s.filePath, err)
		return fallback
	}

	ts, err := time.Parse(time.RFC3339, rec.LastSyncDate)
	if err != nil {
		logger.Warn("malformed watermark timestamp %q: %v", rec.LastSyncDate, err)
		return fallback
	}

	return ts
}

// Reset removes the persisted watermark. The next Load falls back to
// now minus the default lookback.
func (s *WatermarkStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Save persists the watermark. The write goes to a temp file first and
// is renamed into place, so a failure leaves the previous value intact.
func (s *WatermarkStore) Save(_ context.Context, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(record{LastSyncDate: ts.Format(time.RFC3339)})
	if err != nil {
		return err
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
