// Package cli implements the velosync command line interface.
package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	configfile "github.com/velosync/velosync-cli/internal/adapters/driven/config/file"
	statefile "github.com/velosync/velosync-cli/internal/adapters/driven/state/file"
	"github.com/velosync/velosync-cli/internal/adapters/driven/storage/sqlite"
	"github.com/velosync/velosync-cli/internal/connectors/garmin"
	"github.com/velosync/velosync-cli/internal/connectors/igpsport"
	"github.com/velosync/velosync-cli/internal/core/domain"
	"github.com/velosync/velosync-cli/internal/core/ports/driven"
	"github.com/velosync/velosync-cli/internal/core/ports/driving"
	"github.com/velosync/velosync-cli/internal/core/services"
	"github.com/velosync/velosync-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// watermarkKeeper is what the watermark commands need from the store.
type watermarkKeeper interface {
	driven.WatermarkStore
	Reset() error
	Path() string
}

// Services the commands run against. Wired lazily by ensureServices;
// tests inject their own implementations beforehand.
var (
	appConfig      domain.Config
	syncService    driving.Syncer
	watermarkStore watermarkKeeper
	historyStore   driven.HistoryStore
)

// Persistent flags.
var (
	flagVerbose   bool
	flagConfigDir string
)

var rootCmd = &cobra.Command{
	Use:   "velosync",
	Short: "Sync cycling activities from iGPSport to Garmin Connect",
	Long: `velosync mirrors your cycling activities from iGPSport to Garmin
Connect. It lists recent rides on iGPSport, skips anything already
present on Garmin Connect, and uploads the rest as FIT files.

Sync progress is tracked with a watermark, so repeated runs only
consider rides newer than the last successful transfer.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(
		&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(
		&flagConfigDir, "config-dir", "", "Configuration and state directory (default: ~/.velosync)")
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// resolveConfigDir returns the directory holding config and state.
func resolveConfigDir() (string, error) {
	if flagConfigDir != "" {
		return flagConfigDir, nil
	}
	return configfile.DefaultDir()
}

// ensureServices wires the real services on first use. Anything a test
// has already injected is left alone.
func ensureServices() error {
	if syncService != nil && watermarkStore != nil {
		return nil
	}

	dir, err := resolveConfigDir()
	if err != nil {
		return fmt.Errorf("resolve config directory: %w", err)
	}

	cfg, err := configfile.Load(dir)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	appConfig = cfg

	if watermarkStore == nil {
		store, err := statefile.NewWatermarkStore(dir, cfg.Lookback)
		if err != nil {
			return fmt.Errorf("open watermark store: %w", err)
		}
		watermarkStore = store
	}

	if historyStore == nil {
		store, err := sqlite.NewStore(filepath.Join(dir, "data"))
		if err != nil {
			// History is a convenience; a sync still works without it.
			logger.Warn("could not open history store: %v", err)
		} else {
			historyStore = store
		}
	}

	if syncService == nil {
		source := igpsport.NewClient(igpsport.Config{
			Username: cfg.SourceUsername,
			Password: cfg.SourcePassword,
			PageSize: cfg.PageSize,
		})
		dest := garmin.NewClient(garmin.Config{
			Email:    cfg.DestEmail,
			Password: cfg.DestPassword,
			Domain:   cfg.DestDomain,
			StateDir: dir,
		})
		syncService = services.NewSyncService(cfg, source, dest, watermarkStore, historyStore)
	}

	return nil
}

// parseTimestamp accepts an RFC3339 timestamp or a bare date.
func parseTimestamp(s string) (time.Time, error) {
	for _, format := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: expected RFC3339 or YYYY-MM-DD, got %q", domain.ErrInvalidInput, s)
}
