package domain

import (
	"fmt"
	"time"
)

// Defaults for the sync run. Tunable via the config file; the defaults
// match the behaviour the destination platform tolerates in practice.
const (
	// DefaultMaxRetries is the number of upload retries beyond the
	// first attempt.
	DefaultMaxRetries = 3

	// DefaultRetryBaseDelay is the base for exponential upload backoff.
	DefaultRetryBaseDelay = 5 * time.Second

	// DefaultTransferDelay is the pause between candidate transfers.
	DefaultTransferDelay = 2 * time.Second

	// DefaultLookback is how far back the watermark falls when no
	// persisted value exists.
	DefaultLookback = 30 * 24 * time.Hour

	// DefaultPageSize is the source listing page size.
	DefaultPageSize = 20

	// DefaultDestListLimit is how many recent destination activities
	// are fetched for overlap checks.
	DefaultDestListLimit = 20

	// DefaultDestDomain is the destination platform domain.
	DefaultDestDomain = "garmin.com"
)

// Config carries everything a sync run needs: platform credentials and
// the tuning knobs for selection and transfer. Built once at startup and
// passed into the services explicitly.
type Config struct {
	// Source platform (iGPSport) credentials.
	SourceUsername string
	SourcePassword string

	// Destination platform (Garmin Connect) credentials.
	DestEmail    string
	DestPassword string
	DestDomain   string

	// Transfer tuning.
	MaxRetries     int
	RetryBaseDelay time.Duration
	TransferDelay  time.Duration

	// Selection tuning.
	OverlapBuffer time.Duration
	Lookback      time.Duration
	PageSize      int
	DestListLimit int
}

// DefaultConfig returns a Config with all tunables at their defaults and
// no credentials set.
func DefaultConfig() Config {
	return Config{
		DestDomain:     DefaultDestDomain,
		MaxRetries:     DefaultMaxRetries,
		RetryBaseDelay: DefaultRetryBaseDelay,
		TransferDelay:  DefaultTransferDelay,
		OverlapBuffer:  DefaultOverlapBuffer,
		Lookback:       DefaultLookback,
		PageSize:       DefaultPageSize,
		DestListLimit:  DefaultDestListLimit,
	}
}

// Validate checks that the credentials required for a run are present.
func (c Config) Validate() error {
	switch {
	case c.SourceUsername == "":
		return fmt.Errorf("%w: source username", ErrMissingCredentials)
	case c.SourcePassword == "":
		return fmt.Errorf("%w: source password", ErrMissingCredentials)
	case c.DestEmail == "":
		return fmt.Errorf("%w: destination email", ErrMissingCredentials)
	case c.DestPassword == "":
		return fmt.Errorf("%w: destination password", ErrMissingCredentials)
	}
	return nil
}
