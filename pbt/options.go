package pbt

import (
	"time"

	"github.com/veriphys/go-pbt/beacon"
)

// Option is an option configuring a token registry.
type Option func(cfg *regConfig) error

type regConfig struct {
	verifier  beacon.Verifier
	clock     func() time.Time
	cacheSize int
}

// WithBeaconVerifier configures the verifier used to check beacon round
// signatures. By default a verifier for the default beacon network is used.
func WithBeaconVerifier(verifier beacon.Verifier) Option {
	return func(cfg *regConfig) error {
		cfg.verifier = verifier
		return nil
	}
}

// WithClock configures the time source for freshness checks. Tests use this
// to pin the clock.
func WithClock(clock func() time.Time) Option {
	return func(cfg *regConfig) error {
		cfg.clock = clock
		return nil
	}
}

// WithVerificationCacheSize configures the size of the verified round cache
// wrapped around the beacon verifier. A size of zero disables caching.
func WithVerificationCacheSize(size int) Option {
	return func(cfg *regConfig) error {
		cfg.cacheSize = size
		return nil
	}
}
