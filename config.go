package papaya

import (
	"math/big"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval is how often balance and allowance state is refreshed
// while the host modal is open.
const DefaultPollInterval = time.Second

// Config carries the wallet-independent configuration shared by every
// component. It is constructed once by the host during provider
// initialization and passed by reference; there is no module-level mutable
// state. A zero Config is unusable and every consumer rejects it with
// ErrNotConfigured.
type Config struct {
	// Network is the resolved network descriptor.
	Network NetworkDescriptor

	// ProjectID identifies the integrating project on the Papaya contract.
	ProjectID *big.Int

	// PollInterval is the state-refresh interval.
	PollInterval time.Duration

	// Logger receives structured diagnostics. Never nil after NewConfig.
	Logger *zap.Logger

	initialized bool
}

// Option configures a Config.
type Option func(*Config)

// WithProjectID sets the integrating project's id.
func WithProjectID(id *big.Int) Option {
	return func(c *Config) {
		c.ProjectID = id
	}
}

// WithPollInterval overrides the state-refresh interval.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval > 0 {
			c.PollInterval = interval
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// NewConfig builds a Config for the given chain id. It fails with
// ErrUnsupportedNetwork when the chain id is not in the registry.
func NewConfig(chainID int64, opts ...Option) (Config, error) {
	network, err := NetworkByChainID(chainID)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Network:      network,
		ProjectID:    new(big.Int),
		PollInterval: DefaultPollInterval,
		Logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.initialized = true
	return cfg, nil
}

// Validate reports whether the Config went through NewConfig. Components
// reject zero-value configs instead of silently misbehaving.
func (c Config) Validate() error {
	if !c.initialized {
		return ErrNotConfigured
	}
	return nil
}
