package order

import "time"

// Config holds order domain configuration.
type Config struct {
	// StockBreakerMaxFailures is the number of consecutive failed stock
	// dispatches after which dispatching pauses.
	StockBreakerMaxFailures uint32

	// StockBreakerOpenTimeout is how long dispatching stays paused.
	StockBreakerOpenTimeout time.Duration

	// StockBreakerInterval resets the failure counts while closed. Zero keeps them.
	StockBreakerInterval time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StockBreakerMaxFailures: 5,
		StockBreakerOpenTimeout: 30 * time.Second,
		StockBreakerInterval:    time.Minute,
	}
}

// Validate fills unset fields with defaults.
func (c *Config) Validate() error {
	if c.StockBreakerMaxFailures == 0 {
		c.StockBreakerMaxFailures = 5
	}
	if c.StockBreakerOpenTimeout <= 0 {
		c.StockBreakerOpenTimeout = 30 * time.Second
	}
	return nil
}
