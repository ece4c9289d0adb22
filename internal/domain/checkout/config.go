package checkout

import "time"

// Config holds checkout configuration.
type Config struct {
	// CodePrefix starts every order code, as in ORD-2026-000001.
	CodePrefix string

	// Currency is stamped on new orders.
	Currency string

	// LockTTL bounds how long one idempotency key stays locked.
	LockTTL time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CodePrefix: "ORD",
		Currency:   "VND",
		LockTTL:    10 * time.Second,
	}
}

// Validate fills unset fields with defaults.
func (c *Config) Validate() error {
	if c.CodePrefix == "" {
		c.CodePrefix = "ORD"
	}
	if c.Currency == "" {
		c.Currency = "VND"
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 10 * time.Second
	}
	return nil
}
