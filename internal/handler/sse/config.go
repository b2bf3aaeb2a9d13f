package sse

import "time"

// Config holds configuration for SSE connections
type Config struct {
	// KeepAliveInterval is how often a quiet stream gets a keep-alive comment.
	// 10-15 seconds stays under common proxy idle timeouts.
	KeepAliveInterval time.Duration

	// EventIDs adds an "id:" line with the sequence number to every event.
	EventIDs bool
}

// DefaultConfig returns the default SSE configuration
func DefaultConfig() *Config {
	return &Config{
		KeepAliveInterval: 10 * time.Second,
	}
}

// NewStrategy returns the keep-alive strategy for this configuration.
func (c *Config) NewStrategy() KeepAliveStrategy {
	return NewTickerKeepAlive(c.KeepAliveInterval)
}
