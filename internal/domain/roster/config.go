package roster

import "time"

// Config holds roster aggregation configuration.
type Config struct {
	// ChunkSize is the number of user IDs per User Directory batch request.
	ChunkSize int

	// Concurrency bounds parallel batch requests.
	Concurrency int

	// CacheTTL is how long a computed roster is served from the cache.
	CacheTTL time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:   50,
		Concurrency: 4,
		CacheTTL:    5 * time.Minute,
	}
}

// Validate fills zero fields with defaults.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = def.ChunkSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.CacheTTL < 0 {
		c.CacheTTL = 0
	}
	return nil
}
