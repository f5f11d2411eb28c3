package invitation

import "time"

// Config holds invitation domain configuration.
type Config struct {
	// TTL is how long an invitation stays pending before it expires.
	TTL time.Duration

	// MaxMessageLength bounds the optional message, in runes.
	MaxMessageLength int

	// MaxCandidatePages caps how many User Directory pages ListCandidates reads.
	MaxCandidatePages int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		TTL:               7 * 24 * time.Hour,
		MaxMessageLength:  500,
		MaxCandidatePages: 50,
	}
}

// Validate fills zero fields with defaults.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.TTL <= 0 {
		c.TTL = def.TTL
	}
	if c.MaxMessageLength <= 0 {
		c.MaxMessageLength = def.MaxMessageLength
	}
	if c.MaxCandidatePages <= 0 {
		c.MaxCandidatePages = def.MaxCandidatePages
	}
	return nil
}
