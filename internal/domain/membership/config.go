package membership

// Config holds membership domain configuration.
type Config struct {
	// VerifyAfterWrite re-reads the user's memberships after a join and rolls the
	// join back if a competing membership in the same semester became visible.
	VerifyAfterWrite bool

	// ProjectLookupConcurrency bounds parallel Project Directory lookups when
	// evaluating a user's other memberships.
	ProjectLookupConcurrency int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		VerifyAfterWrite:         true,
		ProjectLookupConcurrency: 4,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ProjectLookupConcurrency <= 0 {
		c.ProjectLookupConcurrency = 4
	}
	return nil
}
