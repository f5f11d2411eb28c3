package submission

import (
	"time"

	"github.com/labportal/server/internal/utils/pagination"
)

// Config holds submission domain configuration.
type Config struct {
	MaxFileSize int64
	KeyPrefix   string

	// TaskPageSize is the page size used when walking a milestone's tasks.
	TaskPageSize int

	// MilestoneConcurrency bounds parallel milestone fetches for the dashboard.
	MilestoneConcurrency int

	// FileURLTTL is the lifetime of presigned download links.
	FileURLTTL time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:          50 * 1024 * 1024,
		KeyPrefix:            "submissions",
		TaskPageSize:         100,
		MilestoneConcurrency: 4,
		FileURLTTL:           15 * time.Minute,
	}
}

// Validate fills zero fields with defaults.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = def.MaxFileSize
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = def.KeyPrefix
	}
	if c.TaskPageSize <= 0 || c.TaskPageSize > pagination.MaxPageSize {
		c.TaskPageSize = def.TaskPageSize
	}
	if c.MilestoneConcurrency <= 0 {
		c.MilestoneConcurrency = def.MilestoneConcurrency
	}
	if c.FileURLTTL <= 0 {
		c.FileURLTTL = def.FileURLTTL
	}
	return nil
}
