// Package config provides configuration management for the lumen photo
// index daemon and CLI.
package config

// Default configuration values for lumen.
const (
	// DefaultRebuildDays is how old a built index may get before the
	// daemon schedules a full rebuild.
	DefaultRebuildDays = 30

	// DefaultCheckInterval is how often the daemon checks index
	// staleness while running.
	DefaultCheckInterval = "1h"

	// DefaultQueryLimit is the number of results returned by ranked
	// queries when no limit is given.
	DefaultQueryLimit = 10
)

// DefaultExclusions contains library-relative patterns hidden from the
// index by default.
var DefaultExclusions = []string{
	"**/*.tmp",
	"Trash/**",
}
