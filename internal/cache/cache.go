// Package cache maps query fingerprints to previously fetched results on
// local disk, with time-based expiry and atomic writes.
package cache

import (
	"time"

	"coursegrab/internal/core"
)

// DefaultMaxAge is how long an entry stays fresh unless overridden.
const DefaultMaxAge = 6 * time.Hour

// Entry is the on-disk payload: the fetch result plus cache provenance.
type Entry struct {
	Result core.FetchResult `json:"result"`
	Info   Info             `json:"cache_info"`
}

// Info records how an entry came to be cached.
type Info struct {
	CachedAt time.Time  `json:"cached_at"`
	File     string     `json:"cache_file"`
	Query    core.Query `json:"query"`
	Version  string     `json:"version"`
}

// Stats aggregates the state of the cache directory.
type Stats struct {
	TotalFiles     int       `json:"total_files"`
	TotalSizeBytes int64     `json:"total_size_bytes"`
	ExpiredFiles   int       `json:"expired_files"`
	Categories     []string  `json:"categories"`
	OldestFile     time.Time `json:"oldest_file,omitzero"`
	NewestFile     time.Time `json:"newest_file,omitzero"`
	Dir            string    `json:"cache_dir"`
	MaxAgeHours    float64   `json:"max_age_hours"`
}

// Store is the cache surface the orchestrator consumes.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the cached result for a query, or false on a miss.
	// Entries older than maxAge (or the store default when maxAge is zero)
	// count as misses and are deleted. Hits carry cache provenance.
	Get(query core.Query, maxAge time.Duration) (*core.FetchResult, bool)

	// Put stores a result under the query's fingerprint atomically.
	Put(query core.Query, result *core.FetchResult) error

	// Clear deletes all entries, or only those for the given category,
	// returning the number removed.
	Clear(category string) int

	// Stats reports aggregate cache state.
	Stats() Stats
}
