package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"coursegrab/internal/core"
	"coursegrab/internal/metrics"
)

// DiskStore implements Store with one JSON file per fingerprint in a single
// cache directory. The directory may be shared across process runs; atomic
// temp-write+rename keeps readers from ever observing partial files.
type DiskStore struct {
	mu     sync.Mutex
	dir    string
	maxAge time.Duration
	logger *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewDiskStore creates the cache directory if needed and sweeps entries that
// expired while the process was down.
func NewDiskStore(dir string, maxAge time.Duration, logger *slog.Logger) (*DiskStore, error) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	s := &DiskStore{
		dir:    dir,
		maxAge: maxAge,
		logger: logger,
		now:    time.Now,
	}

	if removed := s.Sweep(); removed > 0 {
		logger.Info("removed expired cache files on startup", "count", removed)
	}
	return s, nil
}

// Get implements Store. Expired and unreadable entries are deleted and
// reported as misses; corruption never surfaces as an error.
func (s *DiskStore) Get(query core.Query, maxAge time.Duration) (*core.FetchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := Fingerprint(query)
	path := filepath.Join(s.dir, name)

	fi, err := os.Stat(path)
	if err != nil {
		metrics.CacheMisses.Inc()
		return nil, false
	}

	effective := maxAge
	if effective <= 0 {
		effective = s.maxAge
	}
	age := s.now().Sub(fi.ModTime())
	if age > effective {
		s.logger.Debug("cache expired", "file", name, "age", age)
		s.removeLocked(path)
		metrics.CacheMisses.Inc()
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.removeLocked(path)
		metrics.CacheMisses.Inc()
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.logger.Warn("deleting corrupt cache file", "file", name, "error", err)
		s.removeLocked(path)
		metrics.CacheMisses.Inc()
		return nil, false
	}

	result := entry.Result
	result.Provenance = &core.Provenance{
		Source:     core.SourceCache,
		CacheFile:  name,
		CachedAt:   entry.Info.CachedAt,
		AgeSeconds: age.Seconds(),
	}
	metrics.CacheHits.Inc()
	return &result, true
}

// Put implements Store. The entry is written to a temp path first and renamed
// into place so a crash mid-write never leaves a partial file visible.
func (s *DiskStore) Put(query core.Query, result *core.FetchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := Fingerprint(query)
	path := filepath.Join(s.dir, name)

	stored := *result
	stored.Provenance = nil

	entry := Entry{
		Result: stored,
		Info: Info{
			CachedAt: s.now().UTC(),
			File:     name,
			Query:    query.Normalized(),
			Version:  core.APIVersion,
		},
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming cache file: %w", err)
	}

	s.logger.Debug("cached result", "file", name)
	return nil
}

// Clear implements Store. A category matches by fingerprint prefix.
func (s *DiskStore) Clear(category string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, path := range s.entryPathsLocked() {
		if category != "" && !strings.HasPrefix(filepath.Base(path), category+"_") {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
	}
	return removed
}

// Stats implements Store.
func (s *DiskStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Dir:         s.dir,
		MaxAgeHours: s.maxAge.Hours(),
	}

	seen := map[string]bool{}
	now := s.now()
	for _, path := range s.entryPathsLocked() {
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		stats.TotalFiles++
		stats.TotalSizeBytes += fi.Size()
		if now.Sub(fi.ModTime()) > s.maxAge {
			stats.ExpiredFiles++
		}

		stem := strings.TrimSuffix(filepath.Base(path), ".json")
		if category, _, ok := strings.Cut(stem, "_"); ok {
			seen[category] = true
		}

		mod := fi.ModTime()
		if stats.OldestFile.IsZero() || mod.Before(stats.OldestFile) {
			stats.OldestFile = mod
		}
		if mod.After(stats.NewestFile) {
			stats.NewestFile = mod
		}
	}

	stats.Categories = make([]string, 0, len(seen))
	for category := range seen {
		stats.Categories = append(stats.Categories, category)
	}
	sort.Strings(stats.Categories)
	return stats
}

// Sweep deletes every currently expired entry, returning the count removed.
func (s *DiskStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := s.now()
	for _, path := range s.entryPathsLocked() {
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		if now.Sub(fi.ModTime()) > s.maxAge {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
	}
	return removed
}

// ExportAll reads every parsable entry into a single document keyed by
// fingerprint stem. Unreadable entries are skipped, not fatal.
func (s *DiskStore) ExportAll() map[string]json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make(map[string]json.RawMessage)
	for _, path := range s.entryPathsLocked() {
		data, err := os.ReadFile(path)
		if err != nil || !json.Valid(data) {
			s.logger.Warn("skipping unreadable cache file during export", "file", filepath.Base(path))
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(path), ".json")
		all[stem] = json.RawMessage(data)
	}
	return all
}

// entryPathsLocked lists the cache entry files. Callers must hold mu.
func (s *DiskStore) entryPathsLocked() []string {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil
	}
	return paths
}

func (s *DiskStore) removeLocked(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("could not remove cache file", "file", filepath.Base(path), "error", err)
	}
}
