// Package orchestrator coordinates the cache store and the remote fetch
// client for a single UI consumer.
//
// One query runs at a time: a request issued while another is loading is
// rejected immediately rather than queued, and the UI is expected to disable
// its trigger controls while loading.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"coursegrab/internal/cache"
	"coursegrab/internal/core"
)

// ErrBusy is returned when a request arrives while another is in flight.
var ErrBusy = errors.New("a fetch is already in progress")

// Fetcher is the remote client surface the orchestrator consumes.
type Fetcher interface {
	GetCourses(ctx context.Context, query core.Query) (*core.FetchResult, error)
}

// Options control where a request is allowed to read from.
type Options struct {
	// ForceRefresh skips the cache read and always hits the network.
	ForceRefresh bool
	// CacheFirst prefers any cache hit even when ForceRefresh is set;
	// used on startup to render instantly before refreshing.
	CacheFirst bool
	// MaxAge overrides the store's freshness window for this request.
	MaxAge time.Duration
}

// State is the session snapshot the UI reads for its controls.
type State struct {
	Page     int    `json:"page"`
	Category string `json:"category"`
	Sort     string `json:"sort"`
	Search   string `json:"search,omitempty"`
	Loading  bool   `json:"loading"`
}

// Outcome is the single message a background request delivers.
type Outcome struct {
	Result *core.FetchResult
	Err    error
}

// Orchestrator owns query/session state. Construct with New; dependencies
// are injected, never global.
type Orchestrator struct {
	fetcher Fetcher
	store   cache.Store
	logger  *slog.Logger

	mu    sync.Mutex
	state State
}

// New builds an Orchestrator. A nil logger falls back to slog.Default.
func New(fetcher Fetcher, store cache.Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
	}
}

// Request resolves one query: cache first, then network with write-through.
// Typed fetch errors propagate to the caller unchanged; ErrBusy is returned
// without touching cache or network when another request is loading.
func (o *Orchestrator) Request(ctx context.Context, query core.Query, opts Options) (*core.FetchResult, error) {
	query = query.Normalized()

	if !o.beginLoad(query) {
		return nil, ErrBusy
	}
	defer o.endLoad()

	if opts.CacheFirst {
		if result, ok := o.store.Get(query, opts.MaxAge); ok {
			o.logger.Info("serving from cache", "file", result.Provenance.CacheFile, "cache_first", true)
			return result, nil
		}
	} else if !opts.ForceRefresh {
		if result, ok := o.store.Get(query, opts.MaxAge); ok {
			o.logger.Info("serving from cache", "file", result.Provenance.CacheFile)
			return result, nil
		}
	}

	result, err := o.fetcher.GetCourses(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := o.store.Put(query, result); err != nil {
		// A failed cache write degrades future requests, not this one.
		o.logger.Warn("cache write failed", "error", err)
	}

	result.Provenance = &core.Provenance{Source: core.SourceNetwork}
	o.logger.Info("fetched from network",
		"page", query.Page,
		"category", query.Category,
		"items", len(result.Items),
	)
	return result, nil
}

// RequestAsync runs Request in a background goroutine and delivers exactly
// one Outcome on the returned channel. The channel is buffered, so the
// result never blocks on a slow consumer.
func (o *Orchestrator) RequestAsync(ctx context.Context, query core.Query, opts Options) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		result, err := o.Request(ctx, query, opts)
		ch <- Outcome{Result: result, Err: err}
	}()
	return ch
}

// State returns the current session snapshot.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// CacheStats reports aggregate cache state for the UI.
func (o *Orchestrator) CacheStats() cache.Stats {
	return o.store.Stats()
}

// ClearCache deletes cache entries, optionally scoped to one category,
// returning the count removed. Safe to call while a fetch is in flight.
func (o *Orchestrator) ClearCache(category string) int {
	return o.store.Clear(category)
}

func (o *Orchestrator) beginLoad(query core.Query) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Loading {
		return false
	}
	o.state = State{
		Page:     query.Page,
		Category: query.Category,
		Sort:     query.Sort,
		Search:   query.Search,
		Loading:  true,
	}
	return true
}

func (o *Orchestrator) endLoad() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Loading = false
}
