package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"coursegrab/internal/cache"
	"coursegrab/internal/core"
)

// fakeFetcher scripts network outcomes and counts calls.
type fakeFetcher struct {
	mu        sync.Mutex
	calls     int
	result    *core.FetchResult
	err       error
	block     chan struct{} // when set, GetCourses waits until closed
	started   chan struct{} // signaled once a blocked call is underway
	startOnce sync.Once
}

func (f *fakeFetcher) GetCourses(ctx context.Context, query core.Query) (*core.FetchResult, error) {
	f.mu.Lock()
	f.calls++
	block, started := f.block, f.started
	f.mu.Unlock()

	if block != nil {
		if started != nil {
			f.startOnce.Do(func() { close(started) })
		}
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	// Copy so callers mutating provenance don't share state.
	r := *f.result
	return &r, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeStore is an in-memory cache.Store.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]core.FetchResult
	puts    int
	gets    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string]core.FetchResult{}}
}

func (s *fakeStore) Get(query core.Query, maxAge time.Duration) (*core.FetchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	r, ok := s.entries[cache.Fingerprint(query)]
	if !ok {
		return nil, false
	}
	r.Provenance = &core.Provenance{
		Source:     core.SourceCache,
		CacheFile:  cache.Fingerprint(query),
		AgeSeconds: 42,
	}
	return &r, true
}

func (s *fakeStore) Put(query core.Query, result *core.FetchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	s.entries[cache.Fingerprint(query)] = *result
	return nil
}

func (s *fakeStore) Clear(category string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = map[string]core.FetchResult{}
	return n
}

func (s *fakeStore) Stats() cache.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cache.Stats{TotalFiles: len(s.entries)}
}

func networkResult() *core.FetchResult {
	return &core.FetchResult{
		Items:       []core.Course{{Name: "From Network", URL: "https://example.com/n"}},
		TotalPages:  3,
		CurrentPage: 1,
	}
}

func newTestOrchestrator(fetcher Fetcher, store cache.Store) *Orchestrator {
	return New(fetcher, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRequest_CacheMissFetchesAndWritesThrough(t *testing.T) {
	fetcher := &fakeFetcher{result: networkResult()}
	store := newFakeStore()
	o := newTestOrchestrator(fetcher, store)

	q := core.Query{Page: 1, Category: "Business", Sort: "Date"}
	result, err := o.Request(context.Background(), q, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("fetcher calls = %d, want 1", fetcher.callCount())
	}
	if store.puts != 1 {
		t.Errorf("store puts = %d, want write-through", store.puts)
	}
	if result.Provenance == nil || result.Provenance.Source != core.SourceNetwork {
		t.Error("expected network provenance")
	}
}

func TestRequest_CacheHitSkipsNetwork(t *testing.T) {
	fetcher := &fakeFetcher{result: networkResult()}
	store := newFakeStore()
	o := newTestOrchestrator(fetcher, store)
	q := core.Query{Page: 1, Category: "Business", Sort: "Date"}

	if _, err := o.Request(context.Background(), q, Options{}); err != nil {
		t.Fatalf("priming fetch: %v", err)
	}

	result, err := o.Request(context.Background(), q, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("fetcher calls = %d, want cache hit to skip network", fetcher.callCount())
	}
	if result.Provenance == nil || result.Provenance.Source != core.SourceCache {
		t.Error("expected cache provenance")
	}
	if result.Provenance.AgeSeconds != 42 {
		t.Errorf("AgeSeconds = %f, want age surfaced to caller", result.Provenance.AgeSeconds)
	}
}

func TestRequest_ForceRefreshBypassesCache(t *testing.T) {
	fetcher := &fakeFetcher{result: networkResult()}
	store := newFakeStore()
	o := newTestOrchestrator(fetcher, store)
	q := core.Query{Page: 1, Category: "Business", Sort: "Date"}

	if _, err := o.Request(context.Background(), q, Options{}); err != nil {
		t.Fatalf("priming fetch: %v", err)
	}

	result, err := o.Request(context.Background(), q, Options{ForceRefresh: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.callCount() != 2 {
		t.Errorf("fetcher calls = %d, want refresh to hit network", fetcher.callCount())
	}
	if result.Provenance.Source != core.SourceNetwork {
		t.Error("expected network provenance on refresh")
	}
}

func TestRequest_CacheFirstWinsOverForceRefresh(t *testing.T) {
	fetcher := &fakeFetcher{result: networkResult()}
	store := newFakeStore()
	o := newTestOrchestrator(fetcher, store)
	q := core.Query{Page: 1, Category: "Business", Sort: "Date"}

	if _, err := o.Request(context.Background(), q, Options{}); err != nil {
		t.Fatalf("priming fetch: %v", err)
	}

	result, err := o.Request(context.Background(), q, Options{ForceRefresh: true, CacheFirst: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("fetcher calls = %d, want cache-first hit to skip network", fetcher.callCount())
	}
	if result.Provenance.Source != core.SourceCache {
		t.Error("expected cache provenance")
	}
}

func TestRequest_CacheFirstMissFallsThrough(t *testing.T) {
	fetcher := &fakeFetcher{result: networkResult()}
	store := newFakeStore()
	o := newTestOrchestrator(fetcher, store)

	q := core.Query{Page: 1, Category: "Design", Sort: "Date"}
	result, err := o.Request(context.Background(), q, Options{CacheFirst: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("fetcher calls = %d, want miss to fetch", fetcher.callCount())
	}
	if result.Provenance.Source != core.SourceNetwork {
		t.Error("expected network provenance after cache-first miss")
	}
}

func TestRequest_ErrorPropagatesUnchanged(t *testing.T) {
	fetchErr := core.NewServerError(502)
	fetcher := &fakeFetcher{err: fetchErr}
	store := newFakeStore()
	o := newTestOrchestrator(fetcher, store)

	_, err := o.Request(context.Background(), core.Query{Page: 1}, Options{})
	if !errors.Is(err, fetchErr) {
		t.Errorf("err = %v, want the fetch error unchanged", err)
	}
	if store.puts != 0 {
		t.Error("failed fetches must not be cached")
	}
}

func TestRequest_RejectsWhileLoading(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	fetcher := &fakeFetcher{result: networkResult(), block: block, started: started}
	store := newFakeStore()
	o := newTestOrchestrator(fetcher, store)
	q := core.Query{Page: 1, Category: "Business", Sort: "Date"}

	outcome := o.RequestAsync(context.Background(), q, Options{})
	<-started

	if !o.State().Loading {
		t.Error("State().Loading = false during in-flight request")
	}

	// Concurrent request is rejected, not queued.
	_, err := o.Request(context.Background(), q, Options{})
	if !errors.Is(err, ErrBusy) {
		t.Errorf("err = %v, want ErrBusy", err)
	}

	close(block)
	got := <-outcome
	if got.Err != nil {
		t.Fatalf("async outcome error: %v", got.Err)
	}
	if got.Result == nil || len(got.Result.Items) != 1 {
		t.Error("async outcome missing result")
	}

	if o.State().Loading {
		t.Error("State().Loading = true after completion")
	}
	// The gate reopens once the flight completes.
	if _, err := o.Request(context.Background(), q, Options{}); err != nil {
		t.Errorf("request after completion failed: %v", err)
	}
}

func TestRequest_StateTracksQuery(t *testing.T) {
	fetcher := &fakeFetcher{result: networkResult()}
	o := newTestOrchestrator(fetcher, newFakeStore())

	q := core.Query{Page: 4, Category: "Music", Sort: "Popularity", Search: "guitar"}
	if _, err := o.Request(context.Background(), q, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := o.State()
	if state.Page != 4 || state.Category != "Music" || state.Sort != "Popularity" || state.Search != "guitar" {
		t.Errorf("state = %+v, does not track last query", state)
	}
}

func TestClearCacheWhileFetchInFlight(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	fetcher := &fakeFetcher{result: networkResult(), block: block, started: started}
	store := newFakeStore()
	o := newTestOrchestrator(fetcher, store)

	outcome := o.RequestAsync(context.Background(), core.Query{Page: 1}, Options{})
	<-started

	// Cache maintenance must not deadlock against the loading gate.
	done := make(chan struct{})
	var cleared atomic.Int64
	go func() {
		cleared.Store(int64(o.ClearCache("")))
		o.CacheStats()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cache operations blocked behind in-flight fetch")
	}

	close(block)
	<-outcome
}
