package suggest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeFetcher counts calls and serves a scripted result. An optional gate
// channel blocks the fetch until released, for in-flight scenarios.
type fakeFetcher struct {
	items []Suggestion
	err   error
	gate  chan struct{}
	calls atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, site string, kind Kind) ([]Suggestion, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

// memStore is an in-memory Store for coordinator tests.
type memStore struct {
	mu   sync.Mutex
	sets map[string][]Suggestion
}

func newMemStore() *memStore {
	return &memStore{sets: make(map[string][]Suggestion)}
}

func (m *memStore) ReplaceAll(site string, kind Kind, items []Suggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[kind.String()+"/"+site] = items
	return nil
}

func (m *memStore) Read(site string, kind Kind) ([]Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets[kind.String()+"/"+site], nil
}

type reachable bool

func (r reachable) IsReachable() bool { return bool(r) }

func mentions(logins ...string) []Suggestion {
	items := make([]Suggestion, 0, len(logins))
	for _, l := range logins {
		items = append(items, UserSuggestion{Login: l, DisplayName: l})
	}
	return items
}

func TestCoordinatorValidation(t *testing.T) {
	st := newMemStore()
	client := &fakeFetcher{}

	if _, err := NewCoordinator(nil, st, nil, 0); !errors.Is(err, ErrMissingClient) {
		t.Errorf("nil client: got %v, want ErrMissingClient", err)
	}
	if _, err := NewCoordinator(client, nil, nil, 0); !errors.Is(err, ErrMissingStore) {
		t.Errorf("nil store: got %v, want ErrMissingStore", err)
	}

	coord, err := NewCoordinator(client, st, nil, 0)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	if _, err := coord.Get(context.Background(), "", KindMention); !errors.Is(err, ErrHostnameUnavailable) {
		t.Errorf("empty site: got %v, want ErrHostnameUnavailable", err)
	}
}

// A non-empty cached set must be served without any network call.
func TestCoordinatorCacheFirst(t *testing.T) {
	st := newMemStore()
	if err := st.ReplaceAll("daily.example.com", KindMention, mentions("matt", "elena")); err != nil {
		t.Fatal(err)
	}
	client := &fakeFetcher{items: mentions("should-not-be-fetched")}

	coord, err := NewCoordinator(client, st, reachable(true), 0)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	got, err := coord.Get(context.Background(), "daily.example.com", KindMention)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 2 || got[0].Key() != "matt" {
		t.Errorf("unexpected cached result: %v", got)
	}
	if n := client.calls.Load(); n != 0 {
		t.Errorf("cache hit triggered %d network calls, want 0", n)
	}
}

// Empty cache while offline fails with ErrNoResults, no network attempt.
func TestCoordinatorOfflineEmptyCache(t *testing.T) {
	client := &fakeFetcher{items: mentions("matt")}
	coord, err := NewCoordinator(client, newMemStore(), reachable(false), 0)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	_, err = coord.Get(context.Background(), "daily.example.com", KindMention)
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("got %v, want ErrNoResults", err)
	}
	if n := client.calls.Load(); n != 0 {
		t.Errorf("offline lookup triggered %d network calls, want 0", n)
	}
}

// Concurrent lookups for the same (site, kind) coalesce into one fetch and
// every caller receives the result.
func TestCoordinatorSingleFlight(t *testing.T) {
	client := &fakeFetcher{
		items: mentions("matt"),
		gate:  make(chan struct{}),
	}
	coord, err := NewCoordinator(client, newMemStore(), reachable(true), 0)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]Suggestion, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = coord.Get(context.Background(), "daily.example.com", KindMention)
		}(i)
	}

	// Let the callers pile up on the in-flight fetch, then release it.
	for client.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	close(client.gate)
	wg.Wait()

	if n := client.calls.Load(); n != 1 {
		t.Errorf("%d concurrent lookups made %d network calls, want 1", callers, n)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if len(results[i]) != 1 || results[i][0].Key() != "matt" {
			t.Errorf("caller %d got %v, want [matt]", i, results[i])
		}
	}
}

// Lookups for different sites never serialize on each other's flight.
func TestCoordinatorInFlightKeyedPerSite(t *testing.T) {
	blocked := &fakeFetcher{
		items: mentions("slow"),
		gate:  make(chan struct{}),
	}
	coord, err := NewCoordinator(blocked, newMemStore(), reachable(true), 0)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	// Hold a fetch for site A open.
	done := make(chan struct{})
	go func() {
		defer close(done)
		coord.Get(context.Background(), "a.example.com", KindMention)
	}()
	for blocked.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	// Site B must complete while A is still in flight. The shared gate
	// means B's fetch blocks too unless it runs on its own flight, so a
	// second call observed below proves the flights are independent.
	go coord.Get(context.Background(), "b.example.com", KindMention)
	deadline := time.After(2 * time.Second)
	for blocked.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("fetch for site B never started while site A was in flight")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	close(blocked.gate)
	<-done
}

// A successful fetch replaces the stored set wholesale and returns it.
func TestCoordinatorReplaceOnSuccess(t *testing.T) {
	st := newMemStore()
	client := &fakeFetcher{items: mentions("gamma")}
	coord, err := NewCoordinator(client, st, reachable(true), 0)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	got, err := coord.Refresh(context.Background(), "daily.example.com", KindMention)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(got) != 1 || got[0].Key() != "gamma" {
		t.Fatalf("Refresh returned %v, want [gamma]", got)
	}

	stored, err := st.Read("daily.example.com", KindMention)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 || stored[0].Key() != "gamma" {
		t.Errorf("stored set = %v, want exactly [gamma]", stored)
	}
}

// A failed fetch surfaces the typed error and never touches the cache.
func TestCoordinatorFailurePreservesCache(t *testing.T) {
	testCases := []struct {
		name    string
		err     error
		wantErr func(error) bool
	}{
		{
			"transport failure",
			&TransportError{Cause: fmt.Errorf("connection refused")},
			func(err error) bool {
				var te *TransportError
				return errors.As(err, &te)
			},
		},
		{
			"malformed payload",
			&DecodeError{Cause: fmt.Errorf("invalid character 'n'")},
			func(err error) bool {
				var de *DecodeError
				return errors.As(err, &de)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			st := newMemStore()
			if err := st.ReplaceAll("daily.example.com", KindCrossPost,
				[]Suggestion{SiteSuggestion{Subdomain: "alpha", Title: "Alpha"}}); err != nil {
				t.Fatal(err)
			}

			coord, err := NewCoordinator(&fakeFetcher{err: tc.err}, st, reachable(true), 0)
			if err != nil {
				t.Fatalf("NewCoordinator: %v", err)
			}

			// Refresh skips the cache-first check so the failing fetch runs.
			_, err = coord.Refresh(context.Background(), "daily.example.com", KindCrossPost)
			if err == nil || !tc.wantErr(err) {
				t.Fatalf("got %v, want typed %s", err, tc.name)
			}

			stored, readErr := st.Read("daily.example.com", KindCrossPost)
			if readErr != nil {
				t.Fatal(readErr)
			}
			if len(stored) != 1 || stored[0].Key() != "alpha" {
				t.Errorf("failed fetch mutated cache: %v, want [alpha]", stored)
			}
		})
	}
}

// A fetch exceeding the configured deadline fails with ErrTimeout and the
// in-flight state clears, so the next lookup fetches again.
func TestCoordinatorFetchTimeout(t *testing.T) {
	client := &fakeFetcher{
		items: mentions("matt"),
		gate:  make(chan struct{}), // never released, fetch blocks until deadline
	}
	coord, err := NewCoordinator(client, newMemStore(), reachable(true), 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	_, err = coord.Get(context.Background(), "daily.example.com", KindMention)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}

	// Flight must be cleared: a retry reaches the fetcher again.
	before := client.calls.Load()
	coord.Get(context.Background(), "daily.example.com", KindMention)
	if client.calls.Load() != before+1 {
		t.Error("in-flight state not cleared after timeout")
	}
}

// A store failure during the replace surfaces as StoreError.
func TestCoordinatorStoreFailure(t *testing.T) {
	client := &fakeFetcher{items: mentions("matt")}
	coord, err := NewCoordinator(client, failingStore{}, reachable(true), 0)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	_, err = coord.Get(context.Background(), "daily.example.com", KindMention)
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want StoreError", err)
	}
}

type failingStore struct{}

func (failingStore) ReplaceAll(string, Kind, []Suggestion) error {
	return fmt.Errorf("disk full")
}

func (failingStore) Read(string, Kind) ([]Suggestion, error) { return nil, nil }
