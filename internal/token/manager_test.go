package token

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/janus/internal/cache"
	"github.com/dropDatabas3/janus/internal/profile"
	"github.com/dropDatabas3/janus/internal/provider"
	"github.com/dropDatabas3/janus/internal/session"
)

// fakeProvider counts refresh calls and returns a scripted result.
type fakeProvider struct {
	mu        sync.Mutex
	refreshes int
	result    *provider.TokenRefresh
	err       error
}

func (f *fakeProvider) FetchProfileByToken(ctx context.Context, token string) (*profile.Profile, error) {
	panic("not used")
}

func (f *fakeProvider) RefreshToken(ctx context.Context, refreshToken string) (*provider.TokenRefresh, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

func newFixture(t *testing.T, fp *fakeProvider) (*Manager, *session.Store) {
	t.Helper()
	sessions := session.NewStore(cache.NewMemory("", 0), time.Minute, 0)
	m := NewManager(sessions, fp, 600*time.Second)
	return m, sessions
}

func TestEnsureValidToken_NoSession(t *testing.T) {
	m, _ := newFixture(t, &fakeProvider{})
	if _, err := m.EnsureValidToken(context.Background(), "s1"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestEnsureValidToken_CachedTokenStillValid(t *testing.T) {
	fp := &fakeProvider{}
	m, sessions := newFixture(t, fp)

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	st := session.NewTokenState("tok-live", "ref-1", now, time.Hour, 600*time.Second)
	if err := sessions.SetToken(context.Background(), "s1", st); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	got, err := m.EnsureValidToken(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if got != "tok-live" {
		t.Fatalf("got %q, want cached token", got)
	}
	if fp.calls() != 0 {
		t.Fatalf("expected no refresh, got %d", fp.calls())
	}
}

func TestEnsureValidToken_RefreshesExpired(t *testing.T) {
	fp := &fakeProvider{result: &provider.TokenRefresh{
		AccessToken:  "tok-new",
		RefreshToken: "ref-2",
		TTL:          time.Hour,
	}}
	m, sessions := newFixture(t, fp)

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	// Issued two hours ago: expired.
	stale := session.NewTokenState("tok-old", "ref-1", now.Add(-2*time.Hour), time.Hour, 600*time.Second)
	if err := sessions.SetToken(context.Background(), "s1", stale); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	got, err := m.EnsureValidToken(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if got != "tok-new" {
		t.Fatalf("got %q, want refreshed token", got)
	}
	if fp.calls() != 1 {
		t.Fatalf("expected exactly one refresh, got %d", fp.calls())
	}

	// The cache now holds the renewed state with the skewed deadline.
	st, err := sessions.GetToken(context.Background(), "s1")
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	if st.AccessToken != "tok-new" || st.RefreshToken != "ref-2" {
		t.Fatalf("cache not rewritten: %+v", st)
	}
	if want := now.Add(time.Hour - 600*time.Second); !st.ExpiresAt.Equal(want) {
		t.Fatalf("expires at %v, want %v", st.ExpiresAt, want)
	}

	// A second call reuses the fresh token without touching the provider.
	if _, err := m.EnsureValidToken(context.Background(), "s1"); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if fp.calls() != 1 {
		t.Fatalf("expected refresh count to stay at 1, got %d", fp.calls())
	}
}

func TestEnsureValidToken_RefreshFailureLeavesCacheIntact(t *testing.T) {
	fp := &fakeProvider{err: provider.ErrRejected}
	m, sessions := newFixture(t, fp)

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	stale := session.NewTokenState("tok-old", "ref-1", now.Add(-2*time.Hour), time.Hour, 600*time.Second)
	if err := sessions.SetToken(context.Background(), "s1", stale); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	_, err := m.EnsureValidToken(context.Background(), "s1")
	if !errors.Is(err, ErrUnrecoverable) {
		t.Fatalf("expected ErrUnrecoverable, got %v", err)
	}
	if fp.calls() != 1 {
		t.Fatalf("expected a single refresh attempt, got %d", fp.calls())
	}

	// The failed refresh must not destroy the cached state.
	st, err := sessions.GetToken(context.Background(), "s1")
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	if st.AccessToken != "tok-old" || st.RefreshToken != "ref-1" {
		t.Fatalf("cache was mutated on failure: %+v", st)
	}
}

func TestEnsureValidToken_ConcurrentRefreshCollapses(t *testing.T) {
	release := make(chan struct{})
	fp := &blockingProvider{
		firstCh: make(chan struct{}),
		release: release,
		result:  &provider.TokenRefresh{AccessToken: "tok-new", RefreshToken: "ref-2", TTL: time.Hour},
	}
	sessions := session.NewStore(cache.NewMemory("", 0), time.Minute, 0)
	m := NewManager(sessions, fp, 600*time.Second)

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	stale := session.NewTokenState("tok-old", "ref-1", now.Add(-2*time.Hour), time.Hour, 600*time.Second)
	if err := sessions.SetToken(context.Background(), "s1", stale); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.EnsureValidToken(context.Background(), "s1")
		}(i)
	}

	// Let every caller reach the singleflight gate, then release the
	// provider.
	<-fp.firstCh
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i] != "tok-new" {
			t.Fatalf("caller %d got %q", i, results[i])
		}
	}
	if got := fp.calls(); got != 1 {
		t.Fatalf("expected one collapsed refresh, got %d", got)
	}
}

// blockingProvider holds every refresh until release is closed.
type blockingProvider struct {
	mu        sync.Mutex
	refreshes int
	first     sync.Once
	firstCh   chan struct{}
	release   chan struct{}
	result    *provider.TokenRefresh
}

func (b *blockingProvider) FetchProfileByToken(ctx context.Context, token string) (*profile.Profile, error) {
	panic("not used")
}

func (b *blockingProvider) RefreshToken(ctx context.Context, refreshToken string) (*provider.TokenRefresh, error) {
	b.mu.Lock()
	b.refreshes++
	b.mu.Unlock()
	b.first.Do(func() { close(b.firstCh) })
	<-b.release
	return b.result, nil
}

func (b *blockingProvider) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshes
}
