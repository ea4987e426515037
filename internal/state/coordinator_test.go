package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spiffcs/reviewdeck/internal/filter"
	"github.com/spiffcs/reviewdeck/internal/ghclient"
	"github.com/spiffcs/reviewdeck/internal/model"
	"github.com/spiffcs/reviewdeck/internal/store"
)

// fakeStore is an in-memory ConfigStore with fault injection.
type fakeStore struct {
	mu      sync.Mutex
	cfg     filter.Configuration
	stored  bool
	loadErr error
	saveErr error
	clear   int
	saves   int
}

func (f *fakeStore) Save(cfg filter.Configuration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.cfg = cfg.Clone()
	f.stored = true
	return nil
}

func (f *fakeStore) Load() (filter.Configuration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return filter.Configuration{}, f.loadErr
	}
	if !f.stored {
		return filter.Configuration{}, store.ErrNotFound
	}
	return f.cfg.Clone(), nil
}

func (f *fakeStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clear++
	f.stored = false
	f.cfg = filter.EmptyConfiguration()
	return nil
}

func (f *fakeStore) saved() filter.Configuration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg.Clone()
}

func (f *fakeStore) clearCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clear
}

// fakeTeamFetcher returns canned results, optionally blocking until
// released so in-flight fetches can be interleaved.
type fakeTeamFetcher struct {
	mu      sync.Mutex
	teams   []model.Team
	err     error
	calls   int
	release chan struct{} // nil means return immediately
}

func (f *fakeTeamFetcher) ListTeams(_ context.Context) ([]model.Team, error) {
	f.mu.Lock()
	f.calls++
	teams, err, release := f.teams, f.err, f.release
	f.mu.Unlock()

	if release != nil {
		<-release
	}
	return teams, err
}

func (f *fakeTeamFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testPRs() []model.PullRequest {
	return []model.PullRequest{
		{RepositoryOwner: "acme", RepositoryName: "api", Number: 1, Title: "Fix login"},
		{RepositoryOwner: "acme", RepositoryName: "web", Number: 2, Title: "Landing page"},
		{RepositoryOwner: "beta", RepositoryName: "tools", Number: 3, Title: "Release script"},
	}
}

// waitFor polls until cond returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func TestLoadPersistedConfigurationMissing(t *testing.T) {
	fs := &fakeStore{}
	c := NewCoordinator(fs, nil)

	c.LoadPersistedConfiguration()

	snap := c.Snapshot()
	if !snap.Configuration.IsEmpty() {
		t.Errorf("expected empty configuration, got %+v", snap.Configuration)
	}
	if snap.ErrorMessage != "" {
		t.Errorf("unexpected message: %q", snap.ErrorMessage)
	}
}

func TestLoadPersistedConfigurationRoundTrip(t *testing.T) {
	fs := &fakeStore{}
	saved := filter.EmptyConfiguration()
	saved.Organizations.Add("acme")
	if err := fs.Save(saved); err != nil {
		t.Fatal(err)
	}

	c := NewCoordinator(fs, nil)
	c.LoadPersistedConfiguration()

	if !c.Snapshot().Configuration.Organizations.Has("acme") {
		t.Error("persisted selection not restored")
	}
}

func TestLoadPersistedConfigurationCorruptResets(t *testing.T) {
	fs := &fakeStore{loadErr: store.ErrCorrupt}
	c := NewCoordinator(fs, nil)

	c.LoadPersistedConfiguration()

	snap := c.Snapshot()
	if !snap.Configuration.IsEmpty() {
		t.Errorf("expected reset configuration, got %+v", snap.Configuration)
	}
	if fs.clearCalls() != 1 {
		t.Errorf("expected corrupt store wiped once, got %d", fs.clearCalls())
	}
	if snap.ErrorMessage == "" {
		t.Error("expected a user-facing message after corrupt load")
	}
}

func TestUpdateSearchQueryDebounce(t *testing.T) {
	fs := &fakeStore{}
	c := NewCoordinator(fs, nil, WithDebounce(50*time.Millisecond))
	c.UpdateMetadata(testPRs())

	c.UpdateSearchQuery("a")
	c.UpdateSearchQuery("ab")

	// Raw updates immediately, debounced lags.
	snap := c.Snapshot()
	if snap.SearchQuery != "ab" {
		t.Errorf("raw query = %q, want %q", snap.SearchQuery, "ab")
	}
	if snap.DebouncedQuery != "" {
		t.Errorf("debounced query applied too early: %q", snap.DebouncedQuery)
	}

	waitFor(t, func() bool {
		return c.Snapshot().DebouncedQuery == "ab"
	}, "debounced query")

	// The superseded "a" must never have been applied; only the final
	// value lands.
	if got := c.Snapshot().DebouncedQuery; got != "ab" {
		t.Errorf("debounced query = %q, want %q", got, "ab")
	}
}

func TestUpdateSearchQuerySupersededNeverApplies(t *testing.T) {
	fs := &fakeStore{}
	c := NewCoordinator(fs, nil, WithDebounce(30*time.Millisecond))

	c.UpdateSearchQuery("stale")
	time.Sleep(10 * time.Millisecond)
	c.UpdateSearchQuery("fresh")

	// Well past the first timer's deadline but before the second's
	// effect is required, the stale value must not appear.
	time.Sleep(25 * time.Millisecond)
	if got := c.Snapshot().DebouncedQuery; got == "stale" {
		t.Error("superseded query was applied")
	}

	waitFor(t, func() bool {
		return c.Snapshot().DebouncedQuery == "fresh"
	}, "final query")
}

func TestClearSearchQuerySynchronous(t *testing.T) {
	fs := &fakeStore{}
	c := NewCoordinator(fs, nil, WithDebounce(50*time.Millisecond))

	c.UpdateSearchQuery("pending")
	c.ClearSearchQuery()

	snap := c.Snapshot()
	if snap.SearchQuery != "" || snap.DebouncedQuery != "" {
		t.Errorf("clear not synchronous: raw=%q debounced=%q", snap.SearchQuery, snap.DebouncedQuery)
	}

	// The cancelled debounce must not resurrect the query later.
	time.Sleep(70 * time.Millisecond)
	if got := c.Snapshot().DebouncedQuery; got != "" {
		t.Errorf("cancelled debounce applied: %q", got)
	}
}

func TestUpdateFilterConfigurationPersists(t *testing.T) {
	fs := &fakeStore{}
	c := NewCoordinator(fs, nil)

	cfg := filter.EmptyConfiguration()
	cfg.Organizations.Add("acme")
	c.UpdateFilterConfiguration(cfg)

	if !fs.saved().Organizations.Has("acme") {
		t.Error("configuration not persisted")
	}
	if !c.Snapshot().Configuration.Organizations.Has("acme") {
		t.Error("configuration not applied in memory")
	}
}

func TestUpdateFilterConfigurationSaveFailureKeepsInMemory(t *testing.T) {
	fs := &fakeStore{saveErr: errors.New("disk full")}
	c := NewCoordinator(fs, nil)

	cfg := filter.EmptyConfiguration()
	cfg.Organizations.Add("acme")
	c.UpdateFilterConfiguration(cfg)

	snap := c.Snapshot()
	if !snap.Configuration.Organizations.Has("acme") {
		t.Error("in-memory configuration reverted on save failure")
	}
	if snap.ErrorMessage == "" {
		t.Error("expected a user-facing message on save failure")
	}
}

func TestClearAllFilters(t *testing.T) {
	fs := &fakeStore{}
	c := NewCoordinator(fs, nil)

	cfg := filter.EmptyConfiguration()
	cfg.Organizations.Add("acme")
	c.UpdateFilterConfiguration(cfg)

	c.ClearAllFilters()

	if !c.Snapshot().Configuration.IsEmpty() {
		t.Error("configuration not cleared")
	}
	if fs.clearCalls() != 1 {
		t.Errorf("store clear calls = %d, want 1", fs.clearCalls())
	}
}

func TestFilteringThroughSnapshot(t *testing.T) {
	fs := &fakeStore{}
	c := NewCoordinator(fs, nil)
	c.UpdateMetadata(testPRs())

	cfg := filter.EmptyConfiguration()
	cfg.Organizations.Add("acme")
	c.UpdateFilterConfiguration(cfg)

	snap := c.Snapshot()
	if len(snap.PullRequests) != 2 {
		t.Fatalf("filtered count = %d, want 2", len(snap.PullRequests))
	}
	for _, pr := range snap.PullRequests {
		if pr.RepositoryOwner != "acme" {
			t.Errorf("unexpected PR %s#%d", pr.RepositoryFullName(), pr.Number)
		}
	}
}

func TestUpdateMetadataPreservesTeamState(t *testing.T) {
	fs := &fakeStore{}
	fetcher := &fakeTeamFetcher{teams: []model.Team{{Slug: "platform", OrganizationLogin: "acme"}}}
	c := NewCoordinator(fs, fetcher)

	c.UpdateMetadataAndTeams(context.Background(), testPRs())
	waitFor(t, func() bool {
		return c.Snapshot().Metadata.Teams.Available()
	}, "teams loaded")

	// A metadata-only refresh must not discard loaded team data.
	c.UpdateMetadata(testPRs()[:1])
	if !c.Snapshot().Metadata.Teams.Available() {
		t.Error("team state lost across metadata refresh")
	}
}

func TestTeamFetchTrimsUnknownSelection(t *testing.T) {
	fs := &fakeStore{}
	saved := filter.EmptyConfiguration()
	saved.Teams.Add("platform")
	saved.Teams.Add("disbanded")
	if err := fs.Save(saved); err != nil {
		t.Fatal(err)
	}

	fetcher := &fakeTeamFetcher{teams: []model.Team{{Slug: "platform", OrganizationLogin: "acme"}}}
	c := NewCoordinator(fs, fetcher)
	c.LoadPersistedConfiguration()

	c.UpdateMetadataAndTeams(context.Background(), testPRs())
	waitFor(t, func() bool {
		return c.Snapshot().Metadata.Teams.Available()
	}, "teams loaded")

	snap := c.Snapshot()
	if snap.Configuration.Teams.Has("disbanded") {
		t.Error("unknown team slug survived the trim")
	}
	if !snap.Configuration.Teams.Has("platform") {
		t.Error("valid team slug was trimmed")
	}
	if !fs.saved().Teams.Equal(snap.Configuration.Teams) {
		t.Error("trimmed selection not re-persisted")
	}
	if snap.ErrorMessage == "" {
		t.Error("expected a message describing the trim")
	}
}

func TestTeamFetchFailureClearsSelection(t *testing.T) {
	fs := &fakeStore{}
	saved := filter.EmptyConfiguration()
	saved.Teams.Add("platform")
	if err := fs.Save(saved); err != nil {
		t.Fatal(err)
	}

	fetcher := &fakeTeamFetcher{err: errors.New("boom")}
	c := NewCoordinator(fs, fetcher)
	c.LoadPersistedConfiguration()

	c.UpdateMetadataAndTeams(context.Background(), testPRs())
	waitFor(t, func() bool {
		return c.Snapshot().Metadata.Teams.Phase == model.TeamsFailed
	}, "team failure")

	snap := c.Snapshot()
	if len(snap.Configuration.Teams) != 0 {
		t.Error("team selection not cleared after fetch failure")
	}
	if len(fs.saved().Teams) != 0 {
		t.Error("cleared selection not re-persisted")
	}
	if snap.Metadata.Teams.Reason != model.TeamFailureTransient {
		t.Errorf("reason = %v, want transient", snap.Metadata.Teams.Reason)
	}
}

func TestForbiddenLatchSkipsRefetch(t *testing.T) {
	fs := &fakeStore{}
	fetcher := &fakeTeamFetcher{err: ghclient.ErrForbidden}
	c := NewCoordinator(fs, fetcher)

	c.UpdateMetadataAndTeams(context.Background(), testPRs())
	waitFor(t, func() bool {
		snap := c.Snapshot()
		return snap.Metadata.Teams.Phase == model.TeamsFailed &&
			snap.Metadata.Teams.Reason == model.TeamFailureForbidden
	}, "forbidden failure")

	calls := fetcher.callCount()

	// While latched, metadata refreshes must not trigger another fetch.
	c.UpdateMetadataAndTeams(context.Background(), testPRs())
	time.Sleep(20 * time.Millisecond)
	if fetcher.callCount() != calls {
		t.Error("forbidden latch did not suppress refetch")
	}

	// An explicit retry clears the latch.
	fetcher.mu.Lock()
	fetcher.err = nil
	fetcher.teams = []model.Team{{Slug: "platform", OrganizationLogin: "acme"}}
	fetcher.mu.Unlock()

	c.RetryTeams(context.Background())
	waitFor(t, func() bool {
		return c.Snapshot().Metadata.Teams.Available()
	}, "teams after retry")
}

func TestStaleTeamFetchDiscarded(t *testing.T) {
	fs := &fakeStore{}
	firstRelease := make(chan struct{})
	fetcher := &fakeTeamFetcher{
		teams:   []model.Team{{Slug: "old", OrganizationLogin: "acme"}},
		release: firstRelease,
	}
	c := NewCoordinator(fs, fetcher)

	// First fetch blocks in flight.
	c.UpdateMetadataAndTeams(context.Background(), testPRs())
	waitFor(t, func() bool { return fetcher.callCount() == 1 }, "first fetch in flight")

	// Second fetch supersedes it and completes immediately.
	fetcher.mu.Lock()
	fetcher.teams = []model.Team{{Slug: "new", OrganizationLogin: "acme"}}
	fetcher.release = nil
	fetcher.mu.Unlock()
	c.RetryTeams(context.Background())

	waitFor(t, func() bool {
		snap := c.Snapshot()
		return snap.Metadata.Teams.Available() &&
			len(snap.Metadata.Teams.Teams) == 1 &&
			snap.Metadata.Teams.Teams[0].Slug == "new"
	}, "fresh teams applied")

	// Now the stale first fetch completes; its result must be dropped.
	close(firstRelease)
	time.Sleep(20 * time.Millisecond)

	snap := c.Snapshot()
	if !snap.Metadata.Teams.Available() || len(snap.Metadata.Teams.Teams) != 1 || snap.Metadata.Teams.Teams[0].Slug != "new" {
		t.Error("stale team fetch overwrote a newer result")
	}
}

func TestNilTeamFetcherResolvesForbidden(t *testing.T) {
	fs := &fakeStore{}
	c := NewCoordinator(fs, nil)

	c.UpdateMetadataAndTeams(context.Background(), testPRs())
	waitFor(t, func() bool {
		snap := c.Snapshot()
		return snap.Metadata.Teams.Phase == model.TeamsFailed &&
			snap.Metadata.Teams.Reason == model.TeamFailureForbidden
	}, "forbidden via nil fetcher")
}

func TestDismissError(t *testing.T) {
	fs := &fakeStore{saveErr: errors.New("disk full")}
	c := NewCoordinator(fs, nil)

	c.UpdateFilterConfiguration(filter.EmptyConfiguration())
	if c.ErrorMessage() == "" {
		t.Fatal("expected a message to dismiss")
	}

	c.DismissError()
	if c.ErrorMessage() != "" {
		t.Error("message not dismissed")
	}
}

func TestChangesChannelSignals(t *testing.T) {
	fs := &fakeStore{}
	c := NewCoordinator(fs, nil)

	ch := c.Changes()
	c.UpdateMetadata(testPRs())

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no change notification received")
	}
}
