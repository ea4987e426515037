// Package state owns the live filter state: the persisted
// configuration, the debounced search query, derived metadata, and the
// asynchronous team fetch. All mutations funnel through one Coordinator
// whose mutex stands in for single-threaded ownership; background work
// (debounce, team fetch) re-acquires the lock before touching state.
package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spiffcs/reviewdeck/internal/filter"
	"github.com/spiffcs/reviewdeck/internal/ghclient"
	"github.com/spiffcs/reviewdeck/internal/log"
	"github.com/spiffcs/reviewdeck/internal/match"
	"github.com/spiffcs/reviewdeck/internal/model"
	"github.com/spiffcs/reviewdeck/internal/store"
)

// DefaultDebounce is the delay before a search query edit takes effect.
const DefaultDebounce = 300 * time.Millisecond

// ConfigStore persists the filter configuration blob.
type ConfigStore interface {
	Save(filter.Configuration) error
	Load() (filter.Configuration, error)
	Clear() error
}

// TeamFetcher supplies team data. May fail with classified errors
// (see ghclient.ClassifyTeamFailure).
type TeamFetcher interface {
	ListTeams(ctx context.Context) ([]model.Team, error)
}

// User-facing messages. Non-technical, and each implies a path back to
// a working state.
const (
	msgSaveFailed    = "Couldn't save your filter preferences. They'll work for this session but may not survive a restart."
	msgLoadCorrupt   = "Your saved filters couldn't be read, so they've been reset. Pick your filters again to re-save them."
	msgClearFailed   = "Filters are cleared for this session, but the saved copy couldn't be removed. Try clearing again."
	msgTeamsCleared  = "Team filters were cleared because your teams couldn't be verified. Organization and repository filters still work."
	msgTeamsTrimmed  = "Some team filters referred to teams that are no longer available and were removed."
	msgTeamForbidden = "Your token doesn't allow reading teams, so team filters are unavailable. Organization and repository filters still work."
)

// Snapshot is an immutable view of the coordinator state handed to the
// presentation layer.
type Snapshot struct {
	Configuration  filter.Configuration
	SearchQuery    string // raw, UI-bound
	DebouncedQuery string // applied to filtering
	Metadata       filter.Metadata
	ErrorMessage   string
	PullRequests   []model.PullRequest // filtered, ranked
}

// Coordinator owns the filter state.
type Coordinator struct {
	mu sync.Mutex

	engine *filter.Engine
	store  ConfigStore
	teams  TeamFetcher

	cfg   filter.Configuration
	meta  filter.Metadata
	prs   []model.PullRequest
	raw   string
	query string // debounced
	err   string

	debounce    time.Duration
	timer       *time.Timer
	debounceGen uint64

	// Stale team fetches are discarded: only the result carrying the
	// latest issued id is applied.
	teamFetchID    uint64
	teamsForbidden bool

	notify chan struct{}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDebounce overrides the search debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) {
		c.debounce = d
	}
}

// WithWeights overrides the search field weights.
func WithWeights(w match.Weights) Option {
	return func(c *Coordinator) {
		c.engine = filter.NewEngine(w)
	}
}

// NewCoordinator creates a coordinator. teams may be nil when team data
// is unavailable by construction (no token scope); team fetches then
// resolve as forbidden.
func NewCoordinator(store ConfigStore, teams TeamFetcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		engine:   filter.NewEngine(match.DefaultWeights()),
		store:    store,
		teams:    teams,
		cfg:      filter.EmptyConfiguration(),
		meta:     filter.DeriveMetadata(nil),
		debounce: DefaultDebounce,
		notify:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Changes returns a coalescing channel that receives a signal whenever
// observable state changes. The presentation layer re-reads Snapshot()
// on each signal.
func (c *Coordinator) Changes() <-chan struct{} {
	return c.notify
}

func (c *Coordinator) notifyLocked() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Snapshot returns the current state, with filtering applied.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Configuration:  c.cfg.Clone(),
		SearchQuery:    c.raw,
		DebouncedQuery: c.query,
		Metadata:       c.meta,
		ErrorMessage:   c.err,
		PullRequests:   c.filteredLocked(),
	}
}

// FilteredPullRequests recomputes the filtered, ranked list from the
// current state.
func (c *Coordinator) FilteredPullRequests() []model.PullRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filteredLocked()
}

func (c *Coordinator) filteredLocked() []model.PullRequest {
	var teams []model.Team
	if c.meta.Teams.Available() {
		teams = c.meta.Teams.Teams
	}
	return c.engine.Apply(c.cfg, c.query, c.prs, teams)
}

// UpdateSearchQuery records the raw query immediately and schedules the
// debounced value. A newer call cancels the pending update outright, so
// only the latest input's effect is ever applied.
func (c *Coordinator) UpdateSearchQuery(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.raw = text
	if c.timer != nil {
		c.timer.Stop()
	}
	c.debounceGen++
	gen := c.debounceGen

	c.timer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// A newer edit superseded this one while the timer was pending.
		if gen != c.debounceGen {
			return
		}
		c.query = text
		c.notifyLocked()
	})
	c.notifyLocked()
}

// ClearSearchQuery cancels any pending debounce and resets both raw and
// debounced query synchronously.
func (c *Coordinator) ClearSearchQuery() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.debounceGen++
	c.raw = ""
	c.query = ""
	c.notifyLocked()
}

// UpdateFilterConfiguration replaces the configuration wholesale and
// persists it. On persistence failure the in-memory value is kept (the
// UI stays responsive) and an explanatory message is set.
func (c *Coordinator) UpdateFilterConfiguration(cfg filter.Configuration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg = cfg.Clone()
	if err := c.store.Save(c.cfg); err != nil {
		log.Warn("failed to persist filter configuration", "error", err)
		c.err = msgSaveFailed
	}
	c.notifyLocked()
}

// LoadPersistedConfiguration loads the stored configuration at startup.
// Corrupt storage is wiped and the configuration reset to empty;
// corruption never crashes startup or surfaces a partially-decoded
// value.
func (c *Coordinator) LoadPersistedConfiguration() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg, err := c.store.Load()
	switch {
	case err == nil:
		c.cfg = cfg
	case errors.Is(err, store.ErrNotFound):
		c.cfg = filter.EmptyConfiguration()
	default:
		log.Warn("stored filter configuration unreadable, resetting", "error", err)
		if clearErr := c.store.Clear(); clearErr != nil {
			log.Warn("failed to clear corrupt filter configuration", "error", clearErr)
		}
		c.cfg = filter.EmptyConfiguration()
		c.err = msgLoadCorrupt
	}
	c.notifyLocked()
}

// ClearAllFilters resets the configuration to empty and clears storage.
// A storage failure sets a message but does not revert the in-memory
// reset.
func (c *Coordinator) ClearAllFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg = filter.EmptyConfiguration()
	if err := c.store.Clear(); err != nil {
		log.Warn("failed to clear stored filter configuration", "error", err)
		c.err = msgClearFailed
	}
	c.notifyLocked()
}

// UpdateMetadata re-derives organization and repository metadata from
// the pull-request collection. Team state is left untouched.
func (c *Coordinator) UpdateMetadata(prs []model.PullRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prs = prs
	teams := c.meta.Teams
	c.meta = filter.DeriveMetadata(prs)
	c.meta.Teams = teams
	c.notifyLocked()
}

// UpdateMetadataAndTeams derives organization and repository metadata
// synchronously, then fetches team data in the background. A forbidden
// failure latches: it is not retried automatically (use RetryTeams
// after re-authorizing).
func (c *Coordinator) UpdateMetadataAndTeams(ctx context.Context, prs []model.PullRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prs = prs
	teams := c.meta.Teams
	c.meta = filter.DeriveMetadata(prs)
	c.meta.Teams = teams

	if c.teamsForbidden {
		c.notifyLocked()
		return
	}
	c.fetchTeamsLocked(ctx)
	c.notifyLocked()
}

// RetryTeams clears the forbidden latch and fetches team data again.
func (c *Coordinator) RetryTeams(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teamsForbidden = false
	c.fetchTeamsLocked(ctx)
	c.notifyLocked()
}

// fetchTeamsLocked starts an asynchronous team fetch stamped with a new
// request id. Results from superseded fetches are dropped so a slow,
// stale response never overwrites a newer one.
func (c *Coordinator) fetchTeamsLocked(ctx context.Context) {
	c.teamFetchID++
	id := c.teamFetchID
	c.meta.Teams = model.TeamsLoadingState()

	go func() {
		var (
			teams []model.Team
			err   error
		)
		if c.teams == nil {
			err = ghclient.ErrForbidden
		} else {
			teams, err = c.teams.ListTeams(ctx)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if id != c.teamFetchID {
			return
		}

		if err != nil {
			c.applyTeamFailureLocked(err)
		} else {
			c.applyTeamsLocked(teams)
		}
		c.notifyLocked()
	}()
}

// applyTeamsLocked installs fetched team data and repairs the selection:
// slugs that no longer resolve to a team are trimmed and the trimmed
// configuration re-persisted.
func (c *Coordinator) applyTeamsLocked(teams []model.Team) {
	c.meta.Teams = model.TeamsLoadedState(teams)

	known := filter.NewStringSet()
	for _, team := range teams {
		known.Add(team.Slug)
	}

	trimmed := c.cfg.Clone()
	for slug := range c.cfg.Teams {
		if !known.Has(slug) {
			trimmed.Teams.Remove(slug)
		}
	}
	if trimmed.Teams.Equal(c.cfg.Teams) {
		return
	}

	c.cfg = trimmed
	if err := c.store.Save(c.cfg); err != nil {
		log.Warn("failed to persist trimmed filter configuration", "error", err)
		c.err = msgSaveFailed
		return
	}
	c.err = msgTeamsTrimmed
}

// applyTeamFailureLocked records a classified team failure. Selected
// team filters must never silently reference teams the app can no
// longer verify, so any team selection is cleared and re-persisted.
func (c *Coordinator) applyTeamFailureLocked(err error) {
	reason := ghclient.ClassifyTeamFailure(err)
	c.meta.Teams = model.TeamsFailedState(reason)
	if reason == model.TeamFailureForbidden {
		c.teamsForbidden = true
		c.err = msgTeamForbidden
	}
	log.Debug("team fetch failed", "error", err)

	if len(c.cfg.Teams) == 0 {
		return
	}
	trimmed := c.cfg.Clone()
	trimmed.Teams = filter.NewStringSet()
	c.cfg = trimmed
	if saveErr := c.store.Save(c.cfg); saveErr != nil {
		log.Warn("failed to persist trimmed filter configuration", "error", saveErr)
		c.err = msgSaveFailed
		return
	}
	c.err = msgTeamsCleared
}

// ErrorMessage returns the current user-facing message, if any.
func (c *Coordinator) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// DismissError clears the current user-facing message.
func (c *Coordinator) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = ""
	c.notifyLocked()
}
