// Package service orchestrates data flow between the GitHub API and the
// caching layer.
package service

import (
	"context"

	"github.com/spiffcs/reviewdeck/internal/cache"
	"github.com/spiffcs/reviewdeck/internal/ghclient"
	"github.com/spiffcs/reviewdeck/internal/log"
	"github.com/spiffcs/reviewdeck/internal/model"
	"golang.org/x/sync/errgroup"
)

// Fetcher combines the GitHub sources with cache-aside reads.
type Fetcher struct {
	prs         ghclient.PullRequestSource
	teams       ghclient.TeamSource
	cache       cache.Cacher
	currentUser string
}

// NewFetcher creates a Fetcher. If c is nil, caching is disabled.
func NewFetcher(prs ghclient.PullRequestSource, teams ghclient.TeamSource, c cache.Cacher, currentUser string) *Fetcher {
	return &Fetcher{
		prs:         prs,
		teams:       teams,
		cache:       c,
		currentUser: currentUser,
	}
}

// CurrentUser returns the authenticated user's username.
func (f *Fetcher) CurrentUser() string {
	return f.currentUser
}

// PullRequests fetches the review-requested PR list with caching
// support. Returns (prs, fromCache, error).
func (f *Fetcher) PullRequests(ctx context.Context) ([]model.PullRequest, bool, error) {
	if f.cache != nil {
		if prs, ok := f.cache.GetPRList(f.currentUser); ok {
			return prs, true, nil
		}
	}

	if ghclient.IsRateLimited() {
		return nil, false, ghclient.ErrRateLimited
	}

	prs, err := f.prs.ListReviewRequestedPRs(ctx, f.currentUser)
	if err != nil {
		return nil, false, err
	}

	if f.cache != nil {
		if err := f.cache.SetPRList(f.currentUser, prs); err != nil {
			log.Debug("failed to cache PR list", "error", err)
		}
	}

	return prs, false, nil
}

// ListTeams fetches the user's teams with caching support. It satisfies
// state.TeamFetcher so the coordinator can refresh teams through the
// same cache-aside path.
func (f *Fetcher) ListTeams(ctx context.Context) ([]model.Team, error) {
	if f.cache != nil {
		if teams, ok := f.cache.GetTeamList(f.currentUser); ok {
			return teams, nil
		}
	}

	if ghclient.IsRateLimited() {
		return nil, ghclient.ErrRateLimited
	}

	teams, err := f.teams.ListTeams(ctx)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if err := f.cache.SetTeamList(f.currentUser, teams); err != nil {
			log.Debug("failed to cache team list", "error", err)
		}
	}

	return teams, nil
}

// FetchResult bundles a parallel fetch of PRs and teams. TeamErr is
// carried separately: a team failure must not block PR filtering.
type FetchResult struct {
	PRs       []model.PullRequest
	FromCache bool
	Teams     []model.Team
	TeamErr   error
}

// FetchAll fetches the PR list and the team list concurrently. A PR
// fetch failure fails the whole call; a team failure only populates
// TeamErr so callers can degrade to org/repo filtering.
func (f *Fetcher) FetchAll(ctx context.Context) (*FetchResult, error) {
	result := &FetchResult{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		prs, fromCache, err := f.PullRequests(gctx)
		if err != nil {
			return err
		}
		result.PRs = prs
		result.FromCache = fromCache
		return nil
	})

	g.Go(func() error {
		teams, err := f.ListTeams(gctx)
		if err != nil {
			result.TeamErr = err
			return nil
		}
		result.Teams = teams
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}
