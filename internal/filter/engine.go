package filter

import (
	"strings"

	"github.com/spiffcs/reviewdeck/internal/match"
	"github.com/spiffcs/reviewdeck/internal/model"
)

// Engine composes the structured filters and the fuzzy matcher into a
// single deterministic pipeline.
type Engine struct {
	matcher *match.Matcher
}

// NewEngine creates an engine using the given field weights for the
// search stage.
func NewEngine(weights match.Weights) *Engine {
	return &Engine{matcher: match.NewMatcher(weights)}
}

// Apply runs the filter pipeline over prs. Stages run in a fixed order,
// each on the previous stage's output: organization, repository, team,
// then fuzzy search. The set-membership stages are cheap and shrink the
// dataset before the string-similarity stage runs. Identical inputs
// always yield identical, identically-ordered output; with no
// constraints and no query the input passes through unchanged.
func (e *Engine) Apply(cfg Configuration, query string, prs []model.PullRequest, teams []model.Team) []model.PullRequest {
	working := prs

	if len(cfg.Organizations) > 0 {
		working = keep(working, func(pr model.PullRequest) bool {
			return cfg.Organizations.Has(pr.RepositoryOwner)
		})
	}

	if len(cfg.Repositories) > 0 {
		working = keep(working, func(pr model.PullRequest) bool {
			return cfg.Repositories.Has(pr.RepositoryFullName())
		})
	}

	if len(cfg.Teams) > 0 {
		// Union of repositories across the selected teams. Stale or
		// missing team data filters to nothing rather than ignoring an
		// explicit team selection; the coordinator clears invalid team
		// selections so this does not occur in steady state.
		reachable := make(StringSet)
		for _, team := range teams {
			if !cfg.Teams.Has(team.Slug) {
				continue
			}
			for _, repo := range team.Repositories {
				reachable.Add(repo)
			}
		}
		working = keep(working, func(pr model.PullRequest) bool {
			return reachable.Has(pr.RepositoryFullName())
		})
	}

	if strings.TrimSpace(query) != "" {
		working = e.matcher.Match(query, working)
	}

	return working
}

func keep(prs []model.PullRequest, pred func(model.PullRequest) bool) []model.PullRequest {
	out := make([]model.PullRequest, 0, len(prs))
	for _, pr := range prs {
		if pred(pr) {
			out = append(out, pr)
		}
	}
	return out
}
