package cache

import (
	"time"

	"github.com/spiffcs/reviewdeck/internal/model"
)

// Version should be incremented when the cache format changes to
// invalidate old entries.
const Version = 1

// PR lists change frequently; team membership rarely does.
const (
	PRListTTL   = 5 * time.Minute
	TeamListTTL = 1 * time.Hour
)

// PRListEntry is a cached list of review-requested pull requests.
type PRListEntry struct {
	PRs      []model.PullRequest `json:"prs"`
	CachedAt time.Time           `json:"cachedAt"`
	Version  int                 `json:"version"`
}

// TeamListEntry is a cached list of the user's teams.
type TeamListEntry struct {
	Teams    []model.Team `json:"teams"`
	CachedAt time.Time    `json:"cachedAt"`
	Version  int          `json:"version"`
}

// Stats summarizes cache contents for the cache stats command.
type Stats struct {
	PRListTotal   int
	PRListValid   int
	TeamListTotal int
	TeamListValid int
}
