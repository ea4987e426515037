package ghclient

import (
	"context"

	"github.com/spiffcs/reviewdeck/internal/model"
)

// PullRequestSource fetches the pull requests awaiting the user's review.
// This interface enables mocking the GitHub API in unit tests.
type PullRequestSource interface {
	ListReviewRequestedPRs(ctx context.Context, username string) ([]model.PullRequest, error)
}

// TeamSource fetches the user's teams.
type TeamSource interface {
	ListTeams(ctx context.Context) ([]model.Team, error)
}

// Ensure Client implements both source interfaces.
var (
	_ PullRequestSource = (*Client)(nil)
	_ TeamSource        = (*Client)(nil)
)
