// Package ghclient wraps the GitHub API for fetching review-requested
// pull requests and the user's teams.
package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/spiffcs/reviewdeck/internal/log"
	"github.com/spiffcs/reviewdeck/internal/model"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// teamRepoWorkers bounds concurrent per-team repository listings.
const teamRepoWorkers = 5

// rateLimitTransport wraps an http.RoundTripper to handle GitHub rate limits.
type rateLimitTransport struct {
	base http.RoundTripper
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Check if we're already rate limited before making the request.
	if globalRateLimitState.IsLimited() {
		return nil, ErrRateLimited
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	remaining, limit, resetAt := parseRateLimitHeaders(resp)
	if remaining >= 0 && limit > 0 {
		globalRateLimitState.Update(remaining, limit, resetAt)
	}

	if remaining <= RateLimitLowWatermark && remaining > 0 {
		log.Debug("rate limit low", "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}

	// Rate limit responses arrive as 403 with an exhausted quota or as 429.
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		if resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.StatusCode == http.StatusTooManyRequests {
			globalRateLimitState.SetLimited(true, resetAt)
			_ = resp.Body.Close()
			return nil, ErrRateLimited
		}
	}

	return resp, err
}

// parseRateLimitHeaders extracts rate limit info from response headers.
func parseRateLimitHeaders(resp *http.Response) (remaining, limit int, resetAt time.Time) {
	remaining = -1
	limit = -1

	if remainingStr := resp.Header.Get("X-RateLimit-Remaining"); remainingStr != "" {
		if rem, err := strconv.Atoi(remainingStr); err == nil {
			remaining = rem
		}
	}

	if limitStr := resp.Header.Get("X-RateLimit-Limit"); limitStr != "" {
		if lim, err := strconv.Atoi(limitStr); err == nil {
			limit = lim
		}
	}

	if resetStr := resp.Header.Get("X-RateLimit-Reset"); resetStr != "" {
		if resetTime, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
			resetAt = time.Unix(resetTime, 0)
		}
	}

	return remaining, limit, resetAt
}

// Client wraps the GitHub API client.
type Client struct {
	client *gh.Client
	// token is intentionally unexported. NEVER add String(), MarshalJSON(),
	// or any method that could expose this value in logs or serialized output.
	token string
}

// NewClient creates a new GitHub client using a personal access token.
func NewClient(ctx context.Context, token string) (*Client, error) {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("GitHub token not provided. Set the GITHUB_TOKEN environment variable")
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	tc.Transport = &rateLimitTransport{
		base: tc.Transport,
	}

	return &Client{
		client: gh.NewClient(tc),
		token:  token,
	}, nil
}

// AuthenticatedUser returns the authenticated user's login.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to get authenticated user: %w", classify(err))
	}
	return user.GetLogin(), nil
}

// RateLimits fetches the current GitHub API rate limit status.
func (c *Client) RateLimits(ctx context.Context) (*gh.RateLimits, error) {
	limits, _, err := c.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limits: %w", classify(err))
	}
	return limits, nil
}

// ListReviewRequestedPRs fetches open PRs where the user is a requested
// reviewer.
func (c *Client) ListReviewRequestedPRs(ctx context.Context, username string) ([]model.PullRequest, error) {
	query := fmt.Sprintf("is:pr is:open review-requested:%s", username)

	opts := &gh.SearchOptions{
		Sort:  "updated",
		Order: "desc",
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	var prs []model.PullRequest

	for {
		result, resp, err := c.client.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to search for review-requested PRs: %w", classify(err))
		}

		for _, issue := range result.Issues {
			pr, ok := issueToPullRequest(issue)
			if !ok {
				log.Debug("skipping search result with unparseable repository URL", "url", issue.GetRepositoryURL())
				continue
			}
			prs = append(prs, pr)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return prs, nil
}

// ListTeams fetches the user's teams with the repositories each team
// can access. A 403 surfaces as ErrForbidden so callers can explain
// that the token lacks the read:org scope.
func (c *Client) ListTeams(ctx context.Context) ([]model.Team, error) {
	opts := &gh.ListOptions{PerPage: 100}

	var raw []*gh.Team
	for {
		page, resp, err := c.client.Teams.ListUserTeams(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list teams: %w", classify(err))
		}
		raw = append(raw, page...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	teams := make([]model.Team, len(raw))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(teamRepoWorkers)

	for i, t := range raw {
		teams[i] = model.Team{
			Slug:              t.GetSlug(),
			Name:              t.GetName(),
			OrganizationLogin: t.GetOrganization().GetLogin(),
		}

		g.Go(func() error {
			repos, err := c.listTeamRepos(gctx, teams[i].OrganizationLogin, teams[i].Slug)
			if err != nil {
				return err
			}
			teams[i].Repositories = repos
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list team repositories: %w", classify(err))
	}

	return teams, nil
}

// listTeamRepos fetches the full names of repositories a team can access.
func (c *Client) listTeamRepos(ctx context.Context, org, slug string) ([]string, error) {
	opts := &gh.ListOptions{PerPage: 100}

	var repos []string
	for {
		page, resp, err := c.client.Teams.ListTeamReposBySlug(ctx, org, slug, opts)
		if err != nil {
			return nil, err
		}
		for _, repo := range page {
			repos = append(repos, repo.GetFullName())
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return repos, nil
}

// repoFromURL extracts owner and repo name from a GitHub API repository URL.
// URL format: https://api.github.com/repos/owner/repo
func repoFromURL(url string) (owner, repo string) {
	const marker = "/repos/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return "", ""
	}
	parts := strings.SplitN(url[idx+len(marker):], "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", ""
	}
	return parts[0], parts[1]
}

// issueToPullRequest converts a GitHub search result to a model.PullRequest.
func issueToPullRequest(issue *gh.Issue) (model.PullRequest, bool) {
	owner, repo := repoFromURL(issue.GetRepositoryURL())
	if owner == "" || repo == "" {
		return model.PullRequest{}, false
	}

	return model.PullRequest{
		RepositoryOwner: owner,
		RepositoryName:  repo,
		Number:          issue.GetNumber(),
		Title:           issue.GetTitle(),
		AuthorLogin:     issue.GetUser().GetLogin(),
		HTMLURL:         issue.GetHTMLURL(),
		UpdatedAt:       issue.GetUpdatedAt().Time,
	}, true
}
