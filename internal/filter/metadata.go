package filter

import (
	"strings"

	"github.com/spiffcs/reviewdeck/internal/model"
)

// Metadata is derived, non-persistent filter metadata: the distinct
// organizations and repositories present in the current pull-request
// collection, plus the independently loaded team state.
type Metadata struct {
	Organizations StringSet
	Repositories  StringSet // "owner/name" form
	Teams         model.TeamLoadState
}

// DeriveMetadata extracts the organization and repository sets from the
// pull-request collection. Teams start as not-yet-requested; the team
// fetch runs independently and does not block this derivation.
func DeriveMetadata(prs []model.PullRequest) Metadata {
	orgs := make(StringSet, len(prs))
	repos := make(StringSet, len(prs))
	for _, pr := range prs {
		orgs.Add(pr.RepositoryOwner)
		repos.Add(pr.RepositoryFullName())
	}
	return Metadata{
		Organizations: orgs,
		Repositories:  repos,
		Teams:         model.TeamsNotYetRequested(),
	}
}

// OrganizationRepositories returns the known repositories belonging to
// org, in sorted order.
func (m Metadata) OrganizationRepositories(org string) []string {
	prefix := org + "/"
	var out []string
	for _, repo := range m.Repositories.Sorted() {
		if strings.HasPrefix(repo, prefix) {
			out = append(out, repo)
		}
	}
	return out
}
