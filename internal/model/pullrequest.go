// Package model contains domain types for the reviewdeck application.
// These types are independent of any external GitHub library.
package model

import "time"

// PullRequest is a pull request awaiting the user's review.
// Identified by (RepositoryOwner, RepositoryName, Number). Values are
// immutable once constructed; the filter core never mutates them.
type PullRequest struct {
	RepositoryOwner string    `json:"repositoryOwner"`
	RepositoryName  string    `json:"repositoryName"`
	Number          int       `json:"number"`
	Title           string    `json:"title"`
	AuthorLogin     string    `json:"authorLogin"`
	HTMLURL         string    `json:"htmlUrl,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt,omitempty"`
}

// RepositoryFullName returns the repository in "owner/name" form.
func (pr PullRequest) RepositoryFullName() string {
	return pr.RepositoryOwner + "/" + pr.RepositoryName
}

// Team is an organization team the user belongs to, together with the
// repositories the team can access. Sourced externally and may be
// entirely unavailable (see TeamLoadState).
type Team struct {
	Slug              string   `json:"slug"`
	Name              string   `json:"name"`
	OrganizationLogin string   `json:"organizationLogin"`
	Repositories      []string `json:"repositories"` // "owner/name" form
}
