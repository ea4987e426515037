package filter

// The functions below keep organization-level and repository-level
// selections mutually consistent while the user edits filters. They
// govern interactive editing only; a persisted configuration may carry
// either or both dimensions independently.

// SelectAllRepositories adds every known repository belonging to org to
// the current selection. Unrelated selections are preserved. Idempotent.
func SelectAllRepositories(org string, meta Metadata, current StringSet) StringSet {
	updated := current.Clone()
	for _, repo := range meta.OrganizationRepositories(org) {
		updated.Add(repo)
	}
	return updated
}

// DeselectAllRepositories removes every known repository belonging to
// org from the current selection. Unrelated selections are preserved.
func DeselectAllRepositories(org string, meta Metadata, current StringSet) StringSet {
	updated := current.Clone()
	for _, repo := range meta.OrganizationRepositories(org) {
		updated.Remove(repo)
	}
	return updated
}

// SyncOrganizations recomputes the organization selection from the
// repository selection. For each known organization:
//   - all of its known repositories selected: the org is added
//   - some but not all selected: the org is removed
//   - none selected: the org's membership is left unchanged
//
// The none-selected rule is deliberate: deselecting every repository of
// an org does not by itself revoke an org-level selection the user made
// through the organization toggle. Organizations with no known
// repositories are left unaffected.
func SyncOrganizations(meta Metadata, currentRepos, currentOrgs StringSet) StringSet {
	updated := currentOrgs.Clone()

	for org := range meta.Organizations {
		repos := meta.OrganizationRepositories(org)
		if len(repos) == 0 {
			continue
		}

		selected := 0
		for _, repo := range repos {
			if currentRepos.Has(repo) {
				selected++
			}
		}

		switch {
		case selected == len(repos):
			updated.Add(org)
		case selected > 0:
			updated.Remove(org)
		}
	}

	return updated
}
