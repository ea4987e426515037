package filter

import (
	"testing"
)

func testMetadata() Metadata {
	return DeriveMetadata(testPRs())
}

func TestSelectAllRepositories(t *testing.T) {
	meta := testMetadata()

	got := SelectAllRepositories("acme", meta, NewStringSet())
	for _, repo := range []string{"acme/api", "acme/web"} {
		if !got.Has(repo) {
			t.Errorf("expected %s selected", repo)
		}
	}
	if got.Has("beta/tools") {
		t.Error("unrelated repository was selected")
	}
}

func TestSelectAllRepositoriesPreservesExisting(t *testing.T) {
	meta := testMetadata()
	current := NewStringSet("beta/tools")

	got := SelectAllRepositories("acme", meta, current)
	if !got.Has("beta/tools") {
		t.Error("existing unrelated selection was dropped")
	}

	// Input set is not mutated.
	if current.Has("acme/api") {
		t.Error("input set was mutated")
	}
}

func TestSelectAllRepositoriesIdempotent(t *testing.T) {
	meta := testMetadata()

	once := SelectAllRepositories("acme", meta, NewStringSet())
	twice := SelectAllRepositories("acme", meta, once)
	if !once.Equal(twice) {
		t.Errorf("not idempotent: %v vs %v", once.Sorted(), twice.Sorted())
	}
}

func TestDeselectAllRepositories(t *testing.T) {
	meta := testMetadata()
	current := NewStringSet("acme/api", "acme/web", "beta/tools")

	got := DeselectAllRepositories("acme", meta, current)
	if got.Has("acme/api") || got.Has("acme/web") {
		t.Error("acme repositories were not deselected")
	}
	if !got.Has("beta/tools") {
		t.Error("unrelated selection was dropped")
	}
}

func TestSyncOrganizationsAllSelected(t *testing.T) {
	meta := testMetadata()
	repos := NewStringSet("acme/api", "acme/web")

	got := SyncOrganizations(meta, repos, NewStringSet())
	if !got.Has("acme") {
		t.Error("expected acme added when all its repositories are selected")
	}
	if got.Has("beta") {
		t.Error("beta should not be added with none of its repositories selected")
	}
}

func TestSyncOrganizationsPartialSelection(t *testing.T) {
	meta := testMetadata()
	repos := NewStringSet("acme/api") // acme/web not selected

	got := SyncOrganizations(meta, repos, NewStringSet("acme"))
	if got.Has("acme") {
		t.Error("expected acme removed on partial repository selection")
	}
}

func TestSyncOrganizationsNoneSelectedUnchanged(t *testing.T) {
	meta := testMetadata()

	// Zero selected repositories leaves an existing org selection alone.
	got := SyncOrganizations(meta, NewStringSet(), NewStringSet("acme"))
	if !got.Has("acme") {
		t.Error("org selection should be unchanged when none of its repositories are selected")
	}

	// And it does not add orgs either.
	got = SyncOrganizations(meta, NewStringSet(), NewStringSet())
	if len(got) != 0 {
		t.Errorf("expected no orgs added, got %v", got.Sorted())
	}
}

func TestSyncOrganizationsUnknownOrgUntouched(t *testing.T) {
	meta := testMetadata()

	// An org selection with no known repositories is never revoked.
	got := SyncOrganizations(meta, NewStringSet("acme/api"), NewStringSet("ghost"))
	if !got.Has("ghost") {
		t.Error("org without known repositories was removed")
	}
}

func TestOrgToggleRoundTrip(t *testing.T) {
	meta := testMetadata()

	// Selecting an org's repositories then re-syncing adds the org;
	// deselecting them all leaves the org selection to the caller.
	repos := SelectAllRepositories("acme", meta, NewStringSet())
	orgs := SyncOrganizations(meta, repos, NewStringSet())
	if !orgs.Has("acme") {
		t.Fatal("expected acme selected after cascade")
	}

	repos = DeselectAllRepositories("acme", meta, repos)
	orgs = SyncOrganizations(meta, repos, orgs)
	if !orgs.Has("acme") {
		t.Error("none-selected must leave org membership unchanged")
	}
}
