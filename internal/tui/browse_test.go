package tui

import (
	"strings"
	"testing"

	"github.com/spiffcs/reviewdeck/internal/filter"
	"github.com/spiffcs/reviewdeck/internal/model"
	"github.com/spiffcs/reviewdeck/internal/state"
)

func TestScrollWindow(t *testing.T) {
	tests := []struct {
		name      string
		cursor    int
		total     int
		height    int
		wantStart int
		wantEnd   int
	}{
		{"fits entirely", 0, 5, 10, 0, 5},
		{"top of long list", 0, 100, 10, 0, 10},
		{"middle keeps cursor centered", 50, 100, 10, 45, 55},
		{"bottom clamps to end", 99, 100, 10, 90, 100},
		{"empty", 0, 0, 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := scrollWindow(tt.cursor, tt.total, tt.height)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("scrollWindow(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.cursor, tt.total, tt.height, start, end, tt.wantStart, tt.wantEnd)
			}
			if tt.total > 0 && (tt.cursor < start || tt.cursor >= end) {
				t.Errorf("cursor %d outside window [%d, %d)", tt.cursor, start, end)
			}
		})
	}
}

func TestFilterBadge(t *testing.T) {
	m := BrowseModel{}

	m.snapshot.Configuration = filter.EmptyConfiguration()
	if badge := m.filterBadge(); badge != "" {
		t.Errorf("empty configuration produced badge %q", badge)
	}

	cfg := filter.EmptyConfiguration()
	cfg.Organizations.Add("acme")
	cfg.Teams.Add("platform")
	m.snapshot.Configuration = cfg

	badge := m.filterBadge()
	if badge == "" {
		t.Fatal("expected a badge for active filters")
	}
	for _, want := range []string{"1 org", "1 team"} {
		if !strings.Contains(badge, want) {
			t.Errorf("badge %q missing %q", badge, want)
		}
	}
}

func TestTeamEntryLabel(t *testing.T) {
	team := model.Team{Slug: "platform", OrganizationLogin: "acme"}
	if got := teamEntryLabel(team); got != "platform (acme)" {
		t.Errorf("teamEntryLabel = %q", got)
	}
}

func TestSectionEntriesTeamsUnavailable(t *testing.T) {
	m := BrowseModel{section: sectionTeams}
	m.snapshot = state.Snapshot{
		Metadata: filter.Metadata{
			Teams: model.TeamsFailedState(model.TeamFailureTransient),
		},
	}

	if entries := m.sectionEntries(); len(entries) != 0 {
		t.Errorf("expected no selectable teams while unavailable, got %v", entries)
	}
}
