package tui

import (
	"fmt"
	"strings"

	"github.com/spiffcs/reviewdeck/internal/format"
	"github.com/spiffcs/reviewdeck/internal/model"
)

// Lines reserved above and below the list.
const (
	headerLines = 4
	footerLines = 3
)

// View implements tea.Model.
func (m BrowseModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.activePane == paneFilter {
		b.WriteString(m.renderFilterPanel())
	} else {
		b.WriteString(m.renderList())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m BrowseModel) renderHeader() string {
	var b strings.Builder

	title := titleStyle.Render("reviewdeck")
	count := countStyle.Render(fmt.Sprintf("%d pull request(s)", len(m.snapshot.PullRequests)))
	b.WriteString(fmt.Sprintf("%s  %s", title, count))

	if badge := m.filterBadge(); badge != "" {
		b.WriteString("  " + badgeStyle.Render(badge))
	}
	b.WriteString("\n")

	b.WriteString(m.searchInput.View())
	b.WriteString("\n")

	if msg := m.snapshot.ErrorMessage; msg != "" {
		b.WriteString(errorBannerStyle.Render(msg + "  (x to dismiss)"))
		b.WriteString("\n")
	}

	return b.String()
}

// filterBadge summarizes the active structured filters.
func (m BrowseModel) filterBadge() string {
	cfg := m.snapshot.Configuration
	if cfg.IsEmpty() {
		return ""
	}
	var parts []string
	if n := len(cfg.Organizations); n > 0 {
		parts = append(parts, fmt.Sprintf("%d org", n))
	}
	if n := len(cfg.Repositories); n > 0 {
		parts = append(parts, fmt.Sprintf("%d repo", n))
	}
	if n := len(cfg.Teams); n > 0 {
		parts = append(parts, fmt.Sprintf("%d team", n))
	}
	return "filters: " + strings.Join(parts, ", ")
}

func (m BrowseModel) renderList() string {
	prs := m.snapshot.PullRequests
	if len(prs) == 0 {
		return emptyStyle.Render("Nothing to review. Adjust filters with f, search with /.")
	}

	available := m.windowHeight - headerLines - footerLines
	if available < 1 {
		available = 1
	}
	start, end := scrollWindow(m.listCursor, len(prs), available)

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(prs[i], i == m.listCursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m BrowseModel) renderRow(pr model.PullRequest, selected bool) string {
	repoWidth := 28
	titleWidth := m.windowWidth - repoWidth - 24
	if titleWidth < 20 {
		titleWidth = 20
	}

	repo, rw := format.TruncateToWidth(pr.RepositoryFullName(), repoWidth)
	title, tw := format.TruncateToWidth(pr.Title, titleWidth)

	line := fmt.Sprintf("%s  %-6s  %s  %s",
		format.PadRight(repo, rw, repoWidth),
		fmt.Sprintf("#%d", pr.Number),
		format.PadRight(title, tw, titleWidth),
		pr.AuthorLogin,
	)

	if selected {
		return selectedRowStyle.Render("> " + line)
	}
	return rowStyle.Render("  " + line)
}

func (m BrowseModel) renderFilterPanel() string {
	var b strings.Builder

	meta := m.snapshot.Metadata
	cfg := m.snapshot.Configuration

	b.WriteString(m.renderSectionHeader("Organizations", sectionOrganizations))
	b.WriteString(m.renderChecklist(sectionOrganizations, meta.Organizations.Sorted(), cfg.Organizations))

	b.WriteString(m.renderSectionHeader("Repositories", sectionRepositories))
	b.WriteString(m.renderChecklist(sectionRepositories, meta.Repositories.Sorted(), cfg.Repositories))

	b.WriteString(m.renderSectionHeader("Teams", sectionTeams))
	b.WriteString(m.renderTeamSection())

	return b.String()
}

func (m BrowseModel) renderSectionHeader(name string, section filterSection) string {
	if m.section == section {
		return activeSectionStyle.Render(name) + "\n"
	}
	return sectionStyle.Render(name) + "\n"
}

func (m BrowseModel) renderChecklist(section filterSection, entries []string, selected interface{ Has(string) bool }) string {
	if len(entries) == 0 {
		return emptyStyle.Render("  (none)") + "\n"
	}

	var b strings.Builder
	for i, entry := range entries {
		b.WriteString(m.renderCheckRow(section, i, entry, selected.Has(entry)))
	}
	return b.String()
}

func (m BrowseModel) renderCheckRow(section filterSection, index int, label string, checked bool) string {
	box := "[ ]"
	if checked {
		box = "[x]"
	}
	cursor := "  "
	if m.activePane == paneFilter && m.section == section && m.sectionCursor == index {
		cursor = "> "
	}
	line := cursor + box + " " + label
	if cursor == "> " {
		return selectedRowStyle.Render(line) + "\n"
	}
	return rowStyle.Render(line) + "\n"
}

func (m BrowseModel) renderTeamSection() string {
	teams := m.snapshot.Metadata.Teams
	switch teams.Phase {
	case model.TeamsNotRequested:
		return emptyStyle.Render("  (not loaded)") + "\n"

	case model.TeamsLoading:
		return fmt.Sprintf("  %s loading teams...\n", m.spin.View())

	case model.TeamsFailed:
		switch teams.Reason {
		case model.TeamFailureForbidden:
			return emptyStyle.Render("  unavailable: token can't read teams") + "\n"
		case model.TeamFailureRateLimited:
			return emptyStyle.Render("  unavailable: rate limited, r to retry") + "\n"
		default:
			return emptyStyle.Render("  unavailable right now, r to retry") + "\n"
		}
	}

	if len(teams.Teams) == 0 {
		return emptyStyle.Render("  (no teams)") + "\n"
	}

	var b strings.Builder
	for i, team := range teams.Teams {
		b.WriteString(m.renderCheckRow(sectionTeams, i, teamEntryLabel(team), m.snapshot.Configuration.Teams.Has(team.Slug)))
	}
	return b.String()
}

func (m BrowseModel) renderFooter() string {
	if m.activePane == paneFilter {
		return helpStyle.Render("tab section - space toggle - c clear all - esc back - q quit")
	}
	return helpStyle.Render("/ search - f filters - c clear - enter open - j/k move - q quit")
}

// scrollWindow computes the visible [start, end) range keeping the
// cursor in view.
func scrollWindow(cursor, total, height int) (int, int) {
	if total <= height {
		return 0, total
	}

	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	end := start + height
	if end > total {
		end = total
		start = end - height
	}
	return start, end
}
