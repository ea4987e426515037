package tui

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spiffcs/reviewdeck/internal/filter"
	"github.com/spiffcs/reviewdeck/internal/model"
	"github.com/spiffcs/reviewdeck/internal/state"
)

// pane identifies which part of the browser has focus.
type pane int

const (
	paneList   pane = iota // the PR list
	paneFilter             // the filter-selection panel
)

// filterSection identifies a section inside the filter panel.
type filterSection int

const (
	sectionOrganizations filterSection = iota
	sectionRepositories
	sectionTeams
)

// stateChangedMsg signals that the coordinator published new state.
type stateChangedMsg struct{}

// BrowseModel is the Bubble Tea model for the interactive PR browser.
// All filter mutations go through the coordinator; the model only holds
// presentation state (cursors, focus) plus the latest snapshot.
type BrowseModel struct {
	ctx   context.Context
	coord *state.Coordinator

	snapshot state.Snapshot

	searchInput textinput.Model
	spin        spinner.Model

	activePane    pane
	listCursor    int
	section       filterSection
	sectionCursor int

	windowWidth  int
	windowHeight int
	quitting     bool
}

// NewBrowseModel creates a browser bound to the coordinator.
func NewBrowseModel(ctx context.Context, coord *state.Coordinator) BrowseModel {
	ti := textinput.New()
	ti.Placeholder = "search title, repo, author"
	ti.Prompt = "/ "
	ti.CharLimit = 120

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return BrowseModel{
		ctx:          ctx,
		coord:        coord,
		snapshot:     coord.Snapshot(),
		searchInput:  ti,
		spin:         s,
		windowWidth:  80,
		windowHeight: 24,
	}
}

// Init implements tea.Model.
func (m BrowseModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, waitForChange(m.coord.Changes()))
}

// waitForChange blocks on the coordinator's notification channel.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return stateChangedMsg{}
	}
}

// Update implements tea.Model.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case stateChangedMsg:
		m.snapshot = m.coord.Snapshot()
		m.clampCursors()
		return m, waitForChange(m.coord.Changes())
	}

	return m, nil
}

func (m *BrowseModel) clampCursors() {
	if max := len(m.snapshot.PullRequests) - 1; m.listCursor > max {
		m.listCursor = max
	}
	if m.listCursor < 0 {
		m.listCursor = 0
	}
	if max := len(m.sectionEntries()) - 1; m.sectionCursor > max {
		m.sectionCursor = max
	}
	if m.sectionCursor < 0 {
		m.sectionCursor = 0
	}
}

func (m BrowseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// While the search box has focus, almost every key belongs to it.
	if m.searchInput.Focused() {
		switch msg.String() {
		case "esc":
			m.searchInput.Blur()
			m.searchInput.SetValue("")
			m.coord.ClearSearchQuery()
			return m, nil
		case "enter":
			m.searchInput.Blur()
			return m, nil
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		m.coord.UpdateSearchQuery(m.searchInput.Value())
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "x":
		m.coord.DismissError()
		return m, nil
	}

	if m.activePane == paneFilter {
		return m.handleFilterKey(msg)
	}
	return m.handleListKey(msg)
}

func (m BrowseModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "/":
		return m, m.searchInput.Focus()

	case "esc":
		if m.snapshot.SearchQuery != "" {
			m.searchInput.SetValue("")
			m.coord.ClearSearchQuery()
		}
		return m, nil

	case "f":
		m.activePane = paneFilter
		m.section = sectionOrganizations
		m.sectionCursor = 0
		return m, nil

	case "c":
		m.coord.ClearAllFilters()
		return m, nil

	case "r":
		m.coord.RetryTeams(m.ctx)
		return m, nil

	case "j", "down":
		if m.listCursor < len(m.snapshot.PullRequests)-1 {
			m.listCursor++
		}
		return m, nil

	case "k", "up":
		if m.listCursor > 0 {
			m.listCursor--
		}
		return m, nil

	case "g", "home":
		m.listCursor = 0
		return m, nil

	case "G", "end":
		if n := len(m.snapshot.PullRequests); n > 0 {
			m.listCursor = n - 1
		}
		return m, nil

	case "enter", "o":
		if m.listCursor < len(m.snapshot.PullRequests) {
			openURL(m.snapshot.PullRequests[m.listCursor].HTMLURL)
		}
		return m, nil
	}

	return m, nil
}

func (m BrowseModel) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f":
		m.activePane = paneList
		return m, nil

	case "tab":
		m.section = (m.section + 1) % 3
		m.sectionCursor = 0
		return m, nil

	case "shift+tab":
		m.section = (m.section + 2) % 3
		m.sectionCursor = 0
		return m, nil

	case "j", "down":
		if m.sectionCursor < len(m.sectionEntries())-1 {
			m.sectionCursor++
		}
		return m, nil

	case "k", "up":
		if m.sectionCursor > 0 {
			m.sectionCursor--
		}
		return m, nil

	case " ", "space", "enter":
		m.toggleCurrent()
		return m, nil

	case "c":
		m.coord.ClearAllFilters()
		return m, nil
	}

	return m, nil
}

// sectionEntries returns the selectable values for the active section.
func (m BrowseModel) sectionEntries() []string {
	meta := m.snapshot.Metadata
	switch m.section {
	case sectionOrganizations:
		return meta.Organizations.Sorted()
	case sectionRepositories:
		return meta.Repositories.Sorted()
	default:
		if !meta.Teams.Available() {
			return nil
		}
		slugs := make([]string, 0, len(meta.Teams.Teams))
		for _, team := range meta.Teams.Teams {
			slugs = append(slugs, team.Slug)
		}
		return slugs
	}
}

// toggleCurrent flips the selection under the cursor and pushes the
// updated configuration through the coordinator. Organization toggles
// cascade to the org's repositories; repository toggles re-sync the
// organization selection.
func (m *BrowseModel) toggleCurrent() {
	entries := m.sectionEntries()
	if m.sectionCursor >= len(entries) {
		return
	}
	value := entries[m.sectionCursor]

	cfg := m.snapshot.Configuration.Clone()
	meta := m.snapshot.Metadata

	switch m.section {
	case sectionOrganizations:
		if cfg.Organizations.Has(value) {
			cfg.Organizations.Remove(value)
			cfg.Repositories = filter.DeselectAllRepositories(value, meta, cfg.Repositories)
		} else {
			cfg.Organizations.Add(value)
			cfg.Repositories = filter.SelectAllRepositories(value, meta, cfg.Repositories)
		}

	case sectionRepositories:
		if cfg.Repositories.Has(value) {
			cfg.Repositories.Remove(value)
		} else {
			cfg.Repositories.Add(value)
		}
		cfg.Organizations = filter.SyncOrganizations(meta, cfg.Repositories, cfg.Organizations)

	case sectionTeams:
		if cfg.Teams.Has(value) {
			cfg.Teams.Remove(value)
		} else {
			cfg.Teams.Add(value)
		}
	}

	m.coord.UpdateFilterConfiguration(cfg)
	m.snapshot = m.coord.Snapshot()
	m.clampCursors()
}

// teamEntryLabel renders a team with its organization for the panel.
func teamEntryLabel(team model.Team) string {
	return team.Slug + " (" + team.OrganizationLogin + ")"
}

// openURL opens a URL in the default browser.
func openURL(url string) {
	if url == "" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
