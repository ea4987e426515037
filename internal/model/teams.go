package model

// TeamLoadPhase identifies which variant of TeamLoadState is active.
type TeamLoadPhase int

const (
	// TeamsNotRequested means no team fetch has been attempted yet.
	TeamsNotRequested TeamLoadPhase = iota
	// TeamsLoading means a fetch is in flight.
	TeamsLoading
	// TeamsLoaded means Teams holds the fetched list.
	TeamsLoaded
	// TeamsFailed means the fetch failed; Reason classifies the failure.
	TeamsFailed
)

// TeamFailureReason classifies why a team fetch failed. Forbidden is
// permanent until the user re-authorizes and must not be retried
// automatically; everything else is transient and retryable.
type TeamFailureReason int

const (
	TeamFailureTransient TeamFailureReason = iota
	TeamFailureForbidden
	TeamFailureRateLimited
)

// TeamLoadState is the tri-state (four variant) load result for team
// data. Teams is only meaningful in the TeamsLoaded phase, Reason only
// in TeamsFailed.
type TeamLoadState struct {
	Phase  TeamLoadPhase
	Teams  []Team
	Reason TeamFailureReason
}

// TeamsNotYetRequested returns the initial state.
func TeamsNotYetRequested() TeamLoadState {
	return TeamLoadState{Phase: TeamsNotRequested}
}

// TeamsLoadingState returns the in-flight state.
func TeamsLoadingState() TeamLoadState {
	return TeamLoadState{Phase: TeamsLoading}
}

// TeamsLoadedState wraps a fetched team list.
func TeamsLoadedState(teams []Team) TeamLoadState {
	return TeamLoadState{Phase: TeamsLoaded, Teams: teams}
}

// TeamsFailedState wraps a classified fetch failure.
func TeamsFailedState(reason TeamFailureReason) TeamLoadState {
	return TeamLoadState{Phase: TeamsFailed, Reason: reason}
}

// Available reports whether team data is present and usable.
func (s TeamLoadState) Available() bool {
	return s.Phase == TeamsLoaded
}
