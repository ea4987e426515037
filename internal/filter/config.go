package filter

// ConfigVersion is the current persisted configuration schema version.
// Entries with an unrecognized version are treated as absent, never
// force-decoded.
const ConfigVersion = 1

// Configuration is the persistent structured-filter selection. An empty
// set for a dimension means "no constraint on that dimension", never
// "exclude everything". Mutated only by whole-value replacement.
type Configuration struct {
	Version       int       `json:"version"`
	Organizations StringSet `json:"selectedOrganizations"`
	Repositories  StringSet `json:"selectedRepositories"` // "owner/name" form
	Teams         StringSet `json:"selectedTeams"`        // team slugs
}

// EmptyConfiguration returns a configuration with no constraints.
func EmptyConfiguration() Configuration {
	return Configuration{
		Version:       ConfigVersion,
		Organizations: NewStringSet(),
		Repositories:  NewStringSet(),
		Teams:         NewStringSet(),
	}
}

// IsEmpty reports whether no dimension carries a constraint.
func (c Configuration) IsEmpty() bool {
	return len(c.Organizations) == 0 && len(c.Repositories) == 0 && len(c.Teams) == 0
}

// Clone returns a deep copy, with nil sets normalized to empty ones so
// callers can mutate the copy freely.
func (c Configuration) Clone() Configuration {
	return Configuration{
		Version:       c.Version,
		Organizations: c.Organizations.Clone(),
		Repositories:  c.Repositories.Clone(),
		Teams:         c.Teams.Clone(),
	}
}

// Equal reports whether two configurations select the same filters.
func (c Configuration) Equal(other Configuration) bool {
	return c.Organizations.Equal(other.Organizations) &&
		c.Repositories.Equal(other.Repositories) &&
		c.Teams.Equal(other.Teams)
}
