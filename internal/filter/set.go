// Package filter implements the structured filtering pipeline:
// persistent organization/repository/team constraints composed with
// transient fuzzy search.
package filter

import (
	"encoding/json"
	"sort"
)

// StringSet is an unordered set of strings. It marshals to a sorted
// JSON array so persisted configurations are byte-stable.
type StringSet map[string]struct{}

// NewStringSet builds a set from the given members.
func NewStringSet(members ...string) StringSet {
	s := make(StringSet, len(members))
	for _, m := range members {
		s[m] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s StringSet) Has(member string) bool {
	_, ok := s[member]
	return ok
}

// Add inserts a member.
func (s StringSet) Add(member string) {
	s[member] = struct{}{}
}

// Remove deletes a member if present.
func (s StringSet) Remove(member string) {
	delete(s, member)
}

// Clone returns an independent copy. Cloning nil yields an empty set.
func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	for m := range s {
		out[m] = struct{}{}
	}
	return out
}

// Sorted returns the members in ascending order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets contain the same members.
func (s StringSet) Equal(other StringSet) bool {
	if len(s) != len(other) {
		return false
	}
	for m := range s {
		if !other.Has(m) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted array.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a JSON array into the set.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var members []string
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	*s = NewStringSet(members...)
	return nil
}
