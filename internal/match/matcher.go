package match

import (
	"sort"
	"strings"

	"github.com/spiffcs/reviewdeck/internal/model"
)

// Per-field score levels. Comparison is case-insensitive throughout.
const (
	scoreExact     = 1.0
	scorePrefix    = 0.9
	scoreSubstring = 0.7

	// Fields with no exact/prefix/substring hit fall back to edit-distance
	// similarity, scaled down and gated by a floor so weak resemblance
	// produces no match signal at all.
	similarityFloor = 0.3
	similarityScale = 0.6

	// Scores closer than this are treated as a tie to avoid
	// floating-point jitter affecting the sort order.
	scoreEpsilon = 1e-3
)

// Weights are the per-field multipliers applied to field scores.
type Weights struct {
	Title      float64
	Repository float64
	Author     float64
}

// DefaultWeights returns the standard field multipliers.
func DefaultWeights() Weights {
	return Weights{
		Title:      3.0,
		Repository: 2.0,
		Author:     1.5,
	}
}

// Matcher ranks pull requests against a free-text query.
type Matcher struct {
	weights Weights
}

// NewMatcher creates a matcher with the given field weights.
func NewMatcher(weights Weights) *Matcher {
	return &Matcher{weights: weights}
}

// scored pairs a candidate with its computed overall score for sorting.
type scored struct {
	pr    model.PullRequest
	score float64
}

// Match returns the pull requests ranked by how well they match query.
// Candidates with no match signal in any field are dropped, not ranked
// last. An empty or all-whitespace query returns an empty list; "no
// search at all" is handled upstream by skipping the matcher entirely.
// Output is deterministic: score descending, ties broken by ascending
// PR number, then repository full name.
func (m *Matcher) Match(query string, prs []model.PullRequest) []model.PullRequest {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	needle := strings.ToLower(query)

	candidates := make([]scored, 0, len(prs))
	for _, pr := range prs {
		if s := m.score(needle, pr); s > 0 {
			candidates = append(candidates, scored{pr: pr, score: s})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if diff := a.score - b.score; diff > scoreEpsilon || diff < -scoreEpsilon {
			return a.score > b.score
		}
		if a.pr.Number != b.pr.Number {
			return a.pr.Number < b.pr.Number
		}
		return a.pr.RepositoryFullName() < b.pr.RepositoryFullName()
	})

	ranked := make([]model.PullRequest, len(candidates))
	for i, c := range candidates {
		ranked[i] = c.pr
	}
	return ranked
}

// score computes the candidate's overall score: the maximum of the
// weighted field scores. The repository field takes the better of the
// full "owner/name" and the short name.
func (m *Matcher) score(needle string, pr model.PullRequest) float64 {
	title := fieldScore(needle, pr.Title) * m.weights.Title

	repo := fieldScore(needle, pr.RepositoryFullName())
	if short := fieldScore(needle, pr.RepositoryName); short > repo {
		repo = short
	}
	repo *= m.weights.Repository

	author := fieldScore(needle, pr.AuthorLogin) * m.weights.Author

	best := title
	if repo > best {
		best = repo
	}
	if author > best {
		best = author
	}
	return best
}

// fieldScore scores a single field against the pre-lowercased needle.
func fieldScore(needle, text string) float64 {
	haystack := strings.ToLower(text)

	switch {
	case haystack == needle:
		return scoreExact
	case strings.HasPrefix(haystack, needle):
		return scorePrefix
	case strings.Contains(haystack, needle):
		return scoreSubstring
	}

	if sim := SimilarityScore(haystack, needle); sim > similarityFloor {
		return sim * similarityScale
	}
	return 0
}
