package match

import (
	"testing"

	"github.com/spiffcs/reviewdeck/internal/model"
)

func makePR(owner, name string, number int, title, author string) model.PullRequest {
	return model.PullRequest{
		RepositoryOwner: owner,
		RepositoryName:  name,
		Number:          number,
		Title:           title,
		AuthorLogin:     author,
	}
}

func prNumbers(prs []model.PullRequest) []int {
	out := make([]int, len(prs))
	for i, pr := range prs {
		out[i] = pr.Number
	}
	return out
}

func TestMatchEmptyQuery(t *testing.T) {
	m := NewMatcher(DefaultWeights())
	prs := []model.PullRequest{
		makePR("acme", "api", 1, "Fix login", "alice"),
	}

	for _, query := range []string{"", "   ", "\t\n"} {
		if got := m.Match(query, prs); len(got) != 0 {
			t.Errorf("Match(%q) returned %d results, want 0", query, len(got))
		}
	}
}

func TestMatchRankingExactBeforeSubstring(t *testing.T) {
	m := NewMatcher(DefaultWeights())
	prs := []model.PullRequest{
		makePR("acme", "api", 10, "Refactor the login flow", "alice"),
		makePR("acme", "api", 20, "login", "bob"),
		makePR("acme", "api", 30, "Add logging middleware", "carol"),
	}

	got := m.Match("login", prs)
	if len(got) < 2 {
		t.Fatalf("expected at least 2 results, got %d", len(got))
	}

	// Exact title match outranks substring matches.
	if got[0].Number != 20 {
		t.Errorf("expected exact title match first, got #%d (%v)", got[0].Number, prNumbers(got))
	}
}

func TestMatchDropsNonMatches(t *testing.T) {
	m := NewMatcher(DefaultWeights())
	prs := []model.PullRequest{
		makePR("acme", "api", 1, "Fix memory leak", "alice"),
		makePR("acme", "web", 2, "Completely unrelated", "zzqq"),
	}

	got := m.Match("memory", prs)
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d (%v)", len(got), prNumbers(got))
	}
	if got[0].Number != 1 {
		t.Errorf("expected #1, got #%d", got[0].Number)
	}
}

func TestMatchCaseInsensitive(t *testing.T) {
	m := NewMatcher(DefaultWeights())
	prs := []model.PullRequest{
		makePR("acme", "api", 1, "FIX LOGIN", "alice"),
	}

	if got := m.Match("fix login", prs); len(got) != 1 {
		t.Errorf("expected case-insensitive match, got %d results", len(got))
	}
	if got := m.Match("Fix Login", prs); len(got) != 1 {
		t.Errorf("expected case-insensitive match, got %d results", len(got))
	}
}

func TestMatchRepositoryShortName(t *testing.T) {
	m := NewMatcher(DefaultWeights())
	prs := []model.PullRequest{
		makePR("acme", "billing", 1, "Bump deps", "alice"),
	}

	// The short repository name should score as an exact match even
	// though the full name "acme/billing" only contains it.
	got := m.Match("billing", prs)
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
}

func TestMatchAuthorField(t *testing.T) {
	m := NewMatcher(DefaultWeights())
	prs := []model.PullRequest{
		makePR("acme", "api", 1, "Bump deps", "dependabot"),
		makePR("acme", "api", 2, "Fix flaky test", "alice"),
	}

	got := m.Match("dependabot", prs)
	if len(got) != 1 || got[0].Number != 1 {
		t.Fatalf("expected only the dependabot PR, got %v", prNumbers(got))
	}
}

func TestMatchTieBreakByNumber(t *testing.T) {
	m := NewMatcher(DefaultWeights())
	// Identical titles: identical scores, so order falls back to the
	// ascending PR number.
	prs := []model.PullRequest{
		makePR("acme", "api", 30, "Fix login", "alice"),
		makePR("acme", "api", 10, "Fix login", "bob"),
		makePR("acme", "api", 20, "Fix login", "carol"),
	}

	got := m.Match("fix login", prs)
	want := []int{10, 20, 30}
	nums := prNumbers(got)
	if len(nums) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(nums))
	}
	for i := range want {
		if nums[i] != want[i] {
			t.Fatalf("tie-break order = %v, want %v", nums, want)
		}
	}
}

func TestMatchTieBreakByRepository(t *testing.T) {
	m := NewMatcher(DefaultWeights())
	prs := []model.PullRequest{
		makePR("zeta", "api", 7, "Fix login", "alice"),
		makePR("acme", "api", 7, "Fix login", "bob"),
	}

	got := m.Match("fix login", prs)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].RepositoryOwner != "acme" {
		t.Errorf("expected acme/api first on repo tie-break, got %s", got[0].RepositoryFullName())
	}
}

func TestMatchDeterministic(t *testing.T) {
	m := NewMatcher(DefaultWeights())
	prs := []model.PullRequest{
		makePR("acme", "api", 1, "Fix login redirect", "alice"),
		makePR("acme", "web", 2, "Login page styling", "bob"),
		makePR("beta", "auth", 3, "login", "carol"),
	}

	first := prNumbers(m.Match("login", prs))
	for i := 0; i < 10; i++ {
		again := prNumbers(m.Match("login", prs))
		if len(again) != len(first) {
			t.Fatalf("run %d: length %d != %d", i, len(again), len(first))
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d: order %v != %v", i, again, first)
			}
		}
	}
}

func TestFieldScoreLevels(t *testing.T) {
	tests := []struct {
		name     string
		needle   string
		text     string
		expected float64
	}{
		{"exact", "fix login", "Fix Login", scoreExact},
		{"prefix", "fix", "Fix the login flow", scorePrefix},
		{"substring", "login", "Fix the login flow", scoreSubstring},
		{"no signal", "qqq", "unrelated", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fieldScore(tt.needle, tt.text)
			if got != tt.expected {
				t.Errorf("fieldScore(%q, %q) = %v, want %v", tt.needle, tt.text, got, tt.expected)
			}
		})
	}
}

func TestFieldScoreSimilarityFallback(t *testing.T) {
	// "kitten" vs "sitting": similarity 1-3/7 ~ 0.571, above the floor,
	// so the field scores similarity * scale.
	got := fieldScore("sitting", "kitten")
	want := (1.0 - 3.0/7.0) * similarityScale
	if !almostEqual(got, want) {
		t.Errorf("fieldScore similarity fallback = %v, want %v", got, want)
	}

	// Far below the floor scores zero, not a tiny positive value.
	if got := fieldScore("zzz", "aaa"); got != 0 {
		t.Errorf("expected 0 below similarity floor, got %v", got)
	}
}
