// Package match ranks pull requests against a free-text query using
// weighted per-field similarity scoring.
package match

// LevenshteinDistance returns the minimum number of single-character
// insertions, deletions, and substitutions needed to turn a into b.
// Defined for all string pairs, including empty strings, and symmetric
// in its arguments. Operates on runes so multi-byte input counts
// characters, not bytes.
func LevenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Two-row dynamic programming table.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// SimilarityScore returns 1 - distance/max(len(a), len(b)) in [0, 1].
// Two empty strings score 1.0.
func SimilarityScore(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))

	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}

	return 1.0 - float64(LevenshteinDistance(a, b))/float64(longest)
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
