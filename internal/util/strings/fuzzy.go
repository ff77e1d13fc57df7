package strings

import (
	"sort"
	"strings"
)

// MaxSuggestDistance is the largest edit distance Similar will report
const MaxSuggestDistance = 3

// Similar returns up to limit candidates within MaxSuggestDistance of
// target, closest first. Matching ignores case; ties keep candidate order.
//
// Example:
//
//	Similar("Pont", []string{"Point", "Player"}, 1) // ["Point"]
func Similar(target string, candidates []string, limit int) []string {
	type match struct {
		value    string
		distance int
	}

	lower := strings.ToLower(target)
	var matches []match
	for _, c := range candidates {
		if c == target {
			continue
		}
		if d := Levenshtein(lower, strings.ToLower(c)); d <= MaxSuggestDistance && d < len(target) {
			matches = append(matches, match{c, d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	out := make([]string, 0, limit)
	for i := 0; i < len(matches) && i < limit; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// Levenshtein returns the number of single-byte insertions, deletions, or
// substitutions needed to turn a into b.
func Levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
