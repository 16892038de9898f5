// Package fuzzy ranks known tokens by similarity to a mistyped one.
// Used by the parser to attach "did you mean" hints to unexpected tokens.
package fuzzy

import (
	"sort"
	"strings"
)

// Matcher finds candidates within an edit distance of an input
type Matcher struct {
	maxDistance int
	minLength   int
}

// NewMatcher creates a new fuzzy matcher with the given max edit distance
func NewMatcher(maxDistance int) *Matcher {
	return &Matcher{
		maxDistance: maxDistance,
		minLength:   2, // no hints for one-character typos like "-x"
	}
}

// Match is one ranked candidate
type Match struct {
	Value    string
	Distance int
	Score    float64 // 0.0 to 1.0, higher is better
}

// FindBest returns the best candidate, or "" if none is close enough
func (m *Matcher) FindBest(input string, candidates []string) string {
	matches := m.FindMatches(input, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Value
}

// FindMatches returns the candidates within reach, best first. Distances
// are computed on lowercased strings, so a case-only difference counts as
// distance 0; an exact match is not a suggestion.
func (m *Matcher) FindMatches(input string, candidates []string) []Match {
	if len(input) < m.minLength {
		return nil
	}

	var matches []Match
	lower := strings.ToLower(input)
	for _, candidate := range candidates {
		if candidate == input {
			continue
		}
		cl := strings.ToLower(candidate)
		d := m.distance(lower, cl)
		if d > m.maxDistance {
			continue
		}
		matches = append(matches, Match{
			Value:    candidate,
			Distance: d,
			Score:    m.score(lower, cl, d),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// score blends edit distance with a shared-prefix bonus
func (m *Matcher) score(a, b string, distance int) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1.0
	}
	s := 1.0 - float64(distance)/float64(longest)

	prefix := 0
	for prefix < min(len(a), len(b)) && a[prefix] == b[prefix] {
		prefix++
	}
	if shortest := min(len(a), len(b)); shortest > 0 {
		s += float64(prefix) / float64(shortest) * 0.3
	}
	return min(s, 1.0)
}

// distance is the Levenshtein distance, cut off at maxDistance+1
func (m *Matcher) distance(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(b)-len(a) > m.maxDistance {
		return m.maxDistance + 1
	}
	if len(a) == 0 {
		return len(b)
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}

	for i := 1; i <= len(b); i++ {
		curr[0] = i
		rowMin := i
		for j := 1; j <= len(a); j++ {
			cost := 1
			if a[j-1] == b[i-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
			rowMin = min(rowMin, curr[j])
		}
		if rowMin > m.maxDistance {
			return m.maxDistance + 1
		}
		prev, curr = curr, prev
	}
	return prev[len(a)]
}

// Suggest returns the closest candidate to input within maxDistance
func Suggest(input string, candidates []string, maxDistance int) string {
	return NewMatcher(maxDistance).FindBest(input, candidates)
}

// Suggestions returns up to limit candidates, best first
func Suggestions(input string, candidates []string, maxDistance, limit int) []string {
	matches := NewMatcher(maxDistance).FindMatches(input, candidates)
	out := make([]string, 0, min(len(matches), limit))
	for _, match := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, match.Value)
	}
	return out
}
