// Package invite resolves hand-typed invitation codes against known codes,
// tolerating small typos.
package invite

import (
	"strings"
	"unicode"
)

// DefaultThreshold is the minimum (exclusive) fuzzy similarity for a match.
const DefaultThreshold = 0.90

// MaxSimilarity is the highest score Similarity can return, reached by two
// identical one-rune codes: (2 + 0.5 + 1) / 2. Identical ten-rune codes score 1.3.
const MaxSimilarity = (positionalPoints + existencePoints + equalLengthBonus) / positionalPoints

// Similarity weights.
const (
	positionalPoints = 2.0
	existencePoints  = 0.5
	equalLengthBonus = 1.0
)

// Tier records which resolution rule produced a match.
type Tier string

// Resolution tiers, in the order they are tried.
const (
	TierExact           Tier = "exact"
	TierCaseInsensitive Tier = "case_insensitive"
	TierFuzzy           Tier = "fuzzy"
)

// Entry is one known code and the entity (team or church) it identifies.
type Entry struct {
	EntityID string `json:"entity_id" yaml:"entity_id"`
	Code     string `json:"code" yaml:"code"`
}

// Match is a resolved entry. Score is 1 for exact and case-insensitive hits.
type Match struct {
	Entry
	Tier  Tier    `json:"tier"`
	Score float64 `json:"score"`
}

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithThreshold sets the fuzzy acceptance threshold. It is a Similarity
// score, not a ratio; values outside (0, MaxSimilarity] are ignored.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		if threshold > 0 && threshold <= MaxSimilarity {
			m.threshold = threshold
		}
	}
}

// Matcher resolves codes. It holds only its threshold and is safe for
// concurrent use.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher with DefaultThreshold unless overridden.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the configured fuzzy acceptance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Resolve finds the entry for input: exact match first, then a
// case-insensitive match, then the best fuzzy match scoring strictly above
// the threshold. Within a tier the earliest entry wins ties. The boolean is
// false when nothing qualifies, including for an empty index.
func (m *Matcher) Resolve(input string, index []Entry) (Match, bool) {
	for _, e := range index {
		if e.Code == input {
			return Match{Entry: e, Tier: TierExact, Score: 1}, true
		}
	}
	for _, e := range index {
		if strings.EqualFold(e.Code, input) {
			return Match{Entry: e, Tier: TierCaseInsensitive, Score: 1}, true
		}
	}

	best, bestScore := -1, 0.0
	for i, e := range index {
		if s := Similarity(input, e.Code); best < 0 || s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 || bestScore <= m.threshold {
		return Match{}, false
	}
	return Match{Entry: index[best], Tier: TierFuzzy, Score: bestScore}, true
}

// Resolve uses DefaultThreshold.
func Resolve(input string, index []Entry) (Match, bool) {
	return defaultMatcher.Resolve(input, index)
}

var defaultMatcher = NewMatcher() //nolint:gochecknoglobals // immutable after init

// Similarity scores how closely input resembles candidate, compared rune by
// rune and case-insensitively:
//
//	+2   per position where both runes match
//	+0.5 per input rune found in the not-yet-consumed runes of candidate
//	+1   when both have the same length
//
// normalized by 2*max(len). The result lies in [0, MaxSimilarity] and exceeds
// 1 for near-identical strings. Two empty strings score 0.
func Similarity(input, candidate string) float64 {
	in := []rune(strings.Map(unicode.ToLower, input))
	cand := []rune(strings.Map(unicode.ToLower, candidate))

	longest := max(len(in), len(cand))
	if longest == 0 {
		return 0
	}

	var points float64
	for i := 0; i < min(len(in), len(cand)); i++ {
		if in[i] == cand[i] {
			points += positionalPoints
		}
	}

	remaining := make(map[rune]int, len(cand))
	for _, r := range cand {
		remaining[r]++
	}
	for _, r := range in {
		if remaining[r] > 0 {
			remaining[r]--
			points += existencePoints
		}
	}

	if len(in) == len(cand) {
		points += equalLengthBonus
	}

	return points / (positionalPoints * float64(longest))
}
