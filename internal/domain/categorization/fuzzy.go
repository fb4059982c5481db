package categorization

import (
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	// maxEditDistance bounds how sloppy a fuzzy hit may be.
	maxEditDistance = 2

	// Short patterns and tokens fuzzy-match almost anything, so they are
	// excluded here and rely on the exact engine instead.
	minFuzzyPatternLen = 5
	minFuzzyTokenLen   = 4
)

// FuzzyMatch is a fuzzy keyword hit with its confidence score.
type FuzzyMatch struct {
	Match
	Score float64
}

// FuzzyMatcher catches misspelled or truncated merchant names the exact
// engine misses, like "STARBUKS 0042" for STARBUCKS.
type FuzzyMatcher struct {
	keywords []Match
	mu       sync.RWMutex
}

// NewFuzzyMatcher builds a matcher from the given keywords.
func NewFuzzyMatcher(keywords []Keyword) *FuzzyMatcher {
	fm := &FuzzyMatcher{}
	fm.Build(keywords)
	return fm
}

// Build normalizes the keyword table for fuzzy matching. Multi-word and
// short patterns are kept out; they only match exactly.
func (fm *FuzzyMatcher) Build(keywords []Keyword) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	fm.keywords = fm.keywords[:0]
	for _, k := range keywords {
		pattern := strings.ToUpper(strings.TrimSpace(k.Pattern))
		if len(pattern) < minFuzzyPatternLen || k.Category == "" || strings.ContainsRune(pattern, ' ') {
			continue
		}
		fm.keywords = append(fm.keywords, Match{Pattern: pattern, Category: k.Category, Weight: k.Weight})
	}
}

// Match compares every description token against the keyword table and
// returns the closest hit within maxEditDistance. Score is 1.0 for an
// exact token and drops by 0.1 per edit.
func (fm *FuzzyMatcher) Match(description string) (FuzzyMatch, bool) {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	if len(fm.keywords) == 0 {
		return FuzzyMatch{}, false
	}

	tokens := strings.Fields(strings.ToUpper(description))

	var best FuzzyMatch
	found := false
	for _, k := range fm.keywords {
		for _, token := range tokens {
			if len(token) < minFuzzyTokenLen {
				continue
			}

			distance := editDistance(token, k.Pattern)
			if distance < 0 || distance > maxEditDistance {
				continue
			}

			score := 1.0 - 0.1*float64(distance)
			if !found || score > best.Score ||
				(score == best.Score && k.Weight > best.Weight) ||
				(score == best.Score && k.Weight == best.Weight && len(k.Pattern) > len(best.Pattern)) {
				best = FuzzyMatch{Match: k, Score: score}
				found = true
			}
		}
	}

	return best, found
}

// PatternCount returns the number of fuzzy-eligible patterns.
func (fm *FuzzyMatcher) PatternCount() int {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return len(fm.keywords)
}

// editDistance returns the Levenshtein distance between token and pattern
// when one fuzzy-matches the other, or -1. Both directions are tried since
// rank matching only sees characters dropped from its source string.
func editDistance(token, pattern string) int {
	if d := fuzzy.RankMatchFold(token, pattern); d >= 0 {
		return d
	}
	if d := fuzzy.RankMatchFold(pattern, token); d >= 0 {
		return d
	}
	return -1
}
