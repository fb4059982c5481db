package categorization

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// Match is a keyword hit on a transaction description.
type Match struct {
	Pattern  string
	Category string
	Weight   int
}

// Engine matches descriptions against the keyword table using Aho-Corasick,
// so one pass over the text checks every pattern at once.
type Engine struct {
	matcher  *ahocorasick.Matcher
	patterns []string
	matches  []Match
	mu       sync.RWMutex
}

// NewEngine builds an engine from the given keywords.
func NewEngine(keywords []Keyword) *Engine {
	e := &Engine{}
	e.Build(keywords)
	return e
}

// Build compiles the matcher from keywords. Safe to call again when the
// keyword table changes.
func (e *Engine) Build(keywords []Keyword) {
	e.mu.Lock()
	defer e.mu.Unlock()

	byPattern := make(map[string]int, len(keywords))
	patterns := make([]string, 0, len(keywords))
	matches := make([]Match, 0, len(keywords))

	for _, k := range keywords {
		pattern := strings.ToUpper(strings.TrimSpace(k.Pattern))
		if pattern == "" || k.Category == "" {
			continue
		}

		if idx, exists := byPattern[pattern]; exists {
			// Duplicate pattern: the heavier entry wins.
			if k.Weight > matches[idx].Weight {
				matches[idx] = Match{Pattern: pattern, Category: k.Category, Weight: k.Weight}
			}
			continue
		}

		byPattern[pattern] = len(patterns)
		patterns = append(patterns, pattern)
		matches = append(matches, Match{Pattern: pattern, Category: k.Category, Weight: k.Weight})
	}

	e.patterns = patterns
	e.matches = matches

	if len(patterns) == 0 {
		e.matcher = nil
		return
	}

	bytePatterns := make([][]byte, len(patterns))
	for i, p := range patterns {
		bytePatterns[i] = []byte(p)
	}
	e.matcher = ahocorasick.NewMatcher(bytePatterns)
}

// Match returns the strongest keyword hit for the description. Weight
// breaks ties first, then pattern length, so "UBER EATS" beats "UBER".
func (e *Engine) Match(description string) (Match, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil {
		return Match{}, false
	}

	hits := e.matcher.Match([]byte(strings.ToUpper(description)))
	if len(hits) == 0 {
		return Match{}, false
	}

	var best Match
	found := false
	for _, idx := range hits {
		if idx < 0 || idx >= len(e.matches) {
			continue
		}
		m := e.matches[idx]
		if !found || m.Weight > best.Weight ||
			(m.Weight == best.Weight && len(m.Pattern) > len(best.Pattern)) {
			best = m
			found = true
		}
	}

	return best, found
}

// PatternCount returns the number of compiled patterns.
func (e *Engine) PatternCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.patterns)
}
