// Package categorization suggests category names for transaction
// descriptions that arrive without one. Matching runs in three stages:
// exact keyword lookup, fuzzy token matching, then nearest remembered
// merchant from past imports.
package categorization

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// keywordConfidence is reported for exact keyword hits.
	keywordConfidence = 0.95

	// indexConfidence is reported for nearest-merchant hits. Learned
	// history is a strong signal but weaker than an exact keyword.
	indexConfidence = 0.82
)

// Service runs the suggestion stages in order of decreasing precision.
type Service struct {
	engine *Engine
	fuzzy  *FuzzyMatcher
	index  *MerchantIndex
	logger *slog.Logger
}

// NewService builds a suggestion service from a keyword table.
func NewService(keywords []Keyword, logger *slog.Logger) *Service {
	return &Service{
		engine: NewEngine(keywords),
		fuzzy:  NewFuzzyMatcher(keywords),
		logger: logger,
	}
}

// WithIndex enables the nearest-merchant stage.
func (s *Service) WithIndex(index *MerchantIndex) *Service {
	s.index = index
	return s
}

// Suggest returns a category name for the description with a confidence
// score, or ok=false when no stage produced a hit.
func (s *Service) Suggest(ctx context.Context, description string) (string, float64, bool) {
	cleaned := CleanDescription(description)
	if cleaned == "" {
		return "", 0, false
	}

	if match, ok := s.engine.Match(cleaned); ok {
		return match.Category, keywordConfidence, true
	}

	if match, ok := s.fuzzy.Match(cleaned); ok {
		return match.Category, match.Score, true
	}

	if s.index != nil {
		category, found, err := s.index.Lookup(cleaned)
		if err != nil {
			s.logger.Warn("merchant index lookup failed", "error", err)
		} else if found {
			return category, indexConfidence, true
		}
	}

	return "", 0, false
}

// Learn remembers a categorized description so later imports of the same
// merchant resolve without a keyword hit. No-op without an index.
func (s *Service) Learn(description, category string) {
	if s.index == nil {
		return
	}

	cleaned := CleanDescription(description)
	if cleaned == "" || category == "" {
		return
	}

	if err := s.index.Add(cleaned, category); err != nil {
		s.logger.Warn("failed to remember categorized description", "error", err)
	}
}

// noisePrefixes are processor tags banks prepend to the merchant name.
var noisePrefixes = []string{
	"COMPRAS C.DEB ",
	"COMPRA ",
	"PURCHASE ",
	"POS ",
	"DEBIT CARD ",
	"PAGAMENTO ",
	"PAG*",
	"MB WAY ",
	"MBWAY ",
	"MULTIBANCO ",
	"TRF ",
	"TRANSF ",
}

// CleanDescription strips bank noise from a raw statement description:
// processor prefixes, trailing reference numbers, shouting case.
func CleanDescription(desc string) string {
	cleaned := stripNoisePrefix(strings.TrimSpace(desc))
	cleaned = cutStarReference(cleaned)
	cleaned = cutTrailingReference(cleaned)
	return titleCase(cleaned)
}

func stripNoisePrefix(s string) string {
	upper := strings.ToUpper(s)
	for _, prefix := range noisePrefixes {
		if strings.HasPrefix(upper, prefix) {
			return strings.TrimSpace(s[len(prefix):])
		}
	}
	return s
}

// cutStarReference drops a short trailing "*1234" processor reference.
func cutStarReference(s string) string {
	idx := strings.LastIndexByte(s, '*')
	if idx <= 0 {
		return s
	}
	if ref := s[idx+1:]; len(ref) <= 6 && isDigits(ref) {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

// cutTrailingReference drops a long trailing digit run, a terminal or
// reference number rather than part of the name. Short runs stay:
// "7 ELEVEN 42" keeps 42.
func cutTrailingReference(s string) string {
	idx := strings.LastIndexByte(s, ' ')
	if idx <= 0 {
		return s
	}
	if tail := s[idx+1:]; len(tail) >= 4 && isDigits(tail) {
		return strings.TrimSpace(s[:idx])
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
