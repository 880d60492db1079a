// Package analyze decides whether a comment counts as positive. The policy
// combines the model verdict with an author exclusion list and a keyword
// fallback for polite praise the model files under neutral.
package analyze

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/empenoso/comment-sentiment-analyzer/internal/config"
	"github.com/empenoso/comment-sentiment-analyzer/internal/oracle"
)

// Analyzer applies the positivity decision policy.
type Analyzer struct {
	provider  oracle.Provider
	excluded  map[string]struct{}
	keywords  []string
	threshold float64
	minLength int
	positive  string
	neutral   string
	posIndex  int
}

// New creates an analyzer from the resolved configuration.
func New(cfg *config.Config, provider oracle.Provider) *Analyzer {
	keywords := make([]string, len(cfg.PraiseKeywords))
	for i, k := range cfg.PraiseKeywords {
		keywords[i] = strings.ToLower(k)
	}
	return &Analyzer{
		provider:  provider,
		excluded:  cfg.ExcludedAuthors(),
		keywords:  keywords,
		threshold: cfg.Filter.PositiveThreshold,
		minLength: cfg.Filter.MinCommentLength,
		positive:  cfg.Labels.Positive,
		neutral:   cfg.Labels.Neutral,
		posIndex:  cfg.Labels.Index(cfg.Labels.Positive),
	}
}

// IsPositive reports whether the comment qualifies as positive. Excluded
// authors and too-short texts are rejected before the model is consulted.
// An inference error makes the comment not positive; the caller decides
// whether to tally it.
func (a *Analyzer) IsPositive(ctx context.Context, text, author string) (bool, error) {
	if _, ok := a.excluded[author]; ok {
		return false, nil
	}
	if utf8.RuneCountInString(text) < a.minLength {
		return false, nil
	}

	verdict, err := a.provider.Classify(ctx, text)
	if err != nil {
		return false, err
	}

	if verdict.Label == a.positive && a.posIndex >= 0 && a.posIndex < len(verdict.Scores) {
		if verdict.Scores[a.posIndex] >= a.threshold {
			return true, nil
		}
	}

	if verdict.Label == a.neutral && a.containsPraise(text) {
		return true, nil
	}

	return false, nil
}

func (a *Analyzer) containsPraise(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range a.keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
