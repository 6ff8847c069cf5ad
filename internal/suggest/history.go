package suggest

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
)

// QueryLister lists previously accepted queries, newest first.
type QueryLister interface {
	RecentQueries(limit int) ([]string, error)
}

// HistorySource suggests words from previously accepted searches that
// fuzzy-match the token. Ties are broken by recency.
type HistorySource struct {
	lister     QueryLister
	scanLimit  int
	maxResults int
}

// NewHistorySource creates a HistorySource that scans up to scanLimit recent
// queries and returns at most maxResults words.
func NewHistorySource(lister QueryLister, scanLimit, maxResults int) *HistorySource {
	if scanLimit <= 0 {
		scanLimit = 200
	}
	if maxResults <= 0 {
		maxResults = 3
	}
	return &HistorySource{
		lister:     lister,
		scanLimit:  scanLimit,
		maxResults: maxResults,
	}
}

// Fetch implements Source.
func (h *HistorySource) Fetch(ctx context.Context, token string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	queries, err := h.lister.RecentQueries(h.scanLimit)
	if err != nil {
		return nil, err
	}

	words := lo.Uniq(lo.FlatMap(queries, func(q string, _ int) []string {
		return strings.Fields(q)
	}))

	matches := fuzzy.Find(token, words)
	results := make([]string, 0, h.maxResults)
	for _, match := range matches {
		if len(results) == h.maxResults {
			break
		}
		results = append(results, match.Str)
	}

	return results, nil
}
