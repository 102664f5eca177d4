package services

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"
)

const defaultSuggestLimit = 5

// Suggest ranks stored card names by fuzzy similarity to query
func (s *CardInfoService) Suggest(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}, nil
	}

	names, err := s.store.CardNames(ctx)
	if err != nil {
		return nil, err
	}

	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(n)
	}

	matches := fuzzy.Find(strings.ToLower(query), lowered)
	suggestions := make([]string, 0, limit)
	for _, m := range matches {
		if len(suggestions) == limit {
			break
		}
		suggestions = append(suggestions, names[m.Index])
	}
	return suggestions, nil
}
