package search

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
)

// SearchParams configures a catalog search query.
type SearchParams struct {
	Query  string
	Limit  int
	Offset int
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:  20,
		Offset: 0,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Title   string  `json:"title"`
	Authors string  `json:"authors,omitempty"`
}

// Search executes a catalog search over titles and authors.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	titleQuery := bleve.NewMatchQuery(params.Query)
	titleQuery.SetField("title")
	titleQuery.SetBoost(2.0)

	authorsQuery := bleve.NewMatchQuery(params.Query)
	authorsQuery.SetField("authors")

	searchQuery := bleve.NewDisjunctionQuery(titleQuery, authorsQuery)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)
	searchRequest.Fields = []string{"id", "title", "authors"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if t, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = t
		}
		if a, ok := hit.Fields["authors"].(string); ok {
			searchHit.Authors = a
		}
		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// Warm runs a best-effort title query to pull the relevant index blocks into
// memory ahead of catalog lookups. Failures only log; matching never gates
// on warm-up completing.
func (s *SearchIndex) Warm(ctx context.Context, title string) {
	if title == "" {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	titleQuery := bleve.NewMatchQuery(title)
	titleQuery.SetField("title")

	searchRequest := bleve.NewSearchRequestOptions(titleQuery, 5, 0, false)
	if _, err := s.index.SearchInContext(ctx, searchRequest); err != nil {
		s.logger.Debug("catalog warm-up query failed", "title", title, "error", err)
	}
}
