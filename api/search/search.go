// Package search provides shared search types and logic for semantic search
// over the documentation index. It is used by both the REST API endpoint
// and the MCP server tool.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/helpbot/pkg/chat"
	"github.com/papercomputeco/helpbot/pkg/index"
	"github.com/papercomputeco/helpbot/pkg/utils"
)

// DefaultTopK is used when a request does not set top_k.
const DefaultTopK = 5

const previewLength = 280

// Searcher is satisfied by *index.Index.
type Searcher interface {
	SearchWithScores(ctx context.Context, query string, k int) ([]index.Hit, error)
}

// SearchResult represents a single search result.
type SearchResult struct {
	Title   string  `json:"title"`
	Source  string  `json:"source"`
	URL     string  `json:"url"`
	Score   float32 `json:"score"`
	Preview string  `json:"preview"`

	// Text is the full passage; omitted unless requested.
	Text string `json:"text,omitempty"`
}

// SearchOutput represents the output of a search operation.
type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// Options tune a search call.
type Options struct {
	TopK int

	// FullText includes each passage's full text in the results.
	FullText bool
}

// Search runs query against the index and shapes the hits for display,
// rewriting sources to public URLs.
func Search(
	ctx context.Context,
	query string,
	opts Options,
	searcher Searcher,
	rewriter *chat.SourceRewriter,
	logger *slog.Logger,
) (*SearchOutput, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	logger.Debug("search request",
		"query", query,
		"top_k", topK,
	)

	hits, err := searcher.SearchWithScores(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, BuildSearchResult(h, rewriter, opts.FullText))
	}

	return &SearchOutput{
		Query:   query,
		Results: results,
		Count:   len(results),
	}, nil
}

// BuildSearchResult converts an index hit into a SearchResult.
func BuildSearchResult(hit index.Hit, rewriter *chat.SourceRewriter, fullText bool) SearchResult {
	link := rewriter.Link(hit.Document)

	r := SearchResult{
		Title:   link.Title,
		Source:  link.Source,
		URL:     link.URL,
		Score:   hit.Score,
		Preview: utils.Truncate(utils.OneLine(hit.Document.Text), previewLength),
	}
	if fullText {
		r.Text = hit.Document.Text
	}
	return r
}
