package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apisearch "github.com/papercomputeco/helpbot/api/search"
)

var (
	searchToolName    = "search_docs"
	searchDescription = "Semantic search over the indexed AWS documentation (Lambda and SageMaker developer guides). Returns the most relevant pages with their public URL and a text preview."
)

// SearchInput represents the input arguments for the search_docs tool.
type SearchInput struct {
	Query    string `json:"query" jsonschema:"the search query text"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 5)"`
	FullText bool   `json:"full_text,omitempty" jsonschema:"include the full page text of each result"`
}

// handleSearch processes a search_docs call.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, apisearch.SearchOutput, error) {
	output, err := apisearch.Search(
		ctx,
		input.Query,
		apisearch.Options{TopK: input.TopK, FullText: input.FullText},
		s.config.Searcher,
		s.config.Rewriter,
		s.config.Logger,
	)
	if err != nil {
		s.config.Logger.Error("MCP search failed", "error", err)
		return errorResult(fmt.Sprintf("Search failed: %v", err)), apisearch.SearchOutput{}, nil
	}

	return jsonResult(s, *output)
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// jsonResult mirrors structured output as a JSON text block for clients
// that only read text content.
func jsonResult[T any](s *Server, output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		s.config.Logger.Error("failed to marshal tool output", "error", err)
		var zero T
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), zero, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
