// Package api serves the web chat page, the JSON chat and search API and the
// MCP endpoint.
package api

import (
	"net/http"

	apisearch "github.com/papercomputeco/helpbot/api/search"
	"github.com/papercomputeco/helpbot/pkg/chat"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8501")
	ListenAddr string

	// Registry holds the per-browser chat sessions.
	Registry *chat.Registry

	// Searcher backs GET /v1/search. Search is disabled when nil.
	Searcher apisearch.Searcher

	// Rewriter turns source paths into links.
	Rewriter *chat.SourceRewriter

	// MCPHandler is mounted at /mcp when set.
	MCPHandler http.Handler
}
