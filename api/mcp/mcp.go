// Package mcp provides an MCP (Model Context Protocol) server exposing the
// documentation index and the chat assistant as tools.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apisearch "github.com/papercomputeco/helpbot/api/search"
	"github.com/papercomputeco/helpbot/pkg/chat"
	"github.com/papercomputeco/helpbot/pkg/utils"
)

type Config struct {
	// Searcher for semantic search over the documentation index
	Searcher apisearch.Searcher

	// Registry holds the sessions the ask tool converses in
	Registry *chat.Registry

	// Rewriter turns source paths into links
	Rewriter *chat.SourceRewriter

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the search_docs and ask tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "helpbot",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// no tools: MCP capabilities are disabled
		s.mcpServer = mcpServer
		return s, nil
	}

	if c.Searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if c.Registry == nil {
		return nil, errors.New("chat registry is required")
	}
	if c.Rewriter == nil {
		return nil, errors.New("source rewriter is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchToolName,
		Description: searchDescription,
	}, s.handleSearch)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        askToolName,
		Description: askDescription,
	}, s.handleAsk)

	s.mcpServer = mcpServer

	// Stateless: conversation state lives in the chat registry, keyed by the
	// session_id the ask tool returns.
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server, or nil for a noop
// server.
func (s *Server) Handler() http.Handler {
	if s.handler == nil {
		return nil
	}
	return s.handler
}
