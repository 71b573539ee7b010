package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/helpbot/pkg/chat"
)

var (
	askToolName    = "ask"
	askDescription = "Ask the AWS documentation assistant a question. Pass the returned session_id on follow-up questions to keep the conversation context."
)

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to ask"`
	SessionID string `json:"session_id,omitempty" jsonschema:"session id from a previous ask call, to continue that conversation"`
}

// AskOutput represents the output of the ask tool.
type AskOutput struct {
	SessionID          string            `json:"session_id"`
	Answer             string            `json:"answer"`
	StandaloneQuestion string            `json:"standalone_question,omitempty"`
	Sources            []chat.SourceLink `json:"sources"`
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return errorResult("question is required"), AskOutput{}, nil
	}

	// A started turn outlives the client that asked it.
	session := s.config.Registry.GetOrCreate(input.SessionID)
	reply := session.Ask(context.WithoutCancel(ctx), question)

	return jsonResult(s, AskOutput{
		SessionID:          session.ID(),
		Answer:             reply.Answer,
		StandaloneQuestion: reply.Question,
		Sources:            s.config.Rewriter.Links(reply.Sources),
	})
}
