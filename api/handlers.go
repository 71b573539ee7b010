package api

import (
	"context"
	_ "embed"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/helpbot/pkg/chat"
)

//go:embed web/index.html
var indexPage []byte

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	// SessionID is empty on the first turn; the response carries the id to
	// send afterwards.
	SessionID string `json:"session_id,omitempty"`
	Question  string `json:"question"`
}

// ChatResponse is the reply to POST /v1/chat.
type ChatResponse struct {
	SessionID          string            `json:"session_id"`
	Answer             string            `json:"answer"`
	StandaloneQuestion string            `json:"standalone_question,omitempty"`
	Sources            []chat.SourceLink `json:"sources"`
}

// HistoryResponse lists a session's turns, oldest first.
type HistoryResponse struct {
	SessionID string      `json:"session_id"`
	Turns     []chat.Turn `json:"turns"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleIndexPage serves the chat page.
func (s *Server) handleIndexPage(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(indexPage)
}

// handleChat runs one turn. The turn is not cancelled if the client goes
// away; its answer still lands in the session history.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "question is required"})
	}

	session := s.config.Registry.GetOrCreate(req.SessionID)
	reply := session.Ask(context.WithoutCancel(c.UserContext()), question)

	return c.JSON(ChatResponse{
		SessionID:          session.ID(),
		Answer:             reply.Answer,
		StandaloneQuestion: reply.Question,
		Sources:            s.config.Rewriter.Links(reply.Sources),
	})
}

// handleGetHistory returns the turns of a session.
func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	id := c.Params("id")
	session, ok := s.config.Registry.Get(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	return c.JSON(HistoryResponse{
		SessionID: id,
		Turns:     session.History(),
	})
}

// handleClearHistory empties a session's history. Clearing an unknown
// session is not an error; there is nothing to clear.
func (s *Server) handleClearHistory(c *fiber.Ctx) error {
	if session, ok := s.config.Registry.Get(c.Params("id")); ok {
		session.Clear()
	}
	return c.SendStatus(fiber.StatusNoContent)
}
