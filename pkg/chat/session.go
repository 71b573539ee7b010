package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/papercomputeco/helpbot/pkg/corpus"
	"github.com/papercomputeco/helpbot/pkg/index"
	"github.com/papercomputeco/helpbot/pkg/llm"
)

// Apology is the reply shown whenever a turn fails.
const Apology = "I'm sorry, I'm unable to respond to your question 😔"

// State is what a Session is doing.
type State int32

const (
	StateIdle State = iota
	StateProcessing
)

func (s State) String() string {
	if s == StateProcessing {
		return "processing"
	}
	return "idle"
}

// Reply is the outcome of one Ask.
type Reply struct {
	Answer string

	// Question is the standalone question; empty when the turn failed.
	Question string

	// Sources is empty when the turn failed.
	Sources []corpus.Document

	// Failed is true when Answer is the apology.
	Failed bool
}

// Session is one conversation. Turns are single-flight: a second Ask waits
// for the first to finish.
type Session struct {
	id      string
	engine  Answerer
	logger  *slog.Logger
	mu      sync.Mutex
	history *History
	state   atomic.Int32
}

// NewSession returns an idle session with an empty history bounded by
// maxHistory.
func NewSession(id string, engine Answerer, maxHistory int, logger *slog.Logger) *Session {
	return &Session{
		id:      id,
		engine:  engine,
		logger:  logger.With("session", id),
		history: NewHistory(maxHistory),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State reports whether a turn is in progress.
func (s *Session) State() State { return State(s.state.Load()) }

// Ask runs one turn: the question is recorded, answered against the history
// so far and the answer recorded. Failures never surface as errors; the
// reply carries the apology instead.
func (s *Session) Ask(ctx context.Context, question string) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Store(int32(StateProcessing))
	defer s.state.Store(int32(StateIdle))

	if s.history.Append(Turn{Role: RoleUser, Content: question}) {
		s.logger.Info("history limit reached, history cleared", "max", s.history.Max())
	}

	var reply Reply
	result, err := s.engine.Answer(ctx, s.history.Exchanges(), question)
	if err != nil {
		reply = s.replyFor(err)
	} else {
		reply = Reply{
			Answer:   result.Answer,
			Question: result.Question,
			Sources:  result.Sources,
		}
	}

	if s.history.Append(Turn{Role: RoleAssistant, Content: reply.Answer}) {
		s.logger.Info("history limit reached, history cleared", "max", s.history.Max())
	}
	return reply
}

// replyFor logs err by kind and converts it to the apology.
func (s *Session) replyFor(err error) Reply {
	var inf *llm.InferenceError
	switch {
	case errors.As(err, &inf):
		s.logger.Error("inference failed", "provider", inf.Provider, "kind", inf.Kind, "error", err)
	case errors.Is(err, index.ErrDimensionMismatch):
		s.logger.Error("retrieval failed", "error", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("turn interrupted", "error", err)
	default:
		s.logger.Error("turn failed", "error", err)
	}
	return Reply{Answer: Apology, Sources: []corpus.Document{}, Failed: true}
}

// History returns a copy of the turns so far.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Turns()
}

// Clear empties the history. It waits for an in-flight turn.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Clear()
}
