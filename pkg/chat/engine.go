package chat

import (
	"context"
	"log/slog"

	"github.com/papercomputeco/helpbot/pkg/rag"
)

// Answerer answers a question given the completed exchanges before it.
type Answerer interface {
	Answer(ctx context.Context, history []rag.Exchange, question string) (rag.Result, error)
}

// Engine runs condense, retrieve and generate in sequence. It holds no
// per-conversation state and is shared by every Session.
type Engine struct {
	condenser *rag.Condenser
	retriever *rag.Retriever
	generator *rag.Generator
	logger    *slog.Logger
}

func NewEngine(condenser *rag.Condenser, retriever *rag.Retriever, generator *rag.Generator, logger *slog.Logger) *Engine {
	return &Engine{
		condenser: condenser,
		retriever: retriever,
		generator: generator,
		logger:    logger,
	}
}

// Answer implements Answerer.
func (e *Engine) Answer(ctx context.Context, history []rag.Exchange, question string) (rag.Result, error) {
	standalone, err := e.condenser.Condense(ctx, history, question)
	if err != nil {
		return rag.Result{}, err
	}

	docs, err := e.retriever.Retrieve(ctx, standalone)
	if err != nil {
		return rag.Result{}, err
	}

	answer, err := e.generator.Generate(ctx, standalone, docs)
	if err != nil {
		return rag.Result{}, err
	}

	e.logger.Debug("answered question",
		"question", question,
		"standalone", standalone,
		"sources", len(docs),
	)
	return rag.Result{
		Answer:   answer,
		Question: standalone,
		Sources:  docs,
	}, nil
}
