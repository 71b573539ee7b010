package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/helpbot/pkg/corpus"
	"github.com/papercomputeco/helpbot/pkg/llm"
)

const answerTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

{context}

Question: {question}
Helpful Answer:`

// AnswerPrompt stuffs every document's text into the answer template.
func AnswerPrompt(question string, docs []corpus.Document) string {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	return strings.NewReplacer(
		"{context}", strings.Join(texts, "\n\n"),
		"{question}", question,
	).Replace(answerTemplate)
}

// Generator answers a question from retrieved documents.
type Generator struct {
	caller llm.Caller
	logger *slog.Logger
}

func NewGenerator(caller llm.Caller, logger *slog.Logger) *Generator {
	return &Generator{caller: caller, logger: logger}
}

// Generate returns the model's answer, trimmed of surrounding whitespace.
func (g *Generator) Generate(ctx context.Context, question string, docs []corpus.Document) (string, error) {
	out, err := g.caller.Complete(ctx, AnswerPrompt(question, docs))
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	g.logger.Debug("generated answer", "documents", len(docs), "chars", len(out))
	return strings.TrimSpace(out), nil
}
