// Package rag holds the three stages of answering a question over the
// index: condensing a follow-up into a standalone question, retrieving
// passages for it and generating an answer from them.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/helpbot/pkg/llm"
)

const condenseTemplate = `Given the following conversation and a follow up question, rephrase the follow up question
to be a standalone question.

Chat History:
{chat_history}
Follow Up Input: {question}
Standalone question:`

// Exchange is one completed question and answer.
type Exchange struct {
	User      string
	Assistant string
}

// RenderHistory formats exchanges as "user:<q>\nassistant:<a>" blocks joined
// by newlines.
func RenderHistory(exchanges []Exchange) string {
	parts := make([]string, len(exchanges))
	for i, e := range exchanges {
		parts[i] = "user:" + e.User + "\nassistant:" + e.Assistant
	}
	return strings.Join(parts, "\n")
}

// CondensePrompt fills the condense template.
func CondensePrompt(history, question string) string {
	return strings.NewReplacer(
		"{chat_history}", history,
		"{question}", question,
	).Replace(condenseTemplate)
}

// Condenser rewrites a follow-up question so it can be understood without
// the conversation.
type Condenser struct {
	caller llm.Caller
	logger *slog.Logger
}

func NewCondenser(caller llm.Caller, logger *slog.Logger) *Condenser {
	return &Condenser{caller: caller, logger: logger}
}

// Condense returns the standalone form of question. With no completed
// exchange the question is already standalone and is returned unchanged
// without calling the model.
func (c *Condenser) Condense(ctx context.Context, history []Exchange, question string) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	out, err := c.caller.Complete(ctx, CondensePrompt(RenderHistory(history), question))
	if err != nil {
		return "", fmt.Errorf("condensing question: %w", err)
	}

	standalone := strings.TrimSpace(out)
	c.logger.Debug("condensed question", "question", question, "standalone", standalone)
	return standalone, nil
}
