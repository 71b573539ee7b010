// Package ollama implements llm.Caller over a local Ollama server's
// non-streaming /api/chat endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/helpbot/pkg/llm"
	"github.com/papercomputeco/helpbot/pkg/utils"
)

const (
	providerName = "ollama"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is a local stand-in for the hosted Llama 2 chat model.
	DefaultModel = "llama2"
)

// Config configures a Caller.
type Config struct {
	BaseURL      string
	Model        string
	SystemPrompt string
	Parameters   llm.Parameters
}

// Caller posts one chat request per prompt.
type Caller struct {
	baseURL    string
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// New returns an Ollama Caller. The HTTP client carries no timeout; the
// request context bounds each call.
func New(cfg Config, logger *slog.Logger) *Caller {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Caller{
		baseURL:    baseURL,
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Complete sends prompt after the system prompt and returns the reply.
func (c *Caller) Complete(ctx context.Context, prompt string) (string, error) {
	req := llm.NewChatRequest(c.cfg.Model, c.cfg.SystemPrompt, prompt, c.cfg.Parameters)

	body := ollamaRequest{
		Model:  req.Model,
		Stream: false,
		Options: &ollamaOptions{
			Temperature: req.Parameters.Temperature,
			TopP:        req.Parameters.TopP,
			NumPredict:  req.Parameters.MaxNewTokens,
		},
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, ollamaMessage{Role: m.Role, Content: m.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", llm.Malformed(providerName, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", llm.Unreachable(providerName, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", llm.Unreachable(providerName, fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.Unreachable(providerName, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", llm.Unreachable(providerName,
			fmt.Errorf("status %d: %s", resp.StatusCode, utils.Truncate(strings.TrimSpace(string(raw)), 200)))
	}

	var out ollamaResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", llm.Malformed(providerName, fmt.Errorf("decode response: %w", err))
	}
	if out.Error != "" {
		return "", llm.Unreachable(providerName, errors.New(out.Error))
	}
	if out.Message == nil {
		return "", llm.Malformed(providerName, errors.New("response has no message"))
	}

	c.logger.Debug("ollama completion",
		"model", c.cfg.Model,
		"prompt_chars", len(prompt),
		"eval_count", out.EvalCount,
		"duration", time.Since(start),
	)
	return out.Message.Content, nil
}

var _ llm.Caller = (*Caller)(nil)
