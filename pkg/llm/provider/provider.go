// Package provider builds the llm.Caller for the configured backend.
package provider

import (
	"log/slog"

	"github.com/papercomputeco/helpbot/pkg/llm"
)

// Options selects and configures an inference backend.
type Options struct {
	// Provider is one of SupportedProviders.
	Provider string

	// Endpoint is the SageMaker endpoint name.
	Endpoint string
	Region   string

	// Target is the Ollama base URL.
	Target string
	Model  string

	// SystemPrompt defaults to llm.DefaultSystemPrompt when empty.
	SystemPrompt string
	Parameters   llm.Parameters

	Logger *slog.Logger
}
