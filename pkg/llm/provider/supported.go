package provider

import (
	"context"
	"fmt"

	"github.com/papercomputeco/helpbot/pkg/llm"
	"github.com/papercomputeco/helpbot/pkg/llm/provider/ollama"
	"github.com/papercomputeco/helpbot/pkg/llm/provider/sagemaker"
)

// Supported provider type constants
const (
	SageMaker = "sagemaker"
	Ollama    = "ollama"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{SageMaker, Ollama}
}

// New creates the Caller for o.Provider.
// Returns an error if the provider type is not recognized.
func New(ctx context.Context, o Options) (llm.Caller, error) {
	system := o.SystemPrompt
	if system == "" {
		system = llm.DefaultSystemPrompt
	}

	switch o.Provider {
	case SageMaker:
		return sagemaker.New(ctx, sagemaker.Config{
			Endpoint:     o.Endpoint,
			Region:       o.Region,
			SystemPrompt: system,
			Parameters:   o.Parameters,
		}, o.Logger)
	case Ollama:
		return ollama.New(ollama.Config{
			BaseURL:      o.Target,
			Model:        o.Model,
			SystemPrompt: system,
			Parameters:   o.Parameters,
		}, o.Logger), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", o.Provider, SupportedProviders())
	}
}
