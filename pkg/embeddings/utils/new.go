// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/helpbot/pkg/embeddings"
	"github.com/papercomputeco/helpbot/pkg/embeddings/hugot"
	"github.com/papercomputeco/helpbot/pkg/embeddings/ollama"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string

	// ModelDir is only used by the hugot provider.
	ModelDir string
	Logger   *slog.Logger
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "hugot", "":
		return hugot.NewEmbedder(hugot.Config{
			Model:    o.Model,
			ModelDir: o.ModelDir,
		}, o.Logger)
	case "ollama":
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
