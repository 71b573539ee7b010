// Package stack resolves configuration and constructs the components shared
// by the helpbot commands: the embedder, the index manager, the inference
// caller and the chat engine.
package stack

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/helpbot/pkg/chat"
	"github.com/papercomputeco/helpbot/pkg/config"
	"github.com/papercomputeco/helpbot/pkg/dotdir"
	"github.com/papercomputeco/helpbot/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/helpbot/pkg/embeddings/utils"
	"github.com/papercomputeco/helpbot/pkg/index"
	"github.com/papercomputeco/helpbot/pkg/llm"
	"github.com/papercomputeco/helpbot/pkg/llm/provider"
	"github.com/papercomputeco/helpbot/pkg/rag"
)

const modelsDirName = "models"

// Resolve loads config with flag > env > file > default precedence. Only
// the flags named by keys are bound; each must already be registered on cmd.
func Resolve(cmd *cobra.Command, keys []string) (*config.Config, string, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, keys)

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, configDir, nil
}

// ModelDir is embedding.model_dir, or <.helpbot>/models when unset.
func ModelDir(cfg *config.Config, configDir string) (string, error) {
	if cfg.Embedding.ModelDir != "" {
		return cfg.Embedding.ModelDir, nil
	}
	base, err := dotdir.NewManager().Ensure(configDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, modelsDirName), nil
}

// NewEmbedder builds the configured embedder. Callers close it.
func NewEmbedder(cfg *config.Config, configDir string, logger *slog.Logger) (embeddings.Embedder, error) {
	opts := &embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Logger:       logger,
	}
	if cfg.Embedding.Provider == "" || cfg.Embedding.Provider == "hugot" {
		dir, err := ModelDir(cfg, configDir)
		if err != nil {
			return nil, err
		}
		opts.ModelDir = dir
	}

	embedder, err := embeddingutils.NewEmbedder(opts)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return embedder, nil
}

// NewManager builds an index.Manager over the configured index directory.
func NewManager(cfg *config.Config, configDir string, embedder embeddings.Embedder, logger *slog.Logger) (*index.Manager, error) {
	dir, err := dotdir.NewManager().IndexDir(cfg.Index.Dir, configDir)
	if err != nil {
		return nil, err
	}

	return index.NewManager(index.Config{
		Dir:            dir,
		VectorProvider: cfg.VectorStore.Provider,
		VectorTarget:   cfg.VectorStore.Target,
		EmbeddingModel: cfg.Embedding.Model,
		Dimensions:     cfg.Embedding.Dimensions,
		Workers:        cfg.Index.Workers,
	}, embedder, logger)
}

// Searchable is a loaded index with the embedder it owns.
type Searchable struct {
	*index.Index
	embedder embeddings.Embedder
}

// Close closes the index, then the embedder.
func (s *Searchable) Close() error {
	indexErr := s.Index.Close()
	if err := s.embedder.Close(); err != nil {
		return err
	}
	return indexErr
}

// OpenIndex loads the merged index. ErrIndexNotFound and
// ErrDimensionMismatch are returned wrapped so callers can fail before
// accepting input.
func OpenIndex(ctx context.Context, cfg *config.Config, configDir string, logger *slog.Logger) (*Searchable, error) {
	embedder, err := NewEmbedder(cfg, configDir, logger)
	if err != nil {
		return nil, err
	}

	manager, err := NewManager(cfg, configDir, embedder, logger)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	idx, err := manager.Load(ctx, cfg.Corpus.Merged)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("opening index %q: %w (run helpbot ingest first)", cfg.Corpus.Merged, err)
	}

	return &Searchable{Index: idx, embedder: embedder}, nil
}

// NewCaller builds the configured inference caller.
func NewCaller(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llm.Caller, error) {
	caller, err := provider.New(ctx, provider.Options{
		Provider:   cfg.LLM.Provider,
		Endpoint:   cfg.LLM.Endpoint,
		Region:     cfg.LLM.Region,
		Target:     cfg.LLM.Target,
		Model:      cfg.LLM.Model,
		Parameters: llm.DefaultParameters(),
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating inference caller: %w", err)
	}
	return caller, nil
}

// NewEngine wires condenser, retriever and generator around one caller.
func NewEngine(ctx context.Context, cfg *config.Config, searcher rag.Searcher, logger *slog.Logger) (*chat.Engine, error) {
	caller, err := NewCaller(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return chat.NewEngine(
		rag.NewCondenser(caller, logger),
		rag.NewRetriever(searcher, int(cfg.Index.TopK)),
		rag.NewGenerator(caller, logger),
		logger,
	), nil
}

// Rewrites converts configured source rewrites.
func Rewrites(cfg *config.Config) []chat.Rewrite {
	out := make([]chat.Rewrite, 0, len(cfg.Sources.Rewrites))
	for _, r := range cfg.Sources.Rewrites {
		out = append(out, chat.Rewrite{Prefix: r.Prefix, URL: r.URL})
	}
	return out
}
