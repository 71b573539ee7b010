// Package hugot implements an in-process embeddings.Embedder that runs a
// sentence-transformers ONNX model through hugot's pure Go backend.
package hugot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/papercomputeco/helpbot/pkg/embeddings"
	"github.com/papercomputeco/helpbot/pkg/vector"
)

// DefaultModel matches the model the AWS docs index was originally built with.
const DefaultModel = "sentence-transformers/all-MiniLM-L12-v2"

// defaultOwner is assumed for model names without an owner segment, such as
// the "all-MiniLM-L12-v2" older EMBEDDING_MODEL settings carry.
const defaultOwner = "sentence-transformers"

// Config holds configuration for the hugot embedder.
type Config struct {
	// Model is a Hugging Face model name, e.g. "sentence-transformers/all-MiniLM-L12-v2".
	Model string

	// ModelDir is where models are downloaded to and loaded from.
	ModelDir string

	// OnnxFile is the path of the ONNX weights inside the model repository.
	OnnxFile string
}

type runFunc func(texts []string) ([][]float32, error)

// Embedder runs a feature extraction pipeline in-process.
type Embedder struct {
	model   string
	logger  *slog.Logger
	destroy func() error

	// The Go backend pipeline is not safe for concurrent use.
	mu  sync.Mutex
	run runFunc
}

// RepoID returns the Hugging Face repository for model.
func RepoID(model string) string {
	if model != "" && !strings.Contains(model, "/") {
		return defaultOwner + "/" + model
	}
	return model
}

// ModelPath is the directory a model is stored in under dir.
func ModelPath(dir, model string) string {
	return filepath.Join(dir, strings.ReplaceAll(RepoID(model), "/", "_"))
}

// PrepareModel downloads model into dir unless it is already there and
// returns its local path.
func PrepareModel(model, dir, onnxFile string, logger *slog.Logger) (string, error) {
	modelPath := ModelPath(dir, model)
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("checking model directory: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating model directory: %w", err)
	}

	logger.Info("downloading embedding model", "model", model, "dir", dir)

	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = onnxFile
	downloaded, err := hugot.DownloadModel(RepoID(model), dir, opts)
	if err != nil {
		return "", fmt.Errorf("downloading model %s: %w", model, err)
	}
	return downloaded, nil
}

// NewEmbedder prepares the model and starts a hugot session for it.
func NewEmbedder(cfg Config, logger *slog.Logger) (*Embedder, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	onnxFile := cfg.OnnxFile
	if onnxFile == "" {
		onnxFile = "onnx/model.onnx"
	}
	if cfg.ModelDir == "" {
		return nil, fmt.Errorf("%w: model directory is required", vector.ErrEmbedding)
	}

	modelPath, err := PrepareModel(model, cfg.ModelDir, onnxFile, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrEmbedding, err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("%w: creating hugot session: %v", vector.ErrEmbedding, err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "helpbot-embedder",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("%w: creating pipeline: %v (cleanup error: %v)", vector.ErrEmbedding, err, destroyErr)
		}
		return nil, fmt.Errorf("%w: creating pipeline: %v", vector.ErrEmbedding, err)
	}

	logger.Debug("hugot embedder ready", "model", model, "path", modelPath)

	return &Embedder{
		model:   model,
		logger:  logger,
		destroy: session.Destroy,
		run: func(texts []string) ([][]float32, error) {
			result, err := pipeline.RunPipeline(texts)
			if err != nil {
				return nil, err
			}
			return result.Embeddings, nil
		},
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	out, err := e.run([]string{text})
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrEmbedding, err)
	}
	if len(out) == 0 || len(out[0]) == 0 {
		return nil, fmt.Errorf("%w: no embedding generated", vector.ErrEmbedding)
	}
	return out[0], nil
}

// Close destroys the hugot session.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroy == nil {
		return nil
	}
	err := e.destroy()
	e.destroy = nil
	return err
}

var _ embeddings.Embedder = (*Embedder)(nil)
