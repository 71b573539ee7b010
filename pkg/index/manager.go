// Package index builds, persists and searches named document indexes.
//
// A Manager owns the index directory and the embedder. Build embeds a
// corpus and replaces whatever the named index held before; Load reopens a
// built index after checking its manifest against the current embedding
// configuration.
package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/papercomputeco/helpbot/pkg/corpus"
	"github.com/papercomputeco/helpbot/pkg/embeddings"
	"github.com/papercomputeco/helpbot/pkg/vector"
	vectorutils "github.com/papercomputeco/helpbot/pkg/vector/utils"
)

const addBatchSize = 64

// DriverFactory opens the vector store backing the named index.
type DriverFactory func(ctx context.Context, name string) (vector.Driver, error)

// Config configures a Manager.
type Config struct {
	// Dir holds manifests and, for the sqlite provider, the index files.
	Dir string

	VectorProvider string
	VectorTarget   string

	EmbeddingModel string
	Dimensions     uint

	// Workers bounds concurrent Embed calls during Build.
	Workers uint

	// NewDriver overrides how stores are opened. Defaults to
	// vectorutils.NewVectorDriver for VectorProvider.
	NewDriver DriverFactory
}

// Manager builds and loads indexes.
type Manager struct {
	cfg      Config
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// NewManager returns a Manager. The embedder is shared by every index the
// manager opens and is not closed by it.
func NewManager(cfg Config, embedder embeddings.Embedder, logger *slog.Logger) (*Manager, error) {
	if cfg.Dimensions == 0 {
		return nil, errors.New("embedding dimensions must be configured")
	}
	if cfg.Dir == "" {
		return nil, errors.New("index directory must be configured")
	}

	m := &Manager{
		cfg:      cfg,
		embedder: embedder,
		logger:   logger,
	}
	if m.cfg.NewDriver == nil {
		m.cfg.NewDriver = m.openDriver
	}
	return m, nil
}

func (m *Manager) openDriver(ctx context.Context, name string) (vector.Driver, error) {
	return vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: m.cfg.VectorProvider,
		Target:       m.cfg.VectorTarget,
		Index:        name,
		Dir:          m.cfg.Dir,
		Dimensions:   m.cfg.Dimensions,
		Logger:       m.logger,
	})
}

// Build embeds docs and stores them as the named index, replacing any
// previous contents. The returned Index must be closed by the caller.
func (m *Manager) Build(ctx context.Context, name string, docs []corpus.Document) (*Index, error) {
	start := time.Now()

	pool, err := newEmbedPool(m.embedder, m.cfg.Workers, m.logger)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	m.logger.Info("embedding documents", "index", name, "documents", len(docs))
	vectors, err := pool.embedAll(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("building index %s: %w", name, err)
	}

	entries := make([]vector.Document, len(docs))
	for i, d := range docs {
		if got := uint(len(vectors[i])); got != m.cfg.Dimensions {
			return nil, fmt.Errorf("%w: %s has %d dimensions, configured %d",
				ErrDimensionMismatch, d.Metadata.Source, got, m.cfg.Dimensions)
		}
		entries[i] = vector.Document{
			ID:      vector.DocumentID(d.Metadata.Source),
			Content: d.Text,
			Metadata: map[string]string{
				vector.MetaSource: d.Metadata.Source,
				vector.MetaTitle:  d.Metadata.Title,
			},
			Embedding: vectors[i],
		}
	}

	driver, err := m.cfg.NewDriver(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("opening store for %s: %w", name, err)
	}

	if err := m.store(ctx, driver, entries); err != nil {
		driver.Close()
		return nil, fmt.Errorf("storing index %s: %w", name, err)
	}

	manifest := &Manifest{
		Name:           name,
		Provider:       m.provider(),
		EmbeddingModel: m.cfg.EmbeddingModel,
		Dimensions:     m.cfg.Dimensions,
		Documents:      len(entries),
		BuiltAt:        time.Now().UTC().Truncate(time.Second),
	}
	if err := writeManifest(m.cfg.Dir, manifest); err != nil {
		driver.Close()
		return nil, err
	}

	m.logger.Info("index built",
		"index", name,
		"documents", len(entries),
		"provider", manifest.Provider,
		"duration", time.Since(start),
	)

	return newIndex(manifest, driver, m.embedder, m.logger), nil
}

func (m *Manager) store(ctx context.Context, driver vector.Driver, entries []vector.Document) error {
	if err := driver.Reset(ctx); err != nil {
		return err
	}
	for lo := 0; lo < len(entries); lo += addBatchSize {
		hi := min(lo+addBatchSize, len(entries))
		if err := driver.Add(ctx, entries[lo:hi]); err != nil {
			return err
		}
	}
	return nil
}

// Load opens a previously built index. A missing manifest or store is
// ErrIndexNotFound; a manifest built with other dimensions is
// ErrDimensionMismatch. A different embedding model name only logs a
// warning, since renamed copies of a model produce the same vectors.
func (m *Manager) Load(ctx context.Context, name string) (*Index, error) {
	manifest, err := ReadManifest(m.cfg.Dir, name)
	if err != nil {
		return nil, err
	}

	if manifest.Provider != m.provider() {
		return nil, fmt.Errorf("%w: %s was built for vector store %q, configured %q",
			ErrIndexNotFound, name, manifest.Provider, m.provider())
	}

	if manifest.Provider == "sqlite" {
		path := vectorutils.SQLitePath(m.cfg.Dir, name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, path)
		}
	}

	if manifest.Dimensions != m.cfg.Dimensions {
		return nil, fmt.Errorf("%w: index %s has %d dimensions, configured %d",
			ErrDimensionMismatch, name, manifest.Dimensions, m.cfg.Dimensions)
	}

	if manifest.EmbeddingModel != m.cfg.EmbeddingModel {
		m.logger.Warn("index was built with a different embedding model",
			"index", name,
			"built_with", manifest.EmbeddingModel,
			"configured", m.cfg.EmbeddingModel,
		)
	}

	driver, err := m.cfg.NewDriver(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("opening store for %s: %w", name, err)
	}

	m.logger.Debug("index loaded", "index", name, "documents", manifest.Documents)
	return newIndex(manifest, driver, m.embedder, m.logger), nil
}

// provider normalizes the configured vector provider name.
func (m *Manager) provider() string {
	switch m.cfg.VectorProvider {
	case "", "sqlite", "sqlite-vec":
		return "sqlite"
	case "postgres":
		return "pgvector"
	default:
		return m.cfg.VectorProvider
	}
}
