package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/helpbot/pkg/corpus"
	"github.com/papercomputeco/helpbot/pkg/embeddings"
	"github.com/papercomputeco/helpbot/pkg/vector"
)

// Hit is a search result with its similarity score.
type Hit struct {
	Document corpus.Document
	Score    float32
}

// Index is an opened, searchable index. It is safe for concurrent use.
type Index struct {
	manifest *Manifest
	driver   vector.Driver
	embedder embeddings.Embedder
	logger   *slog.Logger
}

func newIndex(manifest *Manifest, driver vector.Driver, embedder embeddings.Embedder, logger *slog.Logger) *Index {
	return &Index{
		manifest: manifest,
		driver:   driver,
		embedder: embedder,
		logger:   logger,
	}
}

// Name returns the index name.
func (i *Index) Name() string { return i.manifest.Name }

// Size returns the number of documents in the index.
func (i *Index) Size() int { return i.manifest.Documents }

// Manifest returns a copy of the index manifest.
func (i *Index) Manifest() Manifest { return *i.manifest }

// Search returns the k documents nearest to query, nearest first. Fewer are
// returned when the index holds fewer than k.
func (i *Index) Search(ctx context.Context, query string, k int) ([]corpus.Document, error) {
	hits, err := i.SearchWithScores(ctx, query, k)
	if err != nil {
		return nil, err
	}
	docs := make([]corpus.Document, len(hits))
	for j, h := range hits {
		docs[j] = h.Document
	}
	return docs, nil
}

// SearchWithScores is Search with the store's similarity scores attached.
func (i *Index) SearchWithScores(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 || i.manifest.Documents == 0 {
		return []Hit{}, nil
	}

	emb, err := i.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if uint(len(emb)) != i.manifest.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index %s has %d",
			ErrDimensionMismatch, len(emb), i.manifest.Name, i.manifest.Dimensions)
	}

	results, err := i.driver.Query(ctx, emb, k)
	if err != nil {
		return nil, fmt.Errorf("querying index %s: %w", i.manifest.Name, err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			Document: corpus.Document{
				Text: r.Content,
				Metadata: corpus.Metadata{
					Source: r.Metadata[vector.MetaSource],
					Title:  r.Metadata[vector.MetaTitle],
				},
			},
			Score: r.Score,
		})
	}

	i.logger.Debug("index search",
		"index", i.manifest.Name,
		"k", k,
		"results", len(hits),
	)
	return hits, nil
}

// Close releases the underlying store. The embedder is left open.
func (i *Index) Close() error {
	return i.driver.Close()
}
