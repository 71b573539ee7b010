package index

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/helpbot/pkg/embeddings"
)

var defaultNumWorkers uint = 4

// job asks a worker to embed text into slot.
type job struct {
	slot int
	text string
}

// embedPool embeds a batch of texts with a fixed number of workers. Each
// result lands in the slot of its input, so output order matches input
// order whatever order the workers finish in.
type embedPool struct {
	embedder   embeddings.Embedder
	numWorkers uint
	logger     *slog.Logger
}

func newEmbedPool(embedder embeddings.Embedder, numWorkers uint, logger *slog.Logger) (*embedPool, error) {
	if numWorkers == 0 {
		numWorkers = defaultNumWorkers
	}
	if numWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("workers %d exceeds max int", numWorkers)
	}
	return &embedPool{
		embedder:   embedder,
		numWorkers: numWorkers,
		logger:     logger,
	}, nil
}

// embedAll returns one vector per text. The first failure cancels the
// remaining jobs and is returned.
func (p *embedPool) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	queue := make(chan job)

	g, gctx := errgroup.WithContext(ctx)

	for id := range p.numWorkers {
		g.Go(func() error {
			return p.worker(gctx, id, queue, out)
		})
	}

	g.Go(func() error {
		defer close(queue)
		for i, text := range texts {
			select {
			case queue <- job{slot: i, text: text}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *embedPool) worker(ctx context.Context, id uint, queue <-chan job, out [][]float32) error {
	p.logger.Debug("embed worker started", "worker_id", id)
	for j := range queue {
		emb, err := p.embedder.Embed(ctx, j.text)
		if err != nil {
			return fmt.Errorf("embedding document %d: %w", j.slot, err)
		}
		out[j.slot] = emb
	}
	p.logger.Debug("embed worker stopped", "worker_id", id)
	return nil
}
