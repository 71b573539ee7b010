// Package ingestcmder provides the ingest command, which parses the HTML
// corpus and builds one index per collection plus the merged index.
package ingestcmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/helpbot/cmd/helpbot/stack"
	"github.com/papercomputeco/helpbot/pkg/cliui"
	"github.com/papercomputeco/helpbot/pkg/config"
	"github.com/papercomputeco/helpbot/pkg/corpus"
	"github.com/papercomputeco/helpbot/pkg/index"
	"github.com/papercomputeco/helpbot/pkg/logger"
)

type ingestCommander struct {
	flags config.FlagSet

	cfg       *config.Config
	configDir string

	corpusRoot     string
	collections    []string
	merged         string
	indexDir       string
	workers        uint
	vectorProvider string
	vectorTarget   string
	embedProvider  string
	embedTarget    string
	embedModel     string
	embedDims      uint

	watch   bool
	noMerge bool
	debug   bool

	logger *slog.Logger
}

var ingestFlags = []string{
	config.FlagCorpusRoot,
	config.FlagCollections,
	config.FlagMerged,
	config.FlagIndexDir,
	config.FlagWorkers,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
}

const ingestLongDesc string = `Parse the HTML documentation corpus and build the vector indexes.

Every *.html file directly under <corpus-root>/<collection>/ becomes one
document. Each collection gets its own index, and the merged index (searched
by chat) holds every collection in order. Rebuilding an index replaces its
previous contents.

With --watch, ingest keeps running and rebuilds a collection and the merged
index whenever an HTML file in that collection changes.

Examples:
  helpbot ingest
  helpbot ingest --collections lambda,sagemaker --corpus-root ./aws_docs
  helpbot ingest --vector-store-provider qdrant --vector-store-target localhost:6334
  helpbot ingest --watch`

const ingestShortDesc string = "Build the vector indexes from the HTML corpus"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, cmder.configDir, err = stack.Resolve(cmd, ingestFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cmder.run(ctx)
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagCorpusRoot, &cmder.corpusRoot)
	config.AddStringSliceFlag(cmd, cmder.flags, config.FlagCollections, &cmder.collections)
	config.AddStringFlag(cmd, cmder.flags, config.FlagMerged, &cmder.merged)
	config.AddStringFlag(cmd, cmder.flags, config.FlagIndexDir, &cmder.indexDir)
	config.AddUintFlag(cmd, cmder.flags, config.FlagWorkers, &cmder.workers)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreProv, &cmder.vectorProvider)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingProv, &cmder.embedProvider)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingTgt, &cmder.embedTarget)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, cmder.flags, config.FlagEmbeddingDims, &cmder.embedDims)
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Keep running and rebuild when the corpus changes")
	cmd.Flags().BoolVar(&cmder.noMerge, "no-merge", false, "Skip building the merged index")

	return cmd
}

func (c *ingestCommander) run(ctx context.Context) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithFormat(logger.FormatPretty))

	embedder, err := stack.NewEmbedder(c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer embedder.Close()

	manager, err := stack.NewManager(c.cfg, c.configDir, embedder, c.logger)
	if err != nil {
		return err
	}

	b := &builder{
		cfg:      c.cfg,
		manager:  manager,
		ingestor: corpus.NewIngestor(c.logger),
		merge:    !c.noMerge,
	}

	cliui.Section(os.Stdout, "Ingesting "+c.cfg.Corpus.Root)
	if err := b.buildAll(ctx); err != nil {
		return err
	}

	if !c.watch {
		fmt.Println()
		return nil
	}

	return c.watchCorpus(ctx, b)
}

func (c *ingestCommander) watchCorpus(ctx context.Context, b *builder) error {
	watcher, err := corpus.NewWatcher(c.cfg.Corpus.Root, c.cfg.Corpus.Collections, corpus.DefaultDebounce, c.logger)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("Watching for changes. Ctrl+C to stop."))

	for name := range watcher.Run(ctx) {
		if err := b.rebuild(ctx, name); err != nil {
			// A half-written file should not stop the watch loop; the next
			// write triggers another rebuild.
			c.logger.Error("rebuild failed", "collection", name, "error", err)
		}
	}
	return nil
}

// builder runs the ingest and index steps with progress output.
type builder struct {
	cfg      *config.Config
	manager  *index.Manager
	ingestor *corpus.Ingestor
	merge    bool
}

func (b *builder) load(ctx context.Context) ([]corpus.Collection, error) {
	var collections []corpus.Collection
	err := cliui.Step(os.Stdout, "Parsing HTML corpus", func() error {
		var err error
		collections, err = b.ingestor.Load(ctx, b.cfg.Corpus.Root, b.cfg.Corpus.Collections)
		return err
	})
	return collections, err
}

func (b *builder) buildAll(ctx context.Context) error {
	collections, err := b.load(ctx)
	if err != nil {
		return err
	}

	for _, col := range collections {
		if err := b.build(ctx, col.Name, col.Documents); err != nil {
			return err
		}
	}

	if b.merge {
		return b.build(ctx, b.cfg.Corpus.Merged, corpus.Merge(collections))
	}
	return nil
}

// rebuild reloads the corpus and rebuilds the changed collection and the
// merged index.
func (b *builder) rebuild(ctx context.Context, name string) error {
	collections, err := b.load(ctx)
	if err != nil {
		return err
	}

	for _, col := range collections {
		if col.Name == name {
			if err := b.build(ctx, col.Name, col.Documents); err != nil {
				return err
			}
		}
	}

	if b.merge {
		return b.build(ctx, b.cfg.Corpus.Merged, corpus.Merge(collections))
	}
	return nil
}

func (b *builder) build(ctx context.Context, name string, docs []corpus.Document) error {
	msg := fmt.Sprintf("Indexing %s %s", cliui.KeyStyle.Render(name), cliui.DimStyle.Render(fmt.Sprintf("(%d documents)", len(docs))))
	return cliui.Step(os.Stdout, msg, func() error {
		idx, err := b.manager.Build(ctx, name, docs)
		if err != nil {
			return err
		}
		return idx.Close()
	})
}
