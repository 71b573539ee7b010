package index_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/helpbot/pkg/corpus"
	"github.com/papercomputeco/helpbot/pkg/index"
	"github.com/papercomputeco/helpbot/pkg/logger"
	testutils "github.com/papercomputeco/helpbot/pkg/utils/test"
	"github.com/papercomputeco/helpbot/pkg/vector"
)

func page(source, text string) corpus.Document {
	return corpus.Document{
		Text:     text,
		Metadata: corpus.Metadata{Source: source, Title: strings.ToUpper(text)},
	}
}

// slowEmbedder delays early texts longer so workers finish out of order.
type slowEmbedder struct {
	*testutils.MockEmbedder
	delays map[string]time.Duration
}

func (s *slowEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	time.Sleep(s.delays[text])
	return s.MockEmbedder.Embed(ctx, text)
}

var _ = Describe("Manager", func() {
	var (
		ctx      context.Context
		dir      string
		embedder *testutils.MockEmbedder
		drivers  map[string]*testutils.MockVectorDriver
		mu       sync.Mutex
		cfg      index.Config
	)

	docs := []corpus.Document{
		page("./aws_docs/lambda/a.html", "alpha"),
		page("./aws_docs/lambda/b.html", "beta"),
		page("./aws_docs/sagemaker/c.html", "gamma"),
	}

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()

		embedder = testutils.NewMockEmbedder()
		embedder.Embeddings["alpha"] = []float32{1, 0, 0}
		embedder.Embeddings["beta"] = []float32{0, 1, 0}
		embedder.Embeddings["gamma"] = []float32{0, 0, 1}
		embedder.Embeddings["about alpha"] = []float32{0.9, 0.1, 0}

		drivers = map[string]*testutils.MockVectorDriver{}
		cfg = index.Config{
			Dir:            dir,
			VectorProvider: "memory",
			EmbeddingModel: "mock-model",
			Dimensions:     3,
			Workers:        2,
			NewDriver: func(_ context.Context, name string) (vector.Driver, error) {
				mu.Lock()
				defer mu.Unlock()
				if d, ok := drivers[name]; ok {
					return d, nil
				}
				d := testutils.NewMockVectorDriver()
				drivers[name] = d
				return d, nil
			},
		}
	})

	newManager := func() *index.Manager {
		m, err := index.NewManager(cfg, embedder, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		return m
	}

	Describe("NewManager", func() {
		It("requires dimensions", func() {
			cfg.Dimensions = 0
			_, err := index.NewManager(cfg, embedder, logger.Nop())
			Expect(err).To(HaveOccurred())
		})

		It("requires a directory", func() {
			cfg.Dir = ""
			_, err := index.NewManager(cfg, embedder, logger.Nop())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Build", func() {
		It("stores every document in input order with stable IDs", func() {
			idx, err := newManager().Build(ctx, "lambda", docs)
			Expect(err).NotTo(HaveOccurred())
			Expect(idx.Size()).To(Equal(3))
			Expect(idx.Name()).To(Equal("lambda"))

			stored := drivers["lambda"].Documents()
			Expect(stored).To(HaveLen(3))
			Expect(stored[0].ID).To(Equal(vector.DocumentID("./aws_docs/lambda/a.html")))
			Expect(stored[0].Metadata).To(HaveKeyWithValue(vector.MetaTitle, "ALPHA"))
			Expect(stored[2].Content).To(Equal("gamma"))
			Expect(stored[2].Embedding).To(Equal([]float32{0, 0, 1}))
		})

		It("preserves order when embeddings finish out of order", func() {
			slow := &slowEmbedder{
				MockEmbedder: embedder,
				delays:       map[string]time.Duration{"alpha": 50 * time.Millisecond},
			}
			m, err := index.NewManager(cfg, slow, logger.Nop())
			Expect(err).NotTo(HaveOccurred())

			_, err = m.Build(ctx, "aws", docs)
			Expect(err).NotTo(HaveOccurred())
			Expect(drivers["aws"].Documents()).To(HaveExactElements(
				HaveField("Content", "alpha"),
				HaveField("Content", "beta"),
				HaveField("Content", "gamma"),
			))
		})

		It("replaces previous contents on rebuild", func() {
			m := newManager()
			_, err := m.Build(ctx, "lambda", docs)
			Expect(err).NotTo(HaveOccurred())

			idx, err := m.Build(ctx, "lambda", docs[:1])
			Expect(err).NotTo(HaveOccurred())
			Expect(idx.Size()).To(Equal(1))
			Expect(drivers["lambda"].Documents()).To(HaveLen(1))
			Expect(drivers["lambda"].Resets()).To(Equal(2))
		})

		It("writes a manifest", func() {
			_, err := newManager().Build(ctx, "lambda", docs)
			Expect(err).NotTo(HaveOccurred())

			m, err := index.ReadManifest(dir, "lambda")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Name).To(Equal("lambda"))
			Expect(m.Provider).To(Equal("memory"))
			Expect(m.EmbeddingModel).To(Equal("mock-model"))
			Expect(m.Dimensions).To(Equal(uint(3)))
			Expect(m.Documents).To(Equal(3))
			Expect(m.BuiltAt).NotTo(BeZero())
		})

		It("rejects vectors of the wrong size", func() {
			embedder.Embeddings["beta"] = []float32{1, 2}
			_, err := newManager().Build(ctx, "lambda", docs)
			Expect(err).To(MatchError(index.ErrDimensionMismatch))
			Expect(err.Error()).To(ContainSubstring("b.html"))
			Expect(drivers).NotTo(HaveKey("lambda"))
		})

		It("fails when any embedding fails", func() {
			embedder.FailOn = "gamma"
			_, err := newManager().Build(ctx, "lambda", docs)
			Expect(err).To(MatchError(ContainSubstring("mock embedding failure")))
			_, err = index.ReadManifest(dir, "lambda")
			Expect(err).To(MatchError(index.ErrIndexNotFound))
		})

		It("builds an empty index", func() {
			idx, err := newManager().Build(ctx, "empty", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(idx.Size()).To(Equal(0))

			found, err := idx.Search(ctx, "anything", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeEmpty())
		})
	})

	Describe("Load", func() {
		It("returns ErrIndexNotFound before a build", func() {
			_, err := newManager().Load(ctx, "aws")
			Expect(err).To(MatchError(index.ErrIndexNotFound))
		})

		It("reopens a built index", func() {
			m := newManager()
			built, err := m.Build(ctx, "aws", docs)
			Expect(err).NotTo(HaveOccurred())
			before, err := built.Search(ctx, "about alpha", 2)
			Expect(err).NotTo(HaveOccurred())

			loaded, err := m.Load(ctx, "aws")
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Size()).To(Equal(3))
			after, err := loaded.Search(ctx, "about alpha", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(Equal(before))
		})

		It("fails when configured dimensions changed", func() {
			_, err := newManager().Build(ctx, "aws", docs)
			Expect(err).NotTo(HaveOccurred())

			cfg.Dimensions = 384
			_, err = newManager().Load(ctx, "aws")
			Expect(err).To(MatchError(index.ErrDimensionMismatch))
		})

		It("only warns when the model name changed", func() {
			_, err := newManager().Build(ctx, "aws", docs)
			Expect(err).NotTo(HaveOccurred())

			cfg.EmbeddingModel = "renamed-model"
			_, err = newManager().Load(ctx, "aws")
			Expect(err).NotTo(HaveOccurred())
		})

		It("fails when the vector store provider changed", func() {
			_, err := newManager().Build(ctx, "aws", docs)
			Expect(err).NotTo(HaveOccurred())

			cfg.VectorProvider = "qdrant"
			_, err = newManager().Load(ctx, "aws")
			Expect(err).To(MatchError(index.ErrIndexNotFound))
		})
	})

	Describe("Search", func() {
		var idx *index.Index

		BeforeEach(func() {
			var err error
			idx, err = newManager().Build(ctx, "aws", docs)
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns the nearest documents first", func() {
			found, err := idx.Search(ctx, "about alpha", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(2))
			Expect(found[0].Metadata.Source).To(Equal("./aws_docs/lambda/a.html"))
			Expect(found[0].Metadata.Title).To(Equal("ALPHA"))
			Expect(found[1].Text).To(Equal("beta"))
		})

		It("returns min(k, size) documents", func() {
			for k, want := range map[int]int{1: 1, 2: 2, 3: 3, 10: 3, 0: 0} {
				found, err := idx.Search(ctx, "about alpha", k)
				Expect(err).NotTo(HaveOccurred())
				Expect(found).To(HaveLen(want), "k=%d", k)
			}
		})

		It("is idempotent", func() {
			first, err := idx.Search(ctx, "about alpha", 2)
			Expect(err).NotTo(HaveOccurred())
			second, err := idx.Search(ctx, "about alpha", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		})

		It("attaches scores", func() {
			hits, err := idx.SearchWithScores(ctx, "about alpha", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits[0].Score).To(BeNumerically(">=", hits[1].Score))
			Expect(hits[1].Score).To(BeNumerically(">=", hits[2].Score))
		})

		It("rejects a query embedding of the wrong size", func() {
			embedder.Embeddings["short"] = []float32{1}
			_, err := idx.Search(ctx, "short", 2)
			Expect(err).To(MatchError(index.ErrDimensionMismatch))
		})

		It("closes the store", func() {
			Expect(idx.Close()).To(Succeed())
			Expect(drivers["aws"].Closed()).To(BeTrue())
		})
	})
})

var _ = Describe("Manager with sqlite-vec", func() {
	It("round-trips a build through the default driver", func() {
		ctx := context.Background()
		dir := GinkgoT().TempDir()

		embedder := testutils.NewMockEmbedder()
		embedder.Embeddings["alpha"] = []float32{1, 0, 0}
		embedder.Embeddings["beta"] = []float32{0, 1, 0}

		m, err := index.NewManager(index.Config{
			Dir:            dir,
			VectorProvider: "sqlite",
			EmbeddingModel: "mock-model",
			Dimensions:     3,
		}, embedder, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		built, err := m.Build(ctx, "lambda", []corpus.Document{
			page("./aws_docs/lambda/a.html", "alpha"),
			page("./aws_docs/lambda/b.html", "beta"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(built.Close()).To(Succeed())
		Expect(filepath.Join(dir, "lambda.db")).To(BeAnExistingFile())

		loaded, err := m.Load(ctx, "lambda")
		Expect(err).NotTo(HaveOccurred())
		defer loaded.Close()

		found, err := loaded.Search(ctx, "alpha", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(HaveLen(2))
		Expect(found[0].Metadata.Source).To(Equal("./aws_docs/lambda/a.html"))
	})

	It("reports a deleted database file as not found", func() {
		ctx := context.Background()
		dir := GinkgoT().TempDir()
		m, err := index.NewManager(index.Config{Dir: dir, Dimensions: 3}, testutils.NewMockEmbedder(), logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		built, err := m.Build(ctx, "aws", []corpus.Document{page("x.html", "x")})
		Expect(err).NotTo(HaveOccurred())
		Expect(built.Close()).To(Succeed())
		Expect(os.Remove(filepath.Join(dir, "aws.db"))).To(Succeed())

		_, err = m.Load(ctx, "aws")
		Expect(err).To(MatchError(index.ErrIndexNotFound))
	})
})
