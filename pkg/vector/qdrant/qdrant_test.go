package qdrant_test

import (
	"context"
	"os"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/helpbot/pkg/logger"
	"github.com/papercomputeco/helpbot/pkg/vector"
	"github.com/papercomputeco/helpbot/pkg/vector/qdrant"
)

var _ = Describe("ParseTarget", func() {
	It("defaults to the gRPC port", func() {
		host, port, tls, err := qdrant.ParseTarget("localhost")
		Expect(err).NotTo(HaveOccurred())
		Expect(host).To(Equal("localhost"))
		Expect(port).To(Equal(6334))
		Expect(tls).To(BeFalse())
	})

	It("reads host and port", func() {
		host, port, _, err := qdrant.ParseTarget("qdrant.internal:7000")
		Expect(err).NotTo(HaveOccurred())
		Expect(host).To(Equal("qdrant.internal"))
		Expect(port).To(Equal(7000))
	})

	It("enables TLS for https URLs", func() {
		host, port, tls, err := qdrant.ParseTarget("https://cloud.qdrant.io:6334")
		Expect(err).NotTo(HaveOccurred())
		Expect(host).To(Equal("cloud.qdrant.io"))
		Expect(port).To(Equal(6334))
		Expect(tls).To(BeTrue())
	})

	It("rejects an empty target", func() {
		_, _, _, err := qdrant.ParseTarget("")
		Expect(err).To(HaveOccurred())
	})

	It("rejects a non-numeric port", func() {
		_, _, _, err := qdrant.ParseTarget("localhost:grpc")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("QdrantDriver", func() {
	It("implements vector.Driver", func() {
		var _ vector.Driver = (*qdrant.QdrantDriver)(nil)
	})

	It("requires a collection and dimensions", func() {
		_, err := qdrant.NewQdrantDriver(context.Background(), qdrant.Config{Target: "localhost", Dimensions: 3}, logger.Nop())
		Expect(err).To(HaveOccurred())

		_, err = qdrant.NewQdrantDriver(context.Background(), qdrant.Config{Target: "localhost", Collection: "aws"}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	// Runs against a live server when QDRANT_TEST_TARGET is set
	// (e.g. docker run -p 6334:6334 qdrant/qdrant).
	Context("against a live server", func() {
		var driver *qdrant.QdrantDriver
		ctx := context.Background()

		BeforeEach(func() {
			target := os.Getenv("QDRANT_TEST_TARGET")
			if target == "" {
				Skip("QDRANT_TEST_TARGET not set")
			}

			var err error
			driver, err = qdrant.NewQdrantDriver(ctx, qdrant.Config{
				Target:     target,
				Collection: "helpbot-test-" + uuid.NewString()[:8],
				Dimensions: 3,
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() {
				_ = driver.Reset(ctx)
				driver.Close()
			})
		})

		It("round-trips documents and ranks by cosine similarity", func() {
			near := vector.Document{
				ID: vector.DocumentID("near"), Content: "near",
				Metadata:  map[string]string{vector.MetaSource: "near.html"},
				Embedding: []float32{1, 0, 0},
			}
			far := vector.Document{
				ID: vector.DocumentID("far"), Content: "far",
				Metadata:  map[string]string{vector.MetaSource: "far.html"},
				Embedding: []float32{0, 0, 1},
			}
			Expect(driver.Add(ctx, []vector.Document{far, near})).To(Succeed())

			results, err := driver.Query(ctx, []float32{1, 0.1, 0}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Content).To(Equal("near"))
			Expect(results[0].Metadata).To(HaveKeyWithValue(vector.MetaSource, "near.html"))

			docs, err := driver.Get(ctx, []string{near.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))

			Expect(driver.Delete(ctx, []string{near.ID})).To(Succeed())
			results, err = driver.Query(ctx, []float32{1, 0, 0}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
		})
	})
})
