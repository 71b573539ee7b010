package pgvector_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/papercomputeco/helpbot/pkg/logger"
	"github.com/papercomputeco/helpbot/pkg/vector"
	"github.com/papercomputeco/helpbot/pkg/vector/pgvector"
)

var _ = Describe("TableName", func() {
	It("prefixes and sanitizes the index name", func() {
		Expect(pgvector.TableName("aws")).To(Equal("helpbot_aws"))
		Expect(pgvector.TableName("SageMaker-Docs v2")).To(Equal("helpbot_sagemaker_docs_v2"))
		Expect(pgvector.TableName("x; DROP TABLE y")).To(Equal("helpbot_x_drop_table_y"))
	})
})

var _ = Describe("PGVectorDriver", Ordered, func() {
	var (
		ctx    context.Context
		dsn    string
		driver *pgvector.PGVectorDriver
	)

	BeforeAll(func() {
		ctx = context.Background()

		var container *postgres.PostgresContainer
		var err error
		func() {
			// testcontainers panics when no Docker daemon is reachable.
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%v", r)
				}
			}()
			container, err = postgres.Run(ctx,
				"pgvector/pgvector:pg17",
				postgres.WithDatabase("helpbot"),
				postgres.WithUsername("helpbot"),
				postgres.WithPassword("helpbot"),
				testcontainers.WithWaitStrategy(
					wait.ForLog("database system is ready to accept connections").
						WithOccurrence(2).
						WithStartupTimeout(90*time.Second),
				),
			)
		}()
		if err != nil {
			Skip("docker unavailable: " + err.Error())
		}
		DeferCleanup(func() {
			Expect(container.Terminate(context.Background())).To(Succeed())
		})

		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())
	})

	BeforeEach(func() {
		var err error
		driver, err = pgvector.NewPGVectorDriver(ctx, pgvector.Config{
			DSN:        dsn,
			Index:      "lambda",
			Dimensions: 3,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(driver.Reset(ctx)).To(Succeed())
	})

	AfterEach(func() {
		Expect(driver.Close()).To(Succeed())
	})

	It("implements vector.Driver", func() {
		var _ vector.Driver = driver
	})

	It("ranks documents by cosine distance", func() {
		Expect(driver.Add(ctx, []vector.Document{
			{ID: "far", Content: "far", Metadata: map[string]string{"source": "far.html"}, Embedding: []float32{0, 0, 1}},
			{ID: "near", Content: "near", Metadata: map[string]string{"source": "near.html"}, Embedding: []float32{1, 0, 0}},
		})).To(Succeed())

		results, err := driver.Query(ctx, []float32{1, 0.1, 0}, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].ID).To(Equal("near"))
		Expect(results[0].Metadata).To(HaveKeyWithValue("source", "near.html"))
		Expect(results[0].Score).To(BeNumerically(">", results[1].Score))
	})

	It("upserts on conflicting IDs", func() {
		Expect(driver.Add(ctx, []vector.Document{{ID: "a", Content: "old", Embedding: []float32{1, 0, 0}}})).To(Succeed())
		Expect(driver.Add(ctx, []vector.Document{{ID: "a", Content: "new", Embedding: []float32{0, 1, 0}}})).To(Succeed())

		docs, err := driver.Get(ctx, []string{"a"})
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))
		Expect(docs[0].Content).To(Equal("new"))
		Expect(docs[0].Embedding).To(Equal([]float32{0, 1, 0}))
	})

	It("deletes and resets", func() {
		Expect(driver.Add(ctx, []vector.Document{
			{ID: "a", Content: "a", Embedding: []float32{1, 0, 0}},
			{ID: "b", Content: "b", Embedding: []float32{0, 1, 0}},
		})).To(Succeed())

		Expect(driver.Delete(ctx, []string{"a"})).To(Succeed())
		results, err := driver.Query(ctx, []float32{1, 0, 0}, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))

		Expect(driver.Reset(ctx)).To(Succeed())
		results, err = driver.Query(ctx, []float32{1, 0, 0}, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})
})
