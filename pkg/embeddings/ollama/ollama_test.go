package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/helpbot/pkg/embeddings/ollama"
	"github.com/papercomputeco/helpbot/pkg/logger"
	"github.com/papercomputeco/helpbot/pkg/vector"
)

var _ = Describe("Embedder", func() {
	var (
		server   *httptest.Server
		received map[string]any
		status   int
		body     string
	)

	BeforeEach(func() {
		received = nil
		status = http.StatusOK
		body = `{"model":"nomic-embed-text","embeddings":[[0.1,0.2,0.3]]}`
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/embed"))
			Expect(r.Method).To(Equal(http.MethodPost))
			_ = json.NewDecoder(r.Body).Decode(&received)
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newEmbedder := func(model string) *ollama.Embedder {
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL + "/", Model: model}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	It("sends the model and input and returns the first embedding", func() {
		e := newEmbedder("all-minilm")
		emb, err := e.Embed(context.Background(), "what is lambda?")
		Expect(err).NotTo(HaveOccurred())
		Expect(emb).To(Equal([]float32{0.1, 0.2, 0.3}))
		Expect(received).To(HaveKeyWithValue("model", "all-minilm"))
		Expect(received).To(HaveKeyWithValue("input", "what is lambda?"))
	})

	It("falls back to the default model", func() {
		e := newEmbedder("")
		_, err := e.Embed(context.Background(), "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(received).To(HaveKeyWithValue("model", ollama.DefaultEmbeddingModel))
	})

	It("wraps non-200 responses in ErrEmbedding", func() {
		status = http.StatusNotFound
		body = `{"error":"model not found"}`
		_, err := newEmbedder("missing").Embed(context.Background(), "x")
		Expect(err).To(MatchError(vector.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("404"))
		Expect(err.Error()).To(ContainSubstring("model not found"))
	})

	It("rejects an empty embeddings list", func() {
		body = `{"embeddings":[]}`
		_, err := newEmbedder("").Embed(context.Background(), "x")
		Expect(err).To(MatchError(vector.ErrEmbedding))
	})

	It("wraps malformed JSON in ErrEmbedding", func() {
		body = `not json`
		_, err := newEmbedder("").Embed(context.Background(), "x")
		Expect(err).To(MatchError(vector.ErrEmbedding))
	})

	It("wraps connection failures in ErrEmbedding", func() {
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: "http://127.0.0.1:1"}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		_, err = e.Embed(context.Background(), "x")
		Expect(err).To(MatchError(vector.ErrEmbedding))
	})

	It("closes without error", func() {
		Expect(newEmbedder("").Close()).To(Succeed())
	})
})
