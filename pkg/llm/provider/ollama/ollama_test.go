package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/helpbot/pkg/llm"
	"github.com/papercomputeco/helpbot/pkg/llm/provider/ollama"
	"github.com/papercomputeco/helpbot/pkg/logger"
)

var _ = Describe("Caller", func() {
	var (
		server   *httptest.Server
		received map[string]any
		status   int
		body     string
		caller   *ollama.Caller
	)

	BeforeEach(func() {
		received = nil
		status = http.StatusOK
		body = `{"model":"llama2","message":{"role":"assistant","content":"Use the console."},"done":true}`
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/chat"))
			_ = json.NewDecoder(r.Body).Decode(&received)
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))
		caller = ollama.New(ollama.Config{
			BaseURL:      server.URL,
			SystemPrompt: "system text",
			Parameters:   llm.DefaultParameters(),
		}, logger.Nop())
	})

	AfterEach(func() {
		server.Close()
	})

	It("sends system and user messages with sampling options", func() {
		out, err := caller.Complete(context.Background(), "How do I deploy?")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Use the console."))

		Expect(received).To(HaveKeyWithValue("model", ollama.DefaultModel))
		Expect(received).To(HaveKeyWithValue("stream", false))
		Expect(received["messages"]).To(Equal([]any{
			map[string]any{"role": "system", "content": "system text"},
			map[string]any{"role": "user", "content": "How do I deploy?"},
		}))
		Expect(received["options"]).To(Equal(map[string]any{
			"temperature": 0.6,
			"top_p":       0.9,
			"num_predict": float64(1000),
		}))
	})

	It("reports non-200 replies as unreachable", func() {
		status = http.StatusInternalServerError
		body = `{"error":"model crashed"}`
		_, err := caller.Complete(context.Background(), "q")
		Expect(err).To(MatchError(llm.ErrUnreachable))
		Expect(err.Error()).To(ContainSubstring("model crashed"))
	})

	It("reports an error field as unreachable", func() {
		body = `{"error":"model \"llama2\" not found"}`
		_, err := caller.Complete(context.Background(), "q")
		Expect(err).To(MatchError(llm.ErrUnreachable))
	})

	It("reports undecodable bodies as malformed", func() {
		body = `<html>`
		_, err := caller.Complete(context.Background(), "q")
		Expect(err).To(MatchError(llm.ErrMalformedResponse))
	})

	It("reports a missing message as malformed", func() {
		body = `{"done":true}`
		_, err := caller.Complete(context.Background(), "q")
		Expect(err).To(MatchError(llm.ErrMalformedResponse))
	})

	It("reports connection failures as unreachable", func() {
		c := ollama.New(ollama.Config{BaseURL: "http://127.0.0.1:1"}, logger.Nop())
		_, err := c.Complete(context.Background(), "q")
		Expect(err).To(MatchError(llm.ErrUnreachable))
	})
})
