package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/helpbot/pkg/chat"
	"github.com/papercomputeco/helpbot/pkg/corpus"
	"github.com/papercomputeco/helpbot/pkg/index"
	"github.com/papercomputeco/helpbot/pkg/logger"
	"github.com/papercomputeco/helpbot/pkg/rag"
)

type fakeAnswerer struct {
	err error
}

func (f *fakeAnswerer) Answer(_ context.Context, history []rag.Exchange, question string) (rag.Result, error) {
	if f.err != nil {
		return rag.Result{}, f.err
	}
	return rag.Result{
		Answer:   "answer to " + question,
		Question: question,
		Sources: []corpus.Document{{
			Text:     "passage",
			Metadata: corpus.Metadata{Source: "./aws_docs/sagemaker/a.html", Title: "A"},
		}},
	}, nil
}

type fakeSearcher struct {
	hits []index.Hit
	err  error
}

func (f *fakeSearcher) SearchWithScores(_ context.Context, _ string, _ int) ([]index.Hit, error) {
	return f.hits, f.err
}

func doJSON(app *fiber.App, method, target, body string) (*http.Response, map[string]any) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, target, reader)
	Expect(err).NotTo(HaveOccurred())
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, int((5 * time.Second).Milliseconds()))
	Expect(err).NotTo(HaveOccurred())

	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

var _ = Describe("Server", func() {
	var (
		server   *Server
		answerer *fakeAnswerer
		searcher *fakeSearcher
		registry *chat.Registry
	)

	BeforeEach(func() {
		answerer = &fakeAnswerer{}
		searcher = &fakeSearcher{}
		registry = chat.NewRegistry(answerer, 10, time.Minute, logger.Nop())

		var err error
		server, err = NewServer(Config{
			ListenAddr: ":0",
			Registry:   registry,
			Searcher:   searcher,
			Rewriter:   chat.NewSourceRewriter(chat.DefaultRewrites()),
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("requires a registry", func() {
			_, err := NewServer(Config{Rewriter: chat.NewSourceRewriter(nil)}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("chat registry is required")))
		})

		It("requires a rewriter", func() {
			_, err := NewServer(Config{Registry: registry}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("source rewriter is required")))
		})
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			resp, _ := doJSON(server.app, http.MethodGet, "/ping", "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})
	})

	Describe("GET /", func() {
		It("serves the chat page", func() {
			req, _ := http.NewRequest(http.MethodGet, "/", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/html"))

			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(ContainSubstring("Clear History"))
			Expect(string(body)).To(ContainSubstring("Sources"))
		})
	})

	Describe("POST /v1/chat", func() {
		It("starts a session and answers with sources", func() {
			resp, body := doJSON(server.app, http.MethodPost, "/v1/chat", `{"question":"What is Studio?"}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(body["session_id"]).NotTo(BeEmpty())
			Expect(body["answer"]).To(Equal("answer to What is Studio?"))
			Expect(body["standalone_question"]).To(Equal("What is Studio?"))
			Expect(body["sources"]).To(Equal([]any{map[string]any{
				"title":  "A",
				"source": "./aws_docs/sagemaker/a.html",
				"url":    "https://docs.aws.amazon.com/sagemaker/latest/dg/a.html",
			}}))
		})

		It("continues an existing session", func() {
			_, first := doJSON(server.app, http.MethodPost, "/v1/chat", `{"question":"one"}`)
			id := first["session_id"].(string)

			_, second := doJSON(server.app, http.MethodPost, "/v1/chat", `{"session_id":"`+id+`","question":"two"}`)
			Expect(second["session_id"]).To(Equal(id))

			s, ok := registry.Get(id)
			Expect(ok).To(BeTrue())
			Expect(s.History()).To(HaveLen(4))
		})

		It("returns the apology with no sources when the pipeline fails", func() {
			answerer.err = errors.New("endpoint down")
			resp, body := doJSON(server.app, http.MethodPost, "/v1/chat", `{"question":"q"}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(body["answer"]).To(Equal(chat.Apology))
			Expect(body["sources"]).To(BeEmpty())
			Expect(body).NotTo(HaveKey("standalone_question"))
		})

		It("rejects an empty question", func() {
			resp, body := doJSON(server.app, http.MethodPost, "/v1/chat", `{"question":"  "}`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(body["error"]).To(Equal("question is required"))
		})

		It("rejects malformed bodies", func() {
			resp, _ := doJSON(server.app, http.MethodPost, "/v1/chat", `{"question":`)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("history", func() {
		It("lists and clears a session's turns", func() {
			_, body := doJSON(server.app, http.MethodPost, "/v1/chat", `{"question":"q1"}`)
			id := body["session_id"].(string)

			resp, hist := doJSON(server.app, http.MethodGet, "/v1/chat/"+id+"/history", "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(hist["turns"]).To(Equal([]any{
				map[string]any{"role": "user", "content": "q1"},
				map[string]any{"role": "assistant", "content": "answer to q1"},
			}))

			resp, _ = doJSON(server.app, http.MethodDelete, "/v1/chat/"+id+"/history", "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))

			_, hist = doJSON(server.app, http.MethodGet, "/v1/chat/"+id+"/history", "")
			Expect(hist["turns"]).To(BeEmpty())
		})

		It("returns 404 for an unknown session", func() {
			resp, body := doJSON(server.app, http.MethodGet, "/v1/chat/nope/history", "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
			Expect(body["error"]).To(Equal("session not found"))
		})

		It("accepts clearing an unknown session", func() {
			resp, _ := doJSON(server.app, http.MethodDelete, "/v1/chat/nope/history", "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))
		})
	})

	Describe("GET /v1/search", func() {
		BeforeEach(func() {
			searcher.hits = []index.Hit{{
				Document: corpus.Document{Text: "Lambda text", Metadata: corpus.Metadata{Source: "./aws_docs/lambda/l.html", Title: "L"}},
				Score:    0.7,
			}}
		})

		It("returns results", func() {
			resp, body := doJSON(server.app, http.MethodGet, "/v1/search?query=lambda&top_k=2", "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(body["count"]).To(BeNumerically("==", 1))
			Expect(body["query"]).To(Equal("lambda"))
		})

		It("requires a query", func() {
			resp, body := doJSON(server.app, http.MethodGet, "/v1/search", "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(body["error"]).To(Equal("query parameter is required"))
		})

		DescribeTable("rejects bad top_k values",
			func(v string) {
				resp, _ := doJSON(server.app, http.MethodGet, "/v1/search?query=x&top_k="+v, "")
				Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			},
			Entry("zero", "0"),
			Entry("negative", "-1"),
			Entry("not a number", "abc"),
			Entry("too large", "51"),
		)

		It("returns 500 when the index fails", func() {
			searcher.err = errors.New("store closed")
			resp, _ := doJSON(server.app, http.MethodGet, "/v1/search?query=x", "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
		})

		It("returns 503 without a searcher", func() {
			s, err := NewServer(Config{Registry: registry, Rewriter: chat.NewSourceRewriter(nil)}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			resp, _ := doJSON(s.app, http.MethodGet, "/v1/search?query=x", "")
			Expect(resp.StatusCode).To(Equal(fiber.StatusServiceUnavailable))
		})
	})

	Describe("/mcp", func() {
		It("is mounted when a handler is configured", func() {
			s, err := NewServer(Config{
				Registry:   registry,
				Rewriter:   chat.NewSourceRewriter(nil),
				MCPHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) }),
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())

			req, _ := http.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
			resp, err := s.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusTeapot))
		})

		It("is absent otherwise", func() {
			req, _ := http.NewRequest(http.MethodPost, "/mcp", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})
})
