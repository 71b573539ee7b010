package chatcmder

import (
	"bytes"
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/helpbot/pkg/chat"
	"github.com/papercomputeco/helpbot/pkg/corpus"
	"github.com/papercomputeco/helpbot/pkg/logger"
	"github.com/papercomputeco/helpbot/pkg/rag"
)

type scriptedAnswerer struct {
	err       error
	histories [][]rag.Exchange
}

func (s *scriptedAnswerer) Answer(_ context.Context, history []rag.Exchange, q string) (rag.Result, error) {
	s.histories = append(s.histories, history)
	if s.err != nil {
		return rag.Result{}, s.err
	}
	return rag.Result{
		Answer:   "about " + q,
		Question: q,
		Sources: []corpus.Document{{
			Metadata: corpus.Metadata{Source: "./aws_docs/sagemaker/studio.html", Title: "Studio"},
		}},
	}, nil
}

var _ = Describe("NewChatCmd", func() {
	It("registers the pipeline flags", func() {
		cmd := NewChatCmd()
		for _, name := range []string{"endpoint", "region", "top-k", "max-history", "plain"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	It("rejects arguments", func() {
		cmd := NewChatCmd()
		Expect(cmd.Args(cmd, []string{"x"})).To(HaveOccurred())
	})
})

var _ = Describe("chat loop", func() {
	var (
		answerer *scriptedAnswerer
		session  *chat.Session
		rewriter *chat.SourceRewriter
		out      *bytes.Buffer
	)

	run := func(input string) {
		c := &chatCommander{
			plain:  true,
			in:     strings.NewReader(input),
			out:    out,
			logger: logger.Nop(),
		}
		Expect(c.loop(context.Background(), session, rewriter)).To(Succeed())
	}

	BeforeEach(func() {
		answerer = &scriptedAnswerer{}
		session = chat.NewSession("s", answerer, 10, logger.Nop())
		rewriter = chat.NewSourceRewriter(chat.DefaultRewrites())
		out = &bytes.Buffer{}
	})

	It("answers questions and lists sources", func() {
		run("What is Studio?\n")

		Expect(out.String()).To(ContainSubstring("about What is Studio?"))
		Expect(out.String()).To(ContainSubstring("Studio"))
		Expect(out.String()).To(ContainSubstring("https://docs.aws.amazon.com/sagemaker/latest/dg/studio.html"))
		Expect(session.History()).To(HaveLen(2))
	})

	It("passes earlier turns as history", func() {
		run("first\nsecond\n")

		Expect(answerer.histories).To(HaveLen(2))
		Expect(answerer.histories[0]).To(BeEmpty())
		Expect(answerer.histories[1]).To(Equal([]rag.Exchange{{User: "first", Assistant: "about first"}}))
	})

	It("clears history on /clear", func() {
		run("first\n/clear\nsecond\n")

		Expect(answerer.histories[1]).To(BeEmpty())
		Expect(out.String()).To(ContainSubstring("History cleared"))
	})

	It("stops at /exit", func() {
		run("/exit\nnever asked\n")

		Expect(answerer.histories).To(BeEmpty())
	})

	It("skips blank lines", func() {
		run("\n   \n")

		Expect(answerer.histories).To(BeEmpty())
	})

	It("prints the apology without sources when the pipeline fails", func() {
		answerer.err = errors.New("endpoint down")
		run("q\n")

		Expect(out.String()).To(ContainSubstring(chat.Apology))
		Expect(out.String()).NotTo(ContainSubstring("Sources"))
	})
})
