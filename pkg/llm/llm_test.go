package llm_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/helpbot/pkg/llm"
)

var _ = Describe("InferenceError", func() {
	It("matches both its kind and its cause", func() {
		cause := errors.New("dial tcp: connection refused")
		err := fmt.Errorf("generating answer: %w", llm.Unreachable("sagemaker", cause))

		Expect(errors.Is(err, llm.ErrUnreachable)).To(BeTrue())
		Expect(errors.Is(err, cause)).To(BeTrue())
		Expect(errors.Is(err, llm.ErrMalformedResponse)).To(BeFalse())

		var inf *llm.InferenceError
		Expect(errors.As(err, &inf)).To(BeTrue())
		Expect(inf.Kind).To(Equal(llm.ErrUnreachable))
		Expect(inf.Provider).To(Equal("sagemaker"))
	})

	It("formats without a cause", func() {
		err := &llm.InferenceError{Kind: llm.ErrMalformedResponse, Provider: "ollama"}
		Expect(err.Error()).To(Equal("ollama: malformed inference response"))
		Expect(errors.Is(err, llm.ErrMalformedResponse)).To(BeTrue())
	})
})

var _ = Describe("NewChatRequest", func() {
	It("puts the system prompt before the user prompt", func() {
		req := llm.NewChatRequest("m", "be nice", "hi", llm.DefaultParameters())
		Expect(req.Messages).To(Equal([]llm.Message{
			{Role: llm.RoleSystem, Content: "be nice"},
			{Role: llm.RoleUser, Content: "hi"},
		}))
		Expect(req.Parameters).To(Equal(llm.Parameters{MaxNewTokens: 1000, TopP: 0.9, Temperature: 0.6}))
	})

	It("omits an empty system prompt", func() {
		req := llm.NewChatRequest("m", "", "hi", llm.Parameters{})
		Expect(req.Messages).To(HaveLen(1))
		Expect(req.Messages[0].Role).To(Equal(llm.RoleUser))
	})
})

var _ = Describe("CallFunc", func() {
	It("adapts a function to Caller", func() {
		var c llm.Caller = llm.CallFunc(func(_ context.Context, prompt string) (string, error) {
			return "echo: " + prompt, nil
		})
		out, err := c.Complete(context.Background(), "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("echo: x"))
	})
})
