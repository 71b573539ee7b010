package sagemaker_test

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/helpbot/pkg/llm"
	"github.com/papercomputeco/helpbot/pkg/llm/provider/sagemaker"
	"github.com/papercomputeco/helpbot/pkg/logger"
)

type fakeRuntime struct {
	input *sagemakerruntime.InvokeEndpointInput
	body  string
	err   error
}

func (f *fakeRuntime) InvokeEndpoint(_ context.Context, in *sagemakerruntime.InvokeEndpointInput, _ ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sagemakerruntime.InvokeEndpointOutput{Body: []byte(f.body)}, nil
}

var _ = Describe("Caller", func() {
	var (
		fake   *fakeRuntime
		caller *sagemaker.Caller
	)

	BeforeEach(func() {
		fake = &fakeRuntime{body: `[{"generation":{"role":"assistant","content":"Lambda runs code."}}]`}
		caller = sagemaker.NewWithClient(fake, sagemaker.Config{
			Endpoint:     "llama2-chat",
			SystemPrompt: llm.DefaultSystemPrompt,
			Parameters:   llm.DefaultParameters(),
		}, logger.Nop())
	})

	It("sends the chat payload and returns the generation content", func() {
		out, err := caller.Complete(context.Background(), "What is Lambda?")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Lambda runs code."))

		Expect(aws.ToString(fake.input.EndpointName)).To(Equal("llama2-chat"))
		Expect(aws.ToString(fake.input.ContentType)).To(Equal("application/json"))
		Expect(aws.ToString(fake.input.Accept)).To(Equal("application/json"))
		Expect(aws.ToString(fake.input.CustomAttributes)).To(Equal("accept_eula=true"))

		var sent map[string]any
		Expect(json.Unmarshal(fake.input.Body, &sent)).To(Succeed())
		Expect(sent["inputs"]).To(Equal([]any{[]any{
			map[string]any{"role": "system", "content": llm.DefaultSystemPrompt},
			map[string]any{"role": "user", "content": "What is Lambda?"},
		}}))
		Expect(sent["parameters"]).To(Equal(map[string]any{
			"max_new_tokens": float64(1000),
			"top_p":          0.9,
			"temperature":    0.6,
		}))
	})

	It("wraps invoke failures as unreachable", func() {
		fake.err = errors.New("ValidationError: endpoint not found")
		_, err := caller.Complete(context.Background(), "q")
		Expect(err).To(MatchError(llm.ErrUnreachable))

		var inf *llm.InferenceError
		Expect(errors.As(err, &inf)).To(BeTrue())
		Expect(inf.Provider).To(Equal("sagemaker"))
	})

	DescribeTable("rejects responses of the wrong shape",
		func(body string) {
			fake.body = body
			_, err := caller.Complete(context.Background(), "q")
			Expect(err).To(MatchError(llm.ErrMalformedResponse))
		},
		Entry("not json", `oops`),
		Entry("object instead of list", `{"generation":{"content":"x"}}`),
		Entry("empty list", `[]`),
		Entry("missing generation", `[{}]`),
		Entry("missing content", `[{"generation":{"role":"assistant"}}]`),
	)

	It("accepts an empty generation", func() {
		fake.body = `[{"generation":{"content":""}}]`
		out, err := caller.Complete(context.Background(), "q")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeEmpty())
	})
})

var _ = Describe("New", func() {
	It("requires an endpoint name", func() {
		_, err := sagemaker.New(context.Background(), sagemaker.Config{Region: "us-east-1"}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("endpoint name is required")))
	})
})
