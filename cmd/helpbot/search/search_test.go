package searchcmder

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apisearch "github.com/papercomputeco/helpbot/api/search"
)

var _ = Describe("NewSearchCmd", func() {
	It("requires exactly one query", func() {
		cmd := NewSearchCmd()
		Expect(cmd.Args(cmd, []string{})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"a", "b"})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"a"})).To(Succeed())
	})

	It("defaults --top to the search default", func() {
		cmd := NewSearchCmd()
		Expect(cmd.Flags().Lookup("top").DefValue).To(Equal("5"))
	})
})

var _ = Describe("printing", func() {
	var (
		out    *bytes.Buffer
		output *apisearch.SearchOutput
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		output = &apisearch.SearchOutput{
			Query: "studio",
			Results: []apisearch.SearchResult{{
				Title:   "Studio",
				Source:  "./aws_docs/sagemaker/studio.html",
				URL:     "https://docs.aws.amazon.com/sagemaker/latest/dg/studio.html",
				Score:   0.25,
				Preview: "Amazon SageMaker Studio is an IDE.",
			}},
			Count: 1,
		}
	})

	It("prints ranked results", func() {
		c := &searchCommander{out: out}
		Expect(c.print(output)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("#1"))
		Expect(out.String()).To(ContainSubstring("score: 0.2500"))
		Expect(out.String()).To(ContainSubstring("Amazon SageMaker Studio is an IDE."))
	})

	It("prints only URLs with --quiet", func() {
		c := &searchCommander{out: out, quiet: true}
		Expect(c.print(output)).To(Succeed())
		Expect(out.String()).To(Equal("https://docs.aws.amazon.com/sagemaker/latest/dg/studio.html\n"))
	})

	It("prints JSON with --json", func() {
		c := &searchCommander{out: out, jsonOut: true}
		Expect(c.print(output)).To(Succeed())

		var decoded apisearch.SearchOutput
		Expect(json.Unmarshal(out.Bytes(), &decoded)).To(Succeed())
		Expect(decoded).To(Equal(*output))
	})

	It("reports no results", func() {
		c := &searchCommander{out: out}
		Expect(c.print(&apisearch.SearchOutput{Query: "x", Results: []apisearch.SearchResult{}})).To(Succeed())
		Expect(out.String()).To(Equal("No results found.\n"))
	})
})
