package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Truncate", func() {
	It("returns the string unchanged when within the limit", func() {
		Expect(Truncate("short", 10)).To(Equal("short"))
	})

	It("returns the string unchanged when exactly at the limit", func() {
		Expect(Truncate("12345", 5)).To(Equal("12345"))
	})

	It("truncates with ellipsis when over the limit", func() {
		Expect(Truncate("this is a long string", 10)).To(Equal("this is a ..."))
	})

	It("does not split multi-byte runes", func() {
		Expect(Truncate("sorry 😔 again", 7)).To(Equal("sorry 😔..."))
	})
})

var _ = Describe("OneLine", func() {
	It("collapses newlines and repeated spaces", func() {
		Expect(OneLine("  AWS Lambda\n\n  runs   code \t")).To(Equal("AWS Lambda runs code"))
	})
})
