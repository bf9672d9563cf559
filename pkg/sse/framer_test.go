package sse_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reweaveco/reweave/pkg/sse"
)

var _ = Describe("Split", func() {
	It("splits blank-line delimited events", func() {
		events, rest := sse.Split("data: first\n\ndata: second\n\n")
		Expect(events).To(Equal([]string{"data: first", "data: second"}))
		Expect(rest).To(BeEmpty())
	})

	It("returns the trailing segment as remainder", func() {
		events, rest := sse.Split("data: first\n\ndata: sec")
		Expect(events).To(Equal([]string{"data: first"}))
		Expect(rest).To(Equal("data: sec"))
	})

	It("never treats the last segment as an event, even when empty", func() {
		events, rest := sse.Split("data: only")
		Expect(events).To(BeEmpty())
		Expect(rest).To(Equal("data: only"))
	})

	It("accepts CRLF delimiters", func() {
		events, rest := sse.Split("data: a\r\n\r\ndata: b\r\n\r\n")
		Expect(events).To(Equal([]string{"data: a", "data: b"}))
		Expect(rest).To(BeEmpty())
	})

	It("accepts mixed LF and CRLF delimiters in one buffer", func() {
		events, rest := sse.Split("data: a\r\n\r\ndata: b\n\ndata: c")
		Expect(events).To(Equal([]string{"data: a", "data: b"}))
		Expect(rest).To(Equal("data: c"))
	})

	It("handles an empty buffer", func() {
		events, rest := sse.Split("")
		Expect(events).To(BeEmpty())
		Expect(rest).To(BeEmpty())
	})

	It("yields empty event blocks for consecutive delimiters", func() {
		events, rest := sse.Split("\n\n\n\n")
		Expect(events).To(Equal([]string{"", ""}))
		Expect(rest).To(BeEmpty())
	})
})

var _ = Describe("Parse", func() {
	Context("with a single JSON object", func() {
		It("returns one structured payload", func() {
			payloads := sse.Parse(`data: {"type":"stream","text":"hello"}`)
			Expect(payloads).To(HaveLen(1))
			Expect(payloads[0].IsStructured()).To(BeTrue())
			Expect(payloads[0].Structured["type"]).To(Equal("stream"))
			Expect(payloads[0].Structured["text"]).To(Equal("hello"))
		})

		It("joins multiple data lines before decoding", func() {
			block := "data: {\"type\":\"stream\",\ndata: \"text\":\"hi\"}"
			payloads := sse.Parse(block)
			Expect(payloads).To(HaveLen(1))
			Expect(payloads[0].IsStructured()).To(BeTrue())
			Expect(payloads[0].Structured["text"]).To(Equal("hi"))
		})

		It("strips the data prefix with no space after the colon", func() {
			payloads := sse.Parse(`data:{"type":"complete"}`)
			Expect(payloads).To(HaveLen(1))
			Expect(payloads[0].Structured["type"]).To(Equal("complete"))
		})

		It("strips at most one space after the colon", func() {
			payloads := sse.Parse("data:  indented")
			Expect(payloads).To(HaveLen(1))
			Expect(payloads[0].Text).To(Equal(" indented"))
		})
	})

	Context("with comments and metadata lines", func() {
		It("discards comment lines", func() {
			payloads := sse.Parse(": keep-alive\ndata: {\"type\":\"stream\"}")
			Expect(payloads).To(HaveLen(1))
			Expect(payloads[0].IsStructured()).To(BeTrue())
		})

		It("discards event labels and unknown fields", func() {
			block := "event: message\nid: 42\nretry: 3000\ndata: {\"type\":\"stream\"}"
			payloads := sse.Parse(block)
			Expect(payloads).To(HaveLen(1))
			Expect(payloads[0].IsStructured()).To(BeTrue())
		})

		It("returns nothing when no payload lines remain", func() {
			Expect(sse.Parse(": comment only\nevent: ping")).To(BeEmpty())
			Expect(sse.Parse("")).To(BeEmpty())
		})
	})

	Context("with several independent JSON objects in one block", func() {
		It("decodes each line separately", func() {
			block := "data: {\"type\":\"stream\",\"text\":\"a\"}\ndata: {\"type\":\"stream\",\"text\":\"b\"}"
			payloads := sse.Parse(block)
			Expect(payloads).To(HaveLen(2))
			Expect(payloads[0].Structured["text"]).To(Equal("a"))
			Expect(payloads[1].Structured["text"]).To(Equal("b"))
		})

		It("mixes structured and text payloads when only some lines decode", func() {
			block := "data: {\"type\":\"stream\",\"text\":\"a\"}\ndata: [DONE]"
			payloads := sse.Parse(block)
			Expect(payloads).To(HaveLen(2))
			Expect(payloads[0].IsStructured()).To(BeTrue())
			Expect(payloads[1].IsStructured()).To(BeFalse())
			Expect(payloads[1].Text).To(Equal("[DONE]"))
		})
	})

	Context("with raw unstructured text", func() {
		It("returns a single text payload preserving newlines", func() {
			block := "data: const x = 1;\ndata: const y = 2;"
			payloads := sse.Parse(block)
			Expect(payloads).To(HaveLen(1))
			Expect(payloads[0].IsStructured()).To(BeFalse())
			Expect(payloads[0].Text).To(Equal("const x = 1;\nconst y = 2;"))
		})

		It("rejects JSON arrays as structured data", func() {
			payloads := sse.Parse(`data: [1,2,3]`)
			Expect(payloads).To(HaveLen(1))
			Expect(payloads[0].IsStructured()).To(BeFalse())
		})
	})
})
