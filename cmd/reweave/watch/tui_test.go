package watchcmder

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reweaveco/reweave/pkg/reassembly"
)

var _ = Describe("Watch tailer", func() {
	var t *tailer

	BeforeEach(func() {
		t = newTailer(reassembly.DefaultRules)
	})

	It("folds complete event blocks into state", func() {
		t.consume("data: {\"type\":\"stream\",\"text\":\"const a\"}\n\n")
		t.consume("data: {\"type\":\"stream\",\"text\":\" = 1;\"}\n\n")

		Expect(t.events).To(Equal(2))
		Expect(t.state.BestText()).To(Equal("const a = 1;"))
		Expect(t.finalized).To(BeFalse())
	})

	It("carries a partial event block across chunk boundaries", func() {
		t.consume("data: {\"type\":\"stream\",")
		Expect(t.events).To(Equal(0))

		t.consume("\"text\":\"hello\"}\n\n")
		Expect(t.events).To(Equal(1))
		Expect(t.state.BestText()).To(Equal("hello"))
	})

	It("finalizes on a completion event", func() {
		code := "<file path=\"src/App.jsx\">export default function App() {}</file>"
		t.consume("data: {\"type\":\"stream\",\"text\":\"partial\"}\n\n")
		t.consume("data: {\"type\":\"complete\",\"generatedCode\":\"" +
			"<file path=\\\"src/App.jsx\\\">export default function App() {}</file>\"}\n\n")

		Expect(t.finalized).To(BeTrue())
		Expect(t.state.BestText()).To(Equal(code))
	})

	It("ignores conversation chatter and keep-alive comments", func() {
		t.consume(": keep-alive\n\n")
		t.consume("data: {\"type\":\"conversation\",\"text\":\"Sure, making that change now!\"}\n\n")

		Expect(t.state.BestText()).To(Equal(""))
		Expect(t.finalized).To(BeFalse())
	})

	It("counts raw bytes as they arrive", func() {
		chunk := "data: {\"type\":\"stream\",\"text\":\"x\"}\n\n"
		t.consume(chunk)
		t.consume(chunk[:10])

		Expect(t.bytes).To(Equal(len(chunk) + 10))
	})
})

var _ = Describe("Watch rules", func() {
	It("falls back to the default fence when both fence values are empty", func() {
		cmder := &watchCommander{}
		Expect(cmder.rules()).To(Equal(reassembly.DefaultRules))
	})

	It("keeps an explicitly configured fence", func() {
		cmder := &watchCommander{fenceOpen: "<artifact", fenceClose: "</artifact>"}
		Expect(cmder.rules().Fence).To(Equal(reassembly.Fence{Open: "<artifact", Close: "</artifact>"}))
	})
})
