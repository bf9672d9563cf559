package reassembly_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reweaveco/reweave/pkg/reassembly"
)

var _ = Describe("Merge", func() {
	It("returns prev unchanged for an empty delta", func() {
		Expect(reassembly.Merge("ABC", "")).To(Equal("ABC"))
	})

	It("returns the delta when prev is empty", func() {
		Expect(reassembly.Merge("", "ABC")).To(Equal("ABC"))
	})

	It("replaces prev with a snapshot delta", func() {
		Expect(reassembly.Merge("ABC", "ABCDEF")).To(Equal("ABCDEF"))
	})

	It("replaces prev with an identical snapshot", func() {
		Expect(reassembly.Merge("ABC", "ABC")).To(Equal("ABC"))
	})

	It("ignores a duplicate of the tail", func() {
		Expect(reassembly.Merge("ABCDE", "CDE")).To(Equal("ABCDE"))
	})

	It("is idempotent for any suffix of prev", func() {
		prev := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"
		for k := 1; k <= len(prev); k++ {
			Expect(reassembly.Merge(prev, prev[len(prev)-k:])).To(Equal(prev))
		}
	})

	It("ignores a large retransmitted middle fragment", func() {
		middle := strings.Repeat("x", 80)
		prev := "HEAD" + middle + "TAIL"
		Expect(reassembly.Merge(prev, middle)).To(Equal(prev))
	})

	It("does not treat a short interior repeat as a retransmission", func() {
		// "CD" occurs inside prev but is below the large-delta threshold,
		// and it shares no suffix/prefix overlap with "ABCDAB", so it is
		// appended rather than dropped.
		Expect(reassembly.Merge("ABCDAB", "CD")).To(Equal("ABCDABCD"))
	})

	It("removes a suffix/prefix overlap before appending", func() {
		Expect(reassembly.Merge("ABCDE", "CDEFG")).To(Equal("ABCDEFG"))
	})

	It("prefers the longest overlap over shorter accidental ones", func() {
		// Both "ABAB" (len 4) and "AB" (len 2) are valid overlaps; the
		// longest must win or two characters would be duplicated.
		Expect(reassembly.Merge("xxABAB", "ABAByy")).To(Equal("xxABAByy"))
	})

	It("appends plainly when no overlap exists", func() {
		Expect(reassembly.Merge("ABC", "DEF")).To(Equal("ABCDEF"))
	})

	It("merges overlapping code fragments byte-accurately", func() {
		prev := "<file path=\"src/App.jsx\">import React from 'react';\nexport default function App"
		delta := "function App() {\n  return <div />;\n}"
		Expect(reassembly.Merge(prev, delta)).To(Equal(
			"<file path=\"src/App.jsx\">import React from 'react';\nexport default function App() {\n  return <div />;\n}",
		))
	})

	It("bounds overlap scanning for very large inputs", func() {
		prev := strings.Repeat("a", 10_000)
		delta := strings.Repeat("a", 5_000) + "b"
		// The scan window caps candidate overlaps at 4096, so the merged
		// result keeps prev and appends the non-overlapping tail found at
		// the longest in-window overlap.
		merged := reassembly.Merge(prev, delta)
		Expect(strings.HasPrefix(merged, prev)).To(BeTrue())
		Expect(strings.HasSuffix(merged, "b")).To(BeTrue())
	})
})
