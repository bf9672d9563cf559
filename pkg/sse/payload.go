// Package sse provides the event framing layer for code-generation streams.
// It splits an append-only text buffer into blank-line delimited event blocks
// and decodes each block into payloads, tolerating the framing quirks of real
// upstreams: CRLF delimiters, comment lines, multiple JSON objects packed into
// one event, and raw unstructured text.
//
// The framer is deliberately forgiving. Malformed input never produces an
// error; payloads that fail structured decoding degrade to text payloads and
// downstream logic decides what to do with them.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// Payload is a single decoded unit of content extracted from an event block.
// It is a tagged variant: exactly one of Structured or Text carries the
// payload. Structured is non-nil when the data decoded as a JSON object;
// otherwise Text holds the verbatim payload text, internal newlines included.
type Payload struct {
	Structured map[string]any
	Text       string
}

// IsStructured reports whether the payload decoded as structured data.
func (p Payload) IsStructured() bool {
	return p.Structured != nil
}
