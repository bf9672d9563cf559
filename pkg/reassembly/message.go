// Package reassembly folds a sequence of code-generation stream messages into
// a single reconstructed text. Real upstreams retransmit fragments, re-send
// full snapshots, spell the incremental field three different ways, and emit
// completion signals with or without an authoritative final value; the state
// machine here absorbs all of that and produces the best available code at
// any point in the stream.
//
// Everything is expressed as pure value-in/value-out transitions over plain
// data. The caller owns the single State value and feeds messages strictly in
// arrival order.
package reassembly

import "github.com/reweaveco/reweave/pkg/sse"

// Message kinds understood by the state machine. Anything else is ignored.
const (
	// KindStream and KindContent are the two accepted spellings of an
	// incremental-update message.
	KindStream  = "stream"
	KindContent = "content"

	// KindConversation is a human-readable side channel. It is normally prose
	// and must not pollute the reconstructed code, but some upstream variants
	// mistakenly route code through it.
	KindConversation = "conversation"

	// KindComplete signals that the upstream considers the stream finished.
	KindComplete = "complete"
)

// Message is the logical shape of a structured stream payload: a kind
// discriminator plus kind-specific optional fields. Incremental text arrives
// under Text, Content, or Delta depending on the upstream variant;
// GeneratedCode carries the authoritative final value on completion messages.
type Message struct {
	Kind          string
	Text          string
	Content       string
	Delta         string
	GeneratedCode string
}

// MessageFromPayload extracts a Message from a structured payload. It returns
// false for text payloads and for structured payloads without a kind
// discriminator; such payloads carry no message the state machine can act on.
func MessageFromPayload(p sse.Payload) (Message, bool) {
	if !p.IsStructured() {
		return Message{}, false
	}
	msg := Message{
		Kind:          stringField(p.Structured, "type"),
		Text:          stringField(p.Structured, "text"),
		Content:       stringField(p.Structured, "content"),
		Delta:         stringField(p.Structured, "delta"),
		GeneratedCode: stringField(p.Structured, "generatedCode"),
	}
	if msg.Kind == "" {
		return Message{}, false
	}
	return msg, true
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
