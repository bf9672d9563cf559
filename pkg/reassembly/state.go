package reassembly

import "strings"

// State is the running result of folding a message sequence: the best-effort
// incrementally merged text, and the authoritative final code once a valid
// completion has been accepted. A State with non-nil FinalCode is frozen; no
// further message alters either field.
type State struct {
	StreamedText string
	FinalCode    *string
}

// Initial returns the empty state a stream starts from.
func Initial() State {
	return State{}
}

// Frozen reports whether an authoritative final value has been adopted.
func (s State) Frozen() bool {
	return s.FinalCode != nil
}

// BestText returns the current best reconstructed text: the final code when
// one has been adopted, otherwise the streamed accumulation.
func (s State) BestText() string {
	if s.FinalCode != nil {
		return *s.FinalCode
	}
	return s.StreamedText
}

// Rules carries the configurable pieces of the state machine. Currently that
// is only the code fence used by the looks-like-code test.
type Rules struct {
	Fence Fence
}

// DefaultRules uses the file-boundary fence of the known upstreams.
var DefaultRules = Rules{Fence: FileFence}

// Apply folds one message into the state and returns the successor state.
// A frozen state is returned unchanged regardless of the message; this check
// has absolute precedence.
func (r Rules) Apply(state State, msg Message) State {
	if state.Frozen() {
		return state
	}

	switch msg.Kind {
	case KindComplete:
		if code, ok := r.completionCode(msg); ok {
			state.StreamedText = code
			state.FinalCode = &code
		}
		// No usable payload: fall through unchanged, not frozen. The caller
		// decides via IsFinal whether accumulated text is good enough.
		return state

	case KindStream, KindContent:
		delta := firstNonEmpty(msg.Text, msg.Content, msg.Delta)
		if delta == "" {
			return state
		}
		state.StreamedText = Merge(state.StreamedText, delta)
		state.FinalCode = nil
		return state

	case KindConversation:
		// Prose channel. Merge only when the text is recognizably code,
		// covering upstream variants that misroute code through it.
		if !r.Fence.LooksLikeCode(msg.Text) {
			return state
		}
		state.StreamedText = Merge(state.StreamedText, msg.Text)
		return state

	default:
		return state
	}
}

// completionCode selects the value to adopt from a completion message: the
// authoritative field when it holds a valid code unit, else the generic
// text/content fields for upstream variants that put final output there. The
// alternates are consulted only when the authoritative field is absent or
// empty; an authoritative value that merely fails the code test adopts
// nothing.
func (r Rules) completionCode(msg Message) (string, bool) {
	if strings.TrimSpace(msg.GeneratedCode) != "" {
		if r.Fence.LooksLikeCode(msg.GeneratedCode) {
			return msg.GeneratedCode, true
		}
		return "", false
	}
	for _, alt := range []string{msg.Text, msg.Content} {
		if strings.TrimSpace(alt) != "" && r.Fence.LooksLikeCode(alt) {
			return alt, true
		}
	}
	return "", false
}

// IsFinal answers whether the caller should stop waiting for more events and
// treat next as the final result. True only for a completion message that
// either adopted an authoritative value, or arrived when the accumulated
// stream already constitutes a valid code unit. A premature completion with
// no usable payload is not trusted; the caller keeps listening.
func (r Rules) IsFinal(prev, next State, msg Message) bool {
	if msg.Kind != KindComplete {
		return false
	}
	if next.Frozen() {
		return true
	}
	return next.StreamedText != "" && r.Fence.LooksLikeCode(next.StreamedText)
}

// Apply folds one message into the state using the default rules.
func Apply(state State, msg Message) State {
	return DefaultRules.Apply(state, msg)
}

// IsFinal reports stream completion using the default rules.
func IsFinal(prev, next State, msg Message) bool {
	return DefaultRules.IsFinal(prev, next, msg)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
