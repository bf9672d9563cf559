package sse

import (
	"encoding/json"
	"strings"
)

const dataPrefix = "data:"

// Split divides an append-only text buffer into complete event blocks and an
// unconsumed remainder. Blocks are delimited by a blank line, either "\n\n"
// or "\r\n\r\n". The last segment is never treated as a complete event, even
// when it is empty: the caller prepends it to the next chunk so that a chunk
// boundary falling inside an event cannot corrupt framing.
func Split(buffer string) (events []string, remainder string) {
	rest := buffer
	for {
		idx, size := nextDelimiter(rest)
		if idx < 0 {
			return events, rest
		}
		events = append(events, rest[:idx])
		rest = rest[idx+size:]
	}
}

// nextDelimiter locates the earliest blank-line delimiter in s, returning its
// offset and byte length. Returns -1 when no delimiter is present.
func nextDelimiter(s string) (idx, size int) {
	lf := strings.Index(s, "\n\n")
	crlf := strings.Index(s, "\r\n\r\n")
	switch {
	case lf == -1 && crlf == -1:
		return -1, 0
	case crlf == -1:
		return lf, 2
	case lf == -1 || crlf < lf:
		return crlf, 4
	default:
		return lf, 2
	}
}

// Parse decodes one event block into zero or more payloads.
//
// Blank lines and ":"-prefixed comment lines are discarded, as are metadata
// lines such as "event:" labels; only "data:"-prefixed lines carry payload.
// The prefix and at most one following space are stripped per the SSE spec.
//
// All payload lines are joined with "\n" and decoded as a whole first. This
// is the common case: one JSON object per event, possibly spread over several
// data lines. When the joined decode fails, each line is decoded
// independently, which recovers upstreams that pack several back-to-back JSON
// objects into a single event. Lines that decode become structured payloads;
// lines that do not become text payloads. If nothing decodes at all, the
// whole joined text is returned as a single text payload, preserving
// newlines, which covers upstreams that stream raw code with no structure.
func Parse(block string) []Payload {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		value, ok := payloadValue(line)
		if !ok {
			continue
		}
		lines = append(lines, value)
	}

	if len(lines) == 0 {
		return nil
	}

	joined := strings.Join(lines, "\n")
	if obj, ok := decodeObject(joined); ok {
		return []Payload{{Structured: obj}}
	}

	payloads := make([]Payload, 0, len(lines))
	anyStructured := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if obj, ok := decodeObject(trimmed); ok {
			payloads = append(payloads, Payload{Structured: obj})
			anyStructured = true
			continue
		}
		payloads = append(payloads, Payload{Text: trimmed})
	}

	if anyStructured {
		return payloads
	}

	return []Payload{{Text: joined}}
}

// payloadValue extracts the value from a "data:"-prefixed line, stripping the
// prefix and at most one following space. Lines carrying any other field name
// ("event:", "id:", "retry:", unknown fields) are not payload.
func payloadValue(line string) (string, bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	value := line[len(dataPrefix):]
	value = strings.TrimPrefix(value, " ")
	return value, true
}

// decodeObject attempts a strict JSON object decode. Arrays, scalars, and
// sentinels like "[DONE]" are rejected so they surface as text payloads.
func decodeObject(s string) (map[string]any, bool) {
	if !strings.HasPrefix(strings.TrimSpace(s), "{") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}
