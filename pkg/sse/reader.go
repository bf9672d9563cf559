package sse

import (
	"io"
)

// readBufSize is the per-read scratch size. Chunks from the transport can be
// split at arbitrary byte boundaries; Split's remainder carry-over makes the
// read size irrelevant to correctness.
const readBufSize = 32 * 1024

// TeeReader decodes payloads from a source SSE stream while writing all raw
// bytes verbatim to a destination writer. The destination typically backs an
// io.Pipe connected to the downstream HTTP response, so clients receive the
// exact upstream byte stream while the caller consumes parsed payloads.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌───────────────────────┐
// │ TeeReader.Next() │──▶│ destination io.Writer │
// └──────────────────┘   └───────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │     Payload      │
// └──────────────────┘
type TeeReader struct {
	src  io.Reader
	dest io.Writer
	buf  []byte

	// pending holds the unconsumed remainder from Split, carried across reads.
	pending string
	queue   []Payload
	eof     bool
}

// NewTeeReader returns a TeeReader that decodes payloads from src and writes
// all raw bytes through to dest. A nil dest disables teeing.
func NewTeeReader(src io.Reader, dest io.Writer) *TeeReader {
	return &TeeReader{
		src:  src,
		dest: dest,
		buf:  make([]byte, readBufSize),
	}
}

// Next returns the next decoded payload, reading from the source as needed.
// It returns nil, nil once the source is exhausted. If the source ends
// mid-event (no trailing blank line), the remainder is parsed as a final
// event so its payload is not lost.
func (r *TeeReader) Next() (*Payload, error) {
	for {
		if len(r.queue) > 0 {
			p := r.queue[0]
			r.queue = r.queue[1:]
			return &p, nil
		}

		if r.eof {
			return nil, nil
		}

		n, err := r.src.Read(r.buf)
		if n > 0 {
			if r.dest != nil {
				if _, werr := r.dest.Write(r.buf[:n]); werr != nil {
					return nil, werr
				}
			}
			r.pending += string(r.buf[:n])
			events, rest := Split(r.pending)
			r.pending = rest
			for _, ev := range events {
				r.queue = append(r.queue, Parse(ev)...)
			}
		}

		if err == io.EOF {
			r.eof = true
			r.queue = append(r.queue, Parse(r.pending)...)
			r.pending = ""
			continue
		}
		if err != nil {
			return nil, err
		}
	}
}
