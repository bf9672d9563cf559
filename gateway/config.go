package gateway

import (
	"github.com/reweaveco/reweave/pkg/eventstream"
	"github.com/reweaveco/reweave/pkg/reassembly"
)

// Config is the gateway server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// UpstreamURL is the upstream code-generation backend URL
	// (e.g., "http://localhost:3001")
	UpstreamURL string

	// Project is the default project tag carried into artifact completion
	// events. Requests may override it per-stream via the project header.
	Project string

	// CaptureDir is the directory where raw SSE transcripts are recorded.
	// Empty disables capture.
	CaptureDir string

	// Rules configures the reassembly engine, in particular the fence pair
	// used to recognize generated code. The zero value falls back to
	// reassembly.DefaultRules.
	Rules reassembly.Rules

	// Publisher emits artifact completion events. Nil falls back to the
	// no-op publisher.
	Publisher eventstream.Publisher
}
