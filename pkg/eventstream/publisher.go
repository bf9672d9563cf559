// Package eventstream publishes artifact lifecycle events to an event stream
// backend.
package eventstream

import "context"

// Publisher publishes artifact events to an event stream backend.
type Publisher interface {
	PublishArtifact(ctx context.Context, event *ArtifactCompletedEvent) error
	Close() error
}
