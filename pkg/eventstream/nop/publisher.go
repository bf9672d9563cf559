package nop

import (
	"context"

	"github.com/reweaveco/reweave/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishArtifact validates input and otherwise does nothing.
func (p *Publisher) PublishArtifact(_ context.Context, event *eventstream.ArtifactCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilArtifactEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
