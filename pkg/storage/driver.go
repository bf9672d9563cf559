// Package storage defines the driver interface for persisting completed
// generation artifacts.
package storage

import (
	"context"

	"github.com/reweaveco/reweave/pkg/artifact"
)

// Driver is the interface for persisting and retrieving artifacts in a
// storage backend.
type Driver interface {
	// Put stores an artifact. Returns true if the artifact was newly
	// inserted, false if an artifact with the same ID already exists, in
	// which case the call is a no-op.
	Put(ctx context.Context, a *artifact.Artifact) (bool, error)

	// Get retrieves an artifact by its ID.
	Get(ctx context.Context, id string) (*artifact.Artifact, error)

	// List returns all stored artifacts, newest first.
	List(ctx context.Context) ([]*artifact.Artifact, error)

	// Close closes the store and releases any resources.
	Close() error
}
