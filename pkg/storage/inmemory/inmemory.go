// Package inmemory provides a map-backed storage driver for tests and for
// running the gateway without a database.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/reweaveco/reweave/pkg/artifact"
	"github.com/reweaveco/reweave/pkg/storage"
)

// Driver implements storage.Driver over an in-process map.
type Driver struct {
	mu        sync.RWMutex
	artifacts map[string]*artifact.Artifact
}

// NewDriver creates an empty in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		artifacts: make(map[string]*artifact.Artifact),
	}
}

// Put stores an artifact, ignoring duplicates by ID.
func (d *Driver) Put(_ context.Context, a *artifact.Artifact) (bool, error) {
	if a == nil {
		return false, fmt.Errorf("cannot store nil artifact")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.artifacts[a.ID]; exists {
		return false, nil
	}
	d.artifacts[a.ID] = a
	return true, nil
}

// Get retrieves an artifact by ID.
func (d *Driver) Get(_ context.Context, id string) (*artifact.Artifact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	a, ok := d.artifacts[id]
	if !ok {
		return nil, storage.ErrNotFound{ID: id}
	}
	return a, nil
}

// List returns all artifacts, newest first.
func (d *Driver) List(_ context.Context) ([]*artifact.Artifact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	all := make([]*artifact.Artifact, 0, len(d.artifacts))
	for _, a := range d.artifacts {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}
