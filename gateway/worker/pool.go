// Package worker provides an asynchronous worker pool for persisting
// completed artifacts using the provided storage.Driver and publishing
// completion events through the provided eventstream.Publisher.
//
// The pool decouples storage operations from the gateway's HTTP hot path so
// that the client-gateway-upstream interaction stays fully transparent.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/reweaveco/reweave/pkg/artifact"
	"github.com/reweaveco/reweave/pkg/eventstream"
	"github.com/reweaveco/reweave/pkg/eventstream/nop"
	"github.com/reweaveco/reweave/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Artifact *artifact.Artifact
	Source   eventstream.EventSource
	Stream   eventstream.StreamMeta
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting artifacts.
	Driver storage.Driver

	// Publisher emits artifact completion events. Defaults to a no-op
	// publisher when nil.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool processes artifact persistence jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger

	// mu guards closed so Enqueue never sends on a closed queue.
	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.Publisher == nil {
		c.Publisher = nop.NewPublisher()
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the job was dropped because the queue is
// full or the pool has been closed.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Error("job not queued, pool closed, job dropped",
			zap.String("artifact_id", job.Artifact.ID),
		)
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			zap.String("artifact_id", job.Artifact.ID),
			zap.Int("file_count", len(job.Artifact.Files)),
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			zap.String("artifact_id", job.Artifact.ID),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the gateway HTTP server has stopped.
// Close is idempotent; jobs enqueued after Close are dropped.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("storage worker stopped", zap.Uint("worker_id", id))
}

// processJob persists the artifact and publishes its completion event.
// Publish failures are logged but do not roll back the stored artifact.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	inserted, err := p.config.Driver.Put(ctx, job.Artifact)
	if err != nil {
		p.logger.Error("async artifact storage failed",
			zap.String("artifact_id", job.Artifact.ID),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("artifact stored",
		zap.String("artifact_id", job.Artifact.ID),
		zap.Int("file_count", len(job.Artifact.Files)),
		zap.Int("code_bytes", len(job.Artifact.Code)),
		zap.Bool("inserted", inserted),
	)

	if !inserted {
		// Duplicate artifact; the completion event was already published.
		return
	}

	event := eventstream.NewArtifactCompleted(job.Artifact, job.Source, job.Stream)
	if err := p.config.Publisher.PublishArtifact(ctx, event); err != nil {
		p.logger.Warn("failed to publish artifact completion event",
			zap.String("artifact_id", job.Artifact.ID),
			zap.Error(err),
		)
		return
	}

	p.logger.Debug("artifact completion event published",
		zap.String("artifact_id", job.Artifact.ID),
		zap.String("event_id", event.EventID),
	)
}
