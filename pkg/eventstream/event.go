package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/reweaveco/reweave/pkg/artifact"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeArtifactCompleted is emitted after a generation stream
	// finalizes and its artifact is persisted.
	EventTypeArtifactCompleted = "reweave.artifact.completed"
)

// ArtifactCompletedEvent is a transport-neutral event payload for a completed
// generation.
type ArtifactCompletedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Stream        StreamMeta  `json:"stream"`
	ArtifactID    string      `json:"artifact_id"`
	FileCount     int         `json:"file_count"`
	CodeBytes     int         `json:"code_bytes"`
}

// EventSource identifies where the generation originated.
type EventSource struct {
	Upstream string `json:"upstream"`
	Project  string `json:"project,omitempty"`
}

// StreamMeta captures stream lifecycle metadata for the event.
type StreamMeta struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	Messages    int       `json:"messages"`
	Frozen      bool      `json:"frozen"`
}

// NewArtifactCompleted builds the event payload for a persisted artifact.
func NewArtifactCompleted(a *artifact.Artifact, source EventSource, stream StreamMeta) *ArtifactCompletedEvent {
	return &ArtifactCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeArtifactCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Stream:        stream,
		ArtifactID:    a.ID,
		FileCount:     len(a.Files),
		CodeBytes:     len(a.Code),
	}
}
