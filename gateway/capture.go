package gateway

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// captureExt is the extension for recorded SSE transcripts. Capture files
// hold the exact upstream byte stream, so replaying one through the framer
// reproduces the original artifact.
const captureExt = ".sse"

// newCaptureFile creates a uniquely named transcript file under dir.
// An empty dir disables capture and returns a nil file.
func newCaptureFile(dir string) (*os.File, string, error) {
	if dir == "" {
		return nil, "", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating capture directory %s: %w", dir, err)
	}

	name := fmt.Sprintf("%s-%s%s", time.Now().UTC().Format("20060102T150405Z"), uuid.NewString(), captureExt)
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("creating capture file %s: %w", path, err)
	}

	return f, path, nil
}
