package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write lays the artifact's files under dir, creating parent directories as
// needed. Paths have already been normalized by ParseFiles, so a simple join
// is safe.
func (a *Artifact) Write(dir string) error {
	for _, f := range a.Files {
		target := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(target, []byte(f.Content+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", f.Path, err)
		}
	}
	return nil
}
