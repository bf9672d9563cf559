// Package dotdir manages the .reweave/ and ~/.reweave directories.
//
// The directory holds the config.toml file, captured stream transcripts,
// and the default sqlite database. Resolution prefers a project-local
// .reweave/ directory so captures stay next to the project they came from.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the reweave directory.
	dirName = ".reweave"

	// capturesDirName is the subdirectory holding captured transcripts.
	capturesDirName = "captures"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .reweave/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.reweave/ dir
//  3. Home ~/.reweave/ dir
//  4. If none found, attempt to create ~/.reweave/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating reweave directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// CapturesDir resolves the captures/ subdirectory under the target
// .reweave/ directory, creating it if necessary.
func (m *Manager) CapturesDir(overrideDir string) (string, error) {
	target, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(target, capturesDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating captures directory %s: %w", dir, err)
	}

	return dir, nil
}

// localDirExists checks whether a .reweave/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
