// Package artifact turns reassembled generation output into a concrete set
// of files. Generated code arrives as a sequence of <file path="...">
// blocks; this package extracts them, filters paths that must never be
// written, and lays the result on disk.
package artifact

import (
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// fileBlockPattern matches one file block. The closing tag is optional so a
// stream that ended mid-file still yields its last block; Parse decides
// whether to keep it.
var fileBlockPattern = regexp.MustCompile(`(?is)<file\s+path=['"]([^'"]+)['"][^>]*>(.*?)(</file>|$)`)

// blockedFilenames are lockfiles the generator must never overwrite in a
// target project.
var blockedFilenames = map[string]bool{
	"package-lock.json": true,
	"pnpm-lock.yaml":    true,
	"yarn.lock":         true,
}

// File is a single generated file extracted from a code artifact.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Artifact is a completed generation result: the raw reassembled code plus
// the file blocks extracted from it.
type Artifact struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Code      string    `json:"code"`
	Files     []File    `json:"files"`
}

// New builds an Artifact from reassembled code, extracting its file blocks.
func New(code string) *Artifact {
	return &Artifact{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Code:      code,
		Files:     ParseFiles(code),
	}
}

// ParseFiles extracts file blocks from reassembled code. Blocks without a
// closing tag are dropped (the stream was cut mid-file), as are blocks whose
// path normalizes to something unsafe or blocked. Later blocks win over
// earlier ones with the same path, matching the snapshot-replaces-delta
// behavior of the upstream.
func ParseFiles(code string) []File {
	var files []File
	index := map[string]int{}

	for _, m := range fileBlockPattern.FindAllStringSubmatch(code, -1) {
		if m[3] != "</file>" {
			continue
		}
		p, ok := normalizePath(m[1])
		if !ok {
			continue
		}
		f := File{Path: p, Content: strings.TrimSpace(m[2])}
		if i, seen := index[p]; seen {
			files[i] = f
			continue
		}
		index[p] = len(files)
		files = append(files, f)
	}

	return files
}

// normalizePath cleans a generated file path and rejects anything that could
// escape the target directory or clobber a blocked file.
func normalizePath(p string) (string, bool) {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "./")
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))

	if p == "" || p == "." || path.IsAbs(p) || strings.HasPrefix(p, "..") {
		return "", false
	}
	if blockedFilenames[strings.ToLower(path.Base(p))] {
		return "", false
	}
	return p, true
}
