package reassembly

import "strings"

// Fence is a pair of structural boundary markers used to decide whether a
// text blob is a genuine code unit rather than prose or a thinking blob. The
// exact markers are an upstream convention, so they are configurable rather
// than hard-coded; FileFence matches the file-boundary tags the known
// upstreams emit.
type Fence struct {
	Open  string
	Close string
}

// FileFence matches the <file path="...">...</file> blocks emitted by
// code-generation upstreams.
var FileFence = Fence{Open: "<file", Close: "</file>"}

// LooksLikeCode reports whether s contains both the opening and closing
// marker. The heuristic is deliberately narrow: it exists solely to prevent a
// completion message whose payload is an explanation blob from wiping out
// valid, already-accumulated code.
func (f Fence) LooksLikeCode(s string) bool {
	return strings.Contains(s, f.Open) && strings.Contains(s, f.Close)
}
