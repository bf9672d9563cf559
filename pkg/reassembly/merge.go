package reassembly

import "strings"

const (
	// largeDeltaLen is the threshold above which a delta found anywhere
	// inside prev is treated as a retransmitted middle fragment. Short deltas
	// are excluded: a few characters recurring inside a large transcript is
	// almost always coincidence, not retransmission.
	largeDeltaLen = 64

	// maxOverlapScan bounds the suffix/prefix overlap search so a single
	// merge call costs O(window²) in the worst case, independent of total
	// transcript length.
	maxOverlapScan = 4096
)

// Merge folds an incoming delta into previously accumulated text without
// double-appending overlapping or duplicate fragments. The rules are checked
// in priority order and the first that applies wins:
//
//  1. empty delta: prev unchanged
//  2. empty prev: delta
//  3. delta starts with prev: delta is a full snapshot, replaces prev
//  4. prev ends with delta: pure duplicate of the tail, prev unchanged
//  5. a large delta already present anywhere inside prev: retransmitted
//     middle fragment, prev unchanged
//  6. longest suffix of prev equal to a prefix of delta: append only the
//     non-overlapping tail
//  7. no overlap at all: plain concatenation
//
// Rule 6 scans overlap lengths from the maximum candidate downward and stops
// at the first match, so the longest valid overlap always wins; scanning
// upward would let short accidental matches truncate real content.
func Merge(prev, delta string) string {
	if delta == "" {
		return prev
	}
	if prev == "" {
		return delta
	}
	if strings.HasPrefix(delta, prev) {
		return delta
	}
	if strings.HasSuffix(prev, delta) {
		return prev
	}
	if len(delta) >= largeDeltaLen && strings.Contains(prev, delta) {
		return prev
	}

	limit := min(len(prev), len(delta), maxOverlapScan)
	for k := limit; k >= 1; k-- {
		if strings.HasSuffix(prev, delta[:k]) {
			return prev + delta[k:]
		}
	}

	return prev + delta
}
