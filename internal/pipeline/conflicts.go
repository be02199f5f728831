package pipeline

import (
	"fmt"
	"strings"
)

// ResolveConflicts rewrites duplicate target names so every record carries
// a unique NewName before any transfer starts. It runs as a second pass
// over the already-sequenced output — interleaving it with sequencing would
// corrupt auto width calculations, which depend on pre-collision names.
//
// The Nth occurrence of a name (N >= 2) gets "__dup{N-1}" inserted before
// the final extension segment. The rewritten name is registered as seen, so
// a later collision against it is itself deduplicated.
func ResolveConflicts(records []FileRecord) []FileRecord {
	seen := make(map[string]int, len(records))

	for i := range records {
		name := records[i].NewName
		seen[name]++

		if seen[name] > 1 {
			renamed := dupName(name, seen[name]-1)
			records[i].NewName = renamed
			seen[renamed] = 1
		}
	}

	return records
}

// dupName inserts the __dup suffix before the last extension segment, or
// appends it when the name has no dot.
func dupName(name string, n int) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return fmt.Sprintf("%s__dup%d.%s", name[:idx], n, name[idx+1:])
	}

	return fmt.Sprintf("%s__dup%d", name, n)
}
