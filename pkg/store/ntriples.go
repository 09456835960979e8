package store

import (
	"sort"
	"strings"
)

// SerializeNTriples writes one statement per line, sorted, with no prefixes.
func SerializeNTriples(store *TripleStore) string {
	triples := store.All()
	lines := make([]string, len(triples))
	for index, triple := range triples {
		lines[index] = triple.NTriples()
	}
	sort.Strings(lines)

	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
