package store

import (
	"fmt"
	"sort"
	"sync"
)

// TripleStore is the in-memory graph a taxonomy run writes into. Adding the
// same triple twice is a no-op, which keeps node emission idempotent.
// It provides lookups via three indexes:
//   - SPO: Subject -> Predicate -> Object (find facts about a subject)
//   - POS: Predicate -> Object -> Subject (find subjects with property=value)
//   - OSP: Object -> Subject -> Predicate (find subjects pointing to object)
type TripleStore struct {
	mu sync.RWMutex

	// SPO index: Subject -> Predicate -> Object -> exists
	spo map[string]map[string]map[string]bool

	// POS index: Predicate -> Object -> Subject -> exists
	pos map[string]map[string]map[string]bool

	// OSP index: Object -> Subject -> Predicate -> exists
	osp map[string]map[string]map[string]bool

	// Triple count
	count int
}

// NewTripleStore creates a new in-memory triple store with all indexes initialized.
func NewTripleStore() *TripleStore {
	return &TripleStore{
		spo:   make(map[string]map[string]map[string]bool),
		pos:   make(map[string]map[string]map[string]bool),
		osp:   make(map[string]map[string]map[string]bool),
		count: 0,
	}
}

// Add inserts a triple into the store. Returns nil if successful or if the
// triple already exists (idempotent operation).
func (ts *TripleStore) Add(subject, predicate, object string) error {
	if subject == "" || predicate == "" || object == "" {
		return fmt.Errorf("triple components cannot be empty")
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	// Check if triple already exists
	if ts.existsUnsafe(subject, predicate, object) {
		return nil // Already exists, idempotent
	}

	// Add to SPO index
	if ts.spo[subject] == nil {
		ts.spo[subject] = make(map[string]map[string]bool)
	}
	if ts.spo[subject][predicate] == nil {
		ts.spo[subject][predicate] = make(map[string]bool)
	}
	ts.spo[subject][predicate][object] = true

	// Add to POS index
	if ts.pos[predicate] == nil {
		ts.pos[predicate] = make(map[string]map[string]bool)
	}
	if ts.pos[predicate][object] == nil {
		ts.pos[predicate][object] = make(map[string]bool)
	}
	ts.pos[predicate][object][subject] = true

	// Add to OSP index
	if ts.osp[object] == nil {
		ts.osp[object] = make(map[string]map[string]bool)
	}
	if ts.osp[object][subject] == nil {
		ts.osp[object][subject] = make(map[string]bool)
	}
	ts.osp[object][subject][predicate] = true

	ts.count++

	return nil
}

// Find queries triples matching the pattern. Use empty string "" for wildcards.
// Returns all matching triples.
func (ts *TripleStore) Find(subject, predicate, object string) []Triple {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	return ts.findUnsafe(subject, predicate, object)
}

// Exists checks if a specific triple exists in the store.
func (ts *TripleStore) Exists(subject, predicate, object string) bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	return ts.existsUnsafe(subject, predicate, object)
}

// Count returns the total number of triples in the store.
func (ts *TripleStore) Count() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.count
}

// SubjectsOfType returns the sorted subjects typed with any of the given classes.
func (ts *TripleStore) SubjectsOfType(classes ...string) []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	seen := make(map[string]bool)
	for _, class := range classes {
		for subject := range ts.pos[RDFType][class] {
			seen[subject] = true
		}
	}

	return sortedKeys(seen)
}

// Literals returns the decoded literal objects of a subject-predicate pair,
// sorted by value then language.
func (ts *TripleStore) Literals(subject, predicate string) []Term {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	var terms []Term
	for object := range ts.spo[subject][predicate] {
		term := ParseTerm(object)
		if term.IsLiteral() {
			terms = append(terms, term)
		}
	}

	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Value != terms[j].Value {
			return terms[i].Value < terms[j].Value
		}
		return terms[i].Language < terms[j].Language
	})

	return terms
}

// String returns a string representation of the store statistics.
func (ts *TripleStore) String() string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	return fmt.Sprintf("TripleStore{triples: %d, subjects: %d, predicates: %d, objects: %d}",
		ts.count, len(ts.spo), len(ts.pos), len(ts.osp))
}

// All returns all triples in the store.
func (ts *TripleStore) All() []Triple {
	return ts.Find("", "", "")
}

// existsUnsafe checks if a triple exists without locking.
func (ts *TripleStore) existsUnsafe(subject, predicate, object string) bool {
	if pMap, ok := ts.spo[subject]; ok {
		if oMap, ok := pMap[predicate]; ok {
			return oMap[object]
		}
	}
	return false
}

// findUnsafe finds triples without locking.
func (ts *TripleStore) findUnsafe(subject, predicate, object string) []Triple {
	var results []Triple

	// All wildcards - return all triples
	if subject == "" && predicate == "" && object == "" {
		for s, pMap := range ts.spo {
			for p, oMap := range pMap {
				for o := range oMap {
					results = append(results, Triple{Subject: s, Predicate: p, Object: o})
				}
			}
		}
		return results
	}

	// Use most specific index based on what's specified
	if subject != "" {
		// Use SPO index
		if pMap, ok := ts.spo[subject]; ok {
			if predicate != "" {
				// S and P specified
				if oMap, ok := pMap[predicate]; ok {
					if object != "" {
						// All specified - check existence
						if oMap[object] {
							results = append(results, Triple{Subject: subject, Predicate: predicate, Object: object})
						}
					} else {
						// S and P specified, O wildcard
						for o := range oMap {
							results = append(results, Triple{Subject: subject, Predicate: predicate, Object: o})
						}
					}
				}
			} else {
				// S specified, P wildcard
				for p, oMap := range pMap {
					if object != "" {
						// S and O specified, P wildcard
						if oMap[object] {
							results = append(results, Triple{Subject: subject, Predicate: p, Object: object})
						}
					} else {
						// S specified, P and O wildcards
						for o := range oMap {
							results = append(results, Triple{Subject: subject, Predicate: p, Object: o})
						}
					}
				}
			}
		}
	} else if predicate != "" {
		// Use POS index (no subject specified)
		if oMap, ok := ts.pos[predicate]; ok {
			if object != "" {
				// P and O specified, S wildcard
				if sMap, ok := oMap[object]; ok {
					for s := range sMap {
						results = append(results, Triple{Subject: s, Predicate: predicate, Object: object})
					}
				}
			} else {
				// P specified, S and O wildcards
				for o, sMap := range oMap {
					for s := range sMap {
						results = append(results, Triple{Subject: s, Predicate: predicate, Object: o})
					}
				}
			}
		}
	} else if object != "" {
		// Use OSP index (only O specified)
		if sMap, ok := ts.osp[object]; ok {
			for s, pMap := range sMap {
				for p := range pMap {
					results = append(results, Triple{Subject: s, Predicate: p, Object: object})
				}
			}
		}
	}

	return results
}
