package store

import (
	"fmt"
	"sync"
	"testing"
)

const testNS = "http://ex.org/"

func populateTestStore(store *TripleStore) {
	store.Add(testNS+"root", RDFType, SKOSConceptScheme)
	store.Add(testNS+"root", SKOSPrefLabel, LangLiteral("Root", "fr"))
	store.Add(testNS+"energy", RDFType, SKOSConcept)
	store.Add(testNS+"energy", SKOSPrefLabel, LangLiteral("Energy", "fr"))
	store.Add(testNS+"energy", SKOSTopConceptOf, testNS+"root")
	store.Add(testNS+"root", SKOSHasTopConcept, testNS+"energy")
	store.Add(testNS+"solar", RDFType, SKOSConcept)
	store.Add(testNS+"solar", SKOSPrefLabel, LangLiteral("Solar", "fr"))
	store.Add(testNS+"solar", SKOSBroader, testNS+"energy")
}

func TestNewTripleStore(t *testing.T) {
	store := NewTripleStore()

	if store == nil {
		t.Fatal("NewTripleStore returned nil")
	}

	if store.Count() != 0 {
		t.Errorf("New store should have 0 triples, got %d", store.Count())
	}
}

func TestTripleStore_Add(t *testing.T) {
	store := NewTripleStore()

	err := store.Add(testNS+"solar", RDFType, SKOSConcept)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Same triple again is a no-op
	err = store.Add(testNS+"solar", RDFType, SKOSConcept)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if store.Count() != 1 {
		t.Errorf("Expected 1 triple after duplicate add, got %d", store.Count())
	}

	err = store.Add(testNS+"solar", SKOSPrefLabel, LangLiteral("Solar", "fr"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if store.Count() != 2 {
		t.Errorf("Expected 2 triples, got %d", store.Count())
	}
}

func TestTripleStore_Add_InvalidTriple(t *testing.T) {
	store := NewTripleStore()

	if err := store.Add("", RDFType, SKOSConcept); err == nil {
		t.Error("Expected error for empty subject")
	}
	if err := store.Add(testNS+"solar", "", SKOSConcept); err == nil {
		t.Error("Expected error for empty predicate")
	}
	if err := store.Add(testNS+"solar", RDFType, ""); err == nil {
		t.Error("Expected error for empty object")
	}

	if store.Count() != 0 {
		t.Errorf("Store should be empty after invalid adds, got %d", store.Count())
	}
}

func TestTripleStore_Find(t *testing.T) {
	store := NewTripleStore()
	populateTestStore(store)

	testCases := []struct {
		name                       string
		subject, predicate, object string
		expected                   int
	}{
		{"all", "", "", "", 9},
		{"subject", testNS + "solar", "", "", 3},
		{"subject_predicate", testNS + "solar", RDFType, "", 1},
		{"exact", testNS + "solar", SKOSBroader, testNS + "energy", 1},
		{"subject_object", testNS + "energy", "", testNS + "root", 1},
		{"predicate", "", RDFType, "", 3},
		{"predicate_object", "", RDFType, SKOSConcept, 2},
		{"object", "", "", testNS + "energy", 2},
		{"missing", testNS + "wind", "", "", 0},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			results := store.Find(testCase.subject, testCase.predicate, testCase.object)
			if len(results) != testCase.expected {
				t.Errorf("Find(%q, %q, %q) returned %d triples, want %d",
					testCase.subject, testCase.predicate, testCase.object, len(results), testCase.expected)
			}
		})
	}
}

func TestTripleStore_SubjectsOfType(t *testing.T) {
	store := NewTripleStore()
	populateTestStore(store)

	concepts := store.SubjectsOfType(SKOSConcept)
	if len(concepts) != 2 || concepts[0] != testNS+"energy" || concepts[1] != testNS+"solar" {
		t.Errorf("Unexpected concepts: %v", concepts)
	}

	all := store.SubjectsOfType(SKOSConcept, SKOSConceptScheme)
	if len(all) != 3 {
		t.Errorf("Expected 3 typed subjects, got %d", len(all))
	}
}

func TestTripleStore_Literals(t *testing.T) {
	store := NewTripleStore()
	store.Add(testNS+"solar", SKOSPrefLabel, LangLiteral("Solaire", "fr"))
	store.Add(testNS+"solar", SKOSPrefLabel, LangLiteral("Solar", "en"))
	store.Add(testNS+"solar", SKOSPrefLabel, testNS+"not-a-literal")

	labels := store.Literals(testNS+"solar", SKOSPrefLabel)
	if len(labels) != 2 {
		t.Fatalf("Expected 2 literal labels, got %d", len(labels))
	}
	if labels[0].Value != "Solaire" || labels[0].Language != "fr" {
		t.Errorf("Labels should sort by value: got %+v", labels)
	}
}

func TestTripleStore_String(t *testing.T) {
	store := NewTripleStore()
	store.Add(testNS+"solar", RDFType, SKOSConcept)
	store.Add(testNS+"solar", SKOSBroader, testNS+"energy")

	expected := "TripleStore{triples: 2, subjects: 1, predicates: 2, objects: 2}"
	if got := store.String(); got != expected {
		t.Errorf("String() = %q, want %q", got, expected)
	}
}

func TestTripleStore_ConcurrentAccess(t *testing.T) {
	store := NewTripleStore()

	var waitGroup sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		waitGroup.Add(1)
		go func(worker int) {
			defer waitGroup.Done()
			for index := 0; index < 50; index++ {
				subject := fmt.Sprintf("%sc%d_%d", testNS, worker, index)
				store.Add(subject, RDFType, SKOSConcept)
				store.Find(subject, "", "")
			}
		}(worker)
	}
	waitGroup.Wait()

	if store.Count() != 400 {
		t.Errorf("Expected 400 triples, got %d", store.Count())
	}
}
