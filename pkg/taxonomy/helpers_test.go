package taxonomy

import (
	"strings"

	"github.com/coolbeans/taxo2rdf/pkg/language"
	"github.com/coolbeans/taxo2rdf/pkg/store"
	"github.com/coolbeans/taxo2rdf/pkg/table"
)

const testNamespace = "http://ex.org/"

// taxonomyRow holds slug, label, definition and id for levels 1 to 3.
type taxonomyRow [3][4]string

func canonicalHeaders(levels ...int) []string {
	var headers []string
	for _, level := range levels {
		fields := CanonicalFields(level)
		headers = append(headers, fields.Slug, fields.PrefLabel, fields.Definition, fields.Identifier)
	}
	return headers
}

func newTaxonomyTable(rows ...taxonomyRow) *table.Table {
	records := make([][]string, len(rows))
	for index, row := range rows {
		for _, level := range row {
			records[index] = append(records[index], level[:]...)
		}
	}
	tbl := table.New(canonicalHeaders(1, 2, 3), records)
	tbl.Language = "fr"
	return tbl
}

func energyTable() *table.Table {
	return newTaxonomyTable(
		taxonomyRow{
			{"root", "Root", "", "R1"},
			{"energy", "Energy", "Energy sources", "E1"},
			{"solar", "Solar", "Power from the sun", "S1"},
		},
	)
}

func testOptions() Options {
	return Options{
		Namespace:       testNamespace,
		Highest:         1,
		Lowest:          3,
		DefaultLanguage: "fr",
		Version:         "0.0.1",
		Status:          "CURRENT",
		CreationDate:    "2024-12-18",
	}
}

// englishWords classifies labels containing any of the words as English.
func englishWords(words ...string) language.Classifier {
	return language.ClassifierFunc(func(label string) language.Language {
		lower := strings.ToLower(label)
		for _, word := range words {
			if strings.Contains(lower, word) {
				return language.English
			}
		}
		return language.French
	})
}

// englishLiterals returns the @en literals of subject under predicate.
func englishLiterals(graph *store.TripleStore, subject, predicate string) []store.Term {
	var terms []store.Term
	for _, term := range graph.Literals(subject, predicate) {
		if term.Language == "en" {
			terms = append(terms, term)
		}
	}
	return terms
}
