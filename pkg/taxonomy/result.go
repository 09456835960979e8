package taxonomy

import (
	"github.com/coolbeans/taxo2rdf/pkg/labels"
	"github.com/coolbeans/taxo2rdf/pkg/language"
	"github.com/coolbeans/taxo2rdf/pkg/spelling"
	"github.com/coolbeans/taxo2rdf/pkg/store"
)

// SkippedRow records a row that produced no node at a level.
type SkippedRow struct {
	Level  int    `json:"level"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result is everything one conversion produced.
type Result struct {
	Store         *store.TripleStore
	ChangeLog     *labels.ChangeLog
	EnglishLabels *language.EnglishLabelSet
	Misspellings  []spelling.Misspelling
	// TaxoSize is the number of distinct node IRIs the input's slugs describe.
	TaxoSize    int
	NodesByKind map[NodeKind]int
	Skipped     []SkippedRow
	Resolutions map[int]Resolution

	nodes map[string]NodeKind
}

func newResult() *Result {
	return &Result{
		Store:         store.NewTripleStore(),
		ChangeLog:     labels.NewChangeLog(),
		EnglishLabels: language.NewEnglishLabelSet(),
		NodesByKind:   make(map[NodeKind]int),
		Resolutions:   make(map[int]Resolution),
		nodes:         make(map[string]NodeKind),
	}
}

func (result *Result) addNode(uri string, kind NodeKind) {
	if _, exists := result.nodes[uri]; exists {
		return
	}
	result.nodes[uri] = kind
	result.NodesByKind[kind]++
}

// NodeCount returns the number of distinct nodes emitted.
func (result *Result) NodeCount() int {
	return len(result.nodes)
}
