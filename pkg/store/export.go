package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// GraphNode represents a taxonomy node in the graph visualization.
type GraphNode struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// GraphEdge represents a hierarchy edge in the graph visualization.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
	Type   string `json:"type"`
}

// GraphExport represents the complete graph for visualization.
type GraphExport struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
	Stats GraphStats  `json:"stats"`
}

// GraphStats contains summary statistics for the graph.
type GraphStats struct {
	TotalNodes  int            `json:"total_nodes"`
	TotalEdges  int            `json:"total_edges"`
	NodesByType map[string]int `json:"nodes_by_type"`
	EdgesByType map[string]int `json:"edges_by_type"`
}

// ExportGraph exports the typed nodes of the store and the hierarchy edges
// between them, sorted for stable output.
func ExportGraph(store *TripleStore) *GraphExport {
	export := &GraphExport{
		Nodes: make([]GraphNode, 0),
		Edges: make([]GraphEdge, 0),
		Stats: GraphStats{
			NodesByType: make(map[string]int),
			EdgesByType: make(map[string]int),
		},
	}

	for _, subject := range store.SubjectsOfType(SKOSConcept, SKOSConceptScheme) {
		node := createNode(subject, store)
		export.Nodes = append(export.Nodes, node)
		export.Stats.NodesByType[node.Type]++
	}

	for _, triple := range store.All() {
		if !IsHierarchyPredicate(triple.Predicate) {
			continue
		}
		label := localName(triple.Predicate)
		export.Edges = append(export.Edges, GraphEdge{
			Source: triple.Subject,
			Target: triple.Object,
			Label:  label,
			Type:   triple.Predicate,
		})
		export.Stats.EdgesByType[label]++
	}

	sort.Slice(export.Edges, func(i, j int) bool {
		left, right := export.Edges[i], export.Edges[j]
		if left.Source != right.Source {
			return left.Source < right.Source
		}
		if left.Type != right.Type {
			return left.Type < right.Type
		}
		return left.Target < right.Target
	})

	export.Stats.TotalNodes = len(export.Nodes)
	export.Stats.TotalEdges = len(export.Edges)

	return export
}

// createNode creates a GraphNode from an IRI, carrying its literal properties as metadata.
func createNode(uri string, store *TripleStore) GraphNode {
	node := GraphNode{
		ID:       uri,
		Label:    extractNodeLabel(uri, store),
		Type:     getNodeType(uri, store),
		Metadata: make(map[string]string),
	}

	for _, triple := range store.Find(uri, "", "") {
		term := ParseTerm(triple.Object)
		if !term.IsLiteral() || len(term.Value) >= 100 {
			continue
		}
		key := localName(triple.Predicate)
		if term.Language != "" {
			key += "@" + term.Language
		}
		node.Metadata[key] = term.Value
	}

	return node
}

// extractNodeLabel prefers skos:prefLabel, then dcterms:title, then the IRI's last segment.
func extractNodeLabel(uri string, store *TripleStore) string {
	for _, predicate := range []string{SKOSPrefLabel, DCTermsTitle} {
		if labels := store.Literals(uri, predicate); len(labels) > 0 {
			return labels[0].Value
		}
	}
	return localName(uri)
}

// getNodeType names the node kind: ConceptScheme, TopConcept or Concept.
func getNodeType(uri string, store *TripleStore) string {
	switch {
	case store.Exists(uri, RDFType, SKOSConceptScheme):
		return "ConceptScheme"
	case len(store.Find(uri, SKOSTopConceptOf, "")) > 0:
		return "TopConcept"
	case store.Exists(uri, RDFType, SKOSConcept):
		return "Concept"
	default:
		return "Node"
	}
}

// localName returns the part of an IRI after its last '#' or '/'.
func localName(iri string) string {
	if idx := strings.LastIndexAny(iri, "#/"); idx != -1 && idx < len(iri)-1 {
		return iri[idx+1:]
	}
	return iri
}

// ToJSON serializes the graph export to JSON.
func (g *GraphExport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// ToDOT exports the graph in DOT format for Graphviz.
func (g *GraphExport) ToDOT() string {
	var sb strings.Builder

	sb.WriteString("digraph Taxonomy {\n")
	sb.WriteString("  rankdir=BT;\n")
	sb.WriteString("  node [shape=box];\n\n")

	typeColors := map[string]string{
		"ConceptScheme": "gold",
		"TopConcept":    "lightgreen",
		"Concept":       "lightblue",
	}

	for _, node := range g.Nodes {
		color := typeColors[node.Type]
		if color == "" {
			color = "white"
		}
		label := strings.ReplaceAll(node.Label, "\"", "\\\"")
		if len([]rune(label)) > 30 {
			label = string([]rune(label)[:30]) + "..."
		}
		sb.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\" style=filled fillcolor=%s];\n",
			node.ID, label, color))
	}

	sb.WriteString("\n")

	for _, edge := range g.Edges {
		if edge.Type != SKOSBroader && edge.Type != SKOSTopConceptOf {
			continue
		}
		sb.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\"];\n",
			edge.Source, edge.Target, edge.Label))
	}

	sb.WriteString("}\n")
	return sb.String()
}
