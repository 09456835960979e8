package taxonomy

import "strings"

// NodeKind is the SKOS role a row plays at a level.
type NodeKind int

const (
	KindConceptScheme NodeKind = iota
	KindTopConcept
	KindConcept
)

func (kind NodeKind) String() string {
	switch kind {
	case KindConceptScheme:
		return "ConceptScheme"
	case KindTopConcept:
		return "TopConcept"
	case KindConcept:
		return "Concept"
	default:
		return "Unknown"
	}
}

// KindForLevel maps a level to its node kind relative to the highest level.
func KindForLevel(level, highest int) NodeKind {
	switch {
	case level <= highest:
		return KindConceptScheme
	case level == highest+1:
		return KindTopConcept
	default:
		return KindConcept
	}
}

// NodeURI builds a node IRI from a slug: lower-cased, spaces replaced by
// underscores, appended to namespace.
func NodeURI(namespace, slug string) string {
	return namespace + strings.ReplaceAll(strings.ToLower(slug), " ", "_")
}
