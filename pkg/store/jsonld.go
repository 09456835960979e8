package store

import (
	"encoding/json"
	"sort"
)

// JSONLDContext represents a JSON-LD @context document.
type JSONLDContext map[string]interface{}

// JSONLDSerializer converts a TripleStore into JSON-LD format.
type JSONLDSerializer struct {
	prefixes    *prefixTable
	compactForm bool // If true, produce compact JSON-LD; otherwise expanded
}

// JSONLDOption is a functional option for configuring the JSONLDSerializer.
type JSONLDOption func(*JSONLDSerializer)

// NewJSONLDSerializer creates a JSONLDSerializer with standard prefix declarations.
func NewJSONLDSerializer(options ...JSONLDOption) *JSONLDSerializer {
	serializer := &JSONLDSerializer{
		prefixes:    newPrefixTable(DefaultPrefixMappings()),
		compactForm: true,
	}

	for _, option := range options {
		option(serializer)
	}

	serializer.prefixes.rebuild()

	return serializer
}

// WithJSONLDPrefix adds or overrides a prefix mapping.
func WithJSONLDPrefix(prefix, namespace string) JSONLDOption {
	return func(serializer *JSONLDSerializer) {
		serializer.prefixes.add(prefix, namespace)
	}
}

// WithExpandedForm configures the serializer to output expanded JSON-LD (no context compaction).
func WithExpandedForm() JSONLDOption {
	return func(serializer *JSONLDSerializer) {
		serializer.compactForm = false
	}
}

// BuildContext creates the JSON-LD @context document from prefix mappings.
func (serializer *JSONLDSerializer) BuildContext() JSONLDContext {
	context := make(JSONLDContext)
	for _, mapping := range serializer.prefixes.mappings {
		context[mapping.Prefix] = mapping.Namespace
	}
	return context
}

// JSONLDDocument represents a complete JSON-LD document.
type JSONLDDocument struct {
	Context interface{}              `json:"@context,omitempty"`
	Graph   []map[string]interface{} `json:"@graph"`
}

// Serialize converts all triples in the store to JSON-LD format.
func (serializer *JSONLDSerializer) Serialize(store *TripleStore) ([]byte, error) {
	subjectGroups := groupTriplesBySubject(store)
	sortedSubjects := sortedKeys(subjectGroups)

	graph := make([]map[string]interface{}, 0, len(sortedSubjects))
	for _, subject := range sortedSubjects {
		graph = append(graph, serializer.buildNode(subject, subjectGroups[subject]))
	}

	if !serializer.compactForm {
		return json.MarshalIndent(graph, "", "  ")
	}

	doc := JSONLDDocument{
		Context: serializer.BuildContext(),
		Graph:   graph,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// SerializeToString returns the JSON-LD as a string.
func (serializer *JSONLDSerializer) SerializeToString(store *TripleStore) (string, error) {
	data, err := serializer.Serialize(store)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// buildNode creates a JSON-LD node object from a subject and its predicates.
func (serializer *JSONLDSerializer) buildNode(subject string, predicateObjectMap map[string][]string) map[string]interface{} {
	node := map[string]interface{}{
		"@id": serializer.iri(subject),
	}

	for _, predicate := range sortPredicatesTypeFirst(predicateObjectMap) {
		objects := predicateObjectMap[predicate]
		sort.Strings(objects)

		if predicate == RDFType {
			types := make([]string, len(objects))
			for index, object := range objects {
				types[index] = serializer.iri(object)
			}
			if serializer.compactForm && len(types) == 1 {
				node["@type"] = types[0]
			} else {
				node["@type"] = types
			}
			continue
		}

		values := make([]interface{}, len(objects))
		for index, object := range objects {
			values[index] = serializer.formatValue(ParseTerm(object))
		}

		if serializer.compactForm && len(values) == 1 {
			node[serializer.iri(predicate)] = values[0]
		} else {
			node[serializer.iri(predicate)] = values
		}
	}

	return node
}

// formatValue renders an object as a node reference or value object.
func (serializer *JSONLDSerializer) formatValue(term Term) interface{} {
	switch {
	case term.Kind == TermIRI:
		return map[string]string{"@id": serializer.iri(term.Value)}
	case term.Language != "":
		return map[string]string{"@value": term.Value, "@language": term.Language}
	case term.Datatype != "":
		return map[string]string{"@value": term.Value, "@type": serializer.iri(term.Datatype)}
	case serializer.compactForm:
		return term.Value
	default:
		return map[string]string{"@value": term.Value}
	}
}

// iri compacts an IRI in compact form and leaves it untouched in expanded form.
func (serializer *JSONLDSerializer) iri(value string) string {
	if !serializer.compactForm {
		return value
	}
	if compacted, ok := serializer.prefixes.compact(value); ok {
		return compacted
	}
	return value
}
