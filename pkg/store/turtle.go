package store

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// PrefixMapping associates a short prefix label with its full namespace URI.
type PrefixMapping struct {
	Prefix    string
	Namespace string
}

// TurtleSerializer converts a TripleStore into W3C-compliant Turtle (TTL) format.
type TurtleSerializer struct {
	prefixes *prefixTable
}

// TurtleOption is a functional option for configuring the TurtleSerializer.
type TurtleOption func(*TurtleSerializer)

// NewTurtleSerializer creates a TurtleSerializer with standard prefix declarations.
func NewTurtleSerializer(options ...TurtleOption) *TurtleSerializer {
	serializer := &TurtleSerializer{
		prefixes: newPrefixTable(DefaultPrefixMappings()),
	}

	for _, option := range options {
		option(serializer)
	}

	serializer.prefixes.rebuild()

	return serializer
}

// WithPrefix adds or overrides a prefix mapping.
func WithPrefix(prefix, namespace string) TurtleOption {
	return func(serializer *TurtleSerializer) {
		serializer.prefixes.add(prefix, namespace)
	}
}

// DefaultPrefixMappings returns the prefixes bound in every taxonomy graph.
func DefaultPrefixMappings() []PrefixMapping {
	return []PrefixMapping{
		{Prefix: "rdf", Namespace: NamespaceRDF},
		{Prefix: "rdfs", Namespace: NamespaceRDFS},
		{Prefix: "xsd", Namespace: NamespaceXSD},
		{Prefix: "skos", Namespace: NamespaceSKOS},
		{Prefix: "dcterms", Namespace: NamespaceDCTerms},
		{Prefix: "owl", Namespace: NamespaceOWL},
		{Prefix: "euvoc", Namespace: NamespaceEuroVoc},
		{Prefix: "status", Namespace: NamespaceConceptStatus},
	}
}

// Serialize converts all triples in the store to Turtle format.
func (serializer *TurtleSerializer) Serialize(store *TripleStore) string {
	var builder strings.Builder

	serializer.writePrefixDeclarations(&builder)

	subjectGroups := groupTriplesBySubject(store)
	sortedSubjects := sortedKeys(subjectGroups)

	for subjectIndex, subject := range sortedSubjects {
		if subjectIndex > 0 {
			builder.WriteString("\n")
		}
		serializer.writeSubjectGroup(&builder, subject, subjectGroups[subject])
	}

	return builder.String()
}

func (serializer *TurtleSerializer) writePrefixDeclarations(builder *strings.Builder) {
	for _, mapping := range serializer.prefixes.sorted() {
		fmt.Fprintf(builder, "@prefix %s: <%s> .\n", mapping.Prefix, mapping.Namespace)
	}

	if len(serializer.prefixes.mappings) > 0 {
		builder.WriteString("\n")
	}
}

func (serializer *TurtleSerializer) writeSubjectGroup(
	builder *strings.Builder,
	subject string,
	predicateObjectMap map[string][]string,
) {
	builder.WriteString(serializer.formatIRI(subject))

	sortedPredicates := sortPredicatesTypeFirst(predicateObjectMap)

	for predicateIndex, predicate := range sortedPredicates {
		objects := predicateObjectMap[predicate]
		sort.Strings(objects)

		if predicateIndex == 0 {
			builder.WriteString(" ")
		} else {
			builder.WriteString(" ;\n    ")
		}

		builder.WriteString(serializer.formatPredicate(predicate))

		for objectIndex, object := range objects {
			if objectIndex > 0 {
				builder.WriteString(" ,\n        ")
			} else {
				builder.WriteString(" ")
			}
			builder.WriteString(serializer.formatObject(object))
		}
	}

	builder.WriteString(" .\n")
}

// formatIRI compacts an IRI to a prefixed name when a bound namespace matches.
func (serializer *TurtleSerializer) formatIRI(value string) string {
	if compacted, ok := serializer.prefixes.compact(value); ok {
		return compacted
	}
	return "<" + escapeIRI(value) + ">"
}

// formatPredicate formats a predicate, using "a" shorthand for rdf:type.
func (serializer *TurtleSerializer) formatPredicate(predicate string) string {
	if predicate == RDFType {
		return "a"
	}
	return serializer.formatIRI(predicate)
}

// formatObject formats an IRI or a literal with its language tag or datatype.
func (serializer *TurtleSerializer) formatObject(value string) string {
	term := ParseTerm(value)
	if term.Kind == TermIRI {
		return serializer.formatIRI(term.Value)
	}

	literal := formatLiteral(term.Value)
	switch {
	case term.Language != "":
		return literal + "@" + term.Language
	case term.Datatype != "":
		return literal + "^^" + serializer.formatIRI(term.Datatype)
	default:
		return literal
	}
}

// prefixTable holds prefix bindings shared by the serializers.
type prefixTable struct {
	mappings       []PrefixMapping
	prefixIndex    map[string]string // prefix -> namespace
	namespaceIndex map[string]string // namespace -> prefix
}

func newPrefixTable(mappings []PrefixMapping) *prefixTable {
	table := &prefixTable{mappings: mappings}
	table.rebuild()
	return table
}

// add appends a mapping; a later mapping for the same prefix replaces the earlier one.
func (table *prefixTable) add(prefix, namespace string) {
	for index, mapping := range table.mappings {
		if mapping.Prefix == prefix {
			table.mappings[index].Namespace = namespace
			return
		}
	}
	table.mappings = append(table.mappings, PrefixMapping{Prefix: prefix, Namespace: namespace})
}

func (table *prefixTable) rebuild() {
	table.prefixIndex = make(map[string]string, len(table.mappings))
	table.namespaceIndex = make(map[string]string, len(table.mappings))

	for _, mapping := range table.mappings {
		table.prefixIndex[mapping.Prefix] = mapping.Namespace
		table.namespaceIndex[mapping.Namespace] = mapping.Prefix
	}
}

func (table *prefixTable) sorted() []PrefixMapping {
	sortedPrefixes := make([]PrefixMapping, len(table.mappings))
	copy(sortedPrefixes, table.mappings)
	sort.Slice(sortedPrefixes, func(i, j int) bool {
		return sortedPrefixes[i].Prefix < sortedPrefixes[j].Prefix
	})
	return sortedPrefixes
}

// split finds the longest bound namespace the IRI starts with.
func (table *prefixTable) split(fullURI string) (string, string, bool) {
	bestPrefix := ""
	bestNamespace := ""
	for namespace, prefix := range table.namespaceIndex {
		if strings.HasPrefix(fullURI, namespace) && len(namespace) > len(bestNamespace) {
			bestPrefix = prefix
			bestNamespace = namespace
		}
	}

	if bestNamespace == "" {
		return "", "", false
	}
	return bestPrefix, fullURI[len(bestNamespace):], true
}

// compact replaces a full namespace URI with its prefix form when the
// remainder is a valid local name.
func (table *prefixTable) compact(fullURI string) (string, bool) {
	prefix, localName, ok := table.split(fullURI)
	if !ok || !isValidLocalName(localName) {
		return "", false
	}
	return prefix + ":" + localName, true
}

// groupTriplesBySubject organizes triples into subject -> predicate -> []object.
func groupTriplesBySubject(store *TripleStore) map[string]map[string][]string {
	subjectGroups := make(map[string]map[string][]string)

	for _, triple := range store.All() {
		if _, exists := subjectGroups[triple.Subject]; !exists {
			subjectGroups[triple.Subject] = make(map[string][]string)
		}
		subjectGroups[triple.Subject][triple.Predicate] = append(
			subjectGroups[triple.Subject][triple.Predicate],
			triple.Object,
		)
	}

	return subjectGroups
}

// sortPredicatesTypeFirst sorts predicates with rdf:type first, then alphabetically.
func sortPredicatesTypeFirst(predicateObjectMap map[string][]string) []string {
	predicates := make([]string, 0, len(predicateObjectMap))
	hasRDFType := false

	for predicate := range predicateObjectMap {
		if predicate == RDFType {
			hasRDFType = true
		} else {
			predicates = append(predicates, predicate)
		}
	}

	sort.Strings(predicates)

	if hasRDFType {
		predicates = append([]string{RDFType}, predicates...)
	}

	return predicates
}

// isValidLocalName accepts the conservative subset of Turtle PN_LOCAL that
// slugs produce: letters, digits, underscores, hyphens and inner dots.
func isValidLocalName(localName string) bool {
	if localName == "" {
		return false
	}
	if strings.HasPrefix(localName, "-") || strings.HasPrefix(localName, ".") || strings.HasSuffix(localName, ".") {
		return false
	}

	for _, char := range localName {
		if unicode.IsLetter(char) || unicode.IsDigit(char) {
			continue
		}
		if char == '_' || char == '-' || char == '.' {
			continue
		}
		return false
	}
	return true
}

// formatLiteral wraps a string value in Turtle-compliant double quotes.
func formatLiteral(value string) string {
	escaped := escapeLiteralString(value)

	if strings.Contains(value, "\n") {
		return `"""` + escaped + `"""`
	}

	return `"` + escaped + `"`
}

// escapeLiteralString escapes special characters per W3C Turtle spec.
func escapeLiteralString(value string) string {
	var builder strings.Builder
	builder.Grow(len(value) + len(value)/8)

	for _, char := range value {
		switch char {
		case '\\':
			builder.WriteString(`\\`)
		case '"':
			builder.WriteString(`\"`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\t':
			builder.WriteString(`\t`)
		default:
			builder.WriteRune(char)
		}
	}

	return builder.String()
}

// escapeIRI escapes characters not allowed in IRIs within angle brackets.
func escapeIRI(iri string) string {
	var builder strings.Builder
	builder.Grow(len(iri))

	for _, char := range iri {
		switch char {
		case '<':
			builder.WriteString(`\u003C`)
		case '>':
			builder.WriteString(`\u003E`)
		case '"':
			builder.WriteString(`\u0022`)
		case ' ':
			builder.WriteString(`\u0020`)
		case '{':
			builder.WriteString(`\u007B`)
		case '}':
			builder.WriteString(`\u007D`)
		default:
			builder.WriteRune(char)
		}
	}

	return builder.String()
}

// sortedKeys returns the keys of a map sorted alphabetically.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
