package store

import (
	"fmt"
	"sort"
	"strings"
)

// RDFXMLSerializer converts a TripleStore into W3C-compliant RDF/XML format.
type RDFXMLSerializer struct {
	prefixes *prefixTable
}

// RDFXMLOption is a functional option for configuring the RDFXMLSerializer.
type RDFXMLOption func(*RDFXMLSerializer)

// NewRDFXMLSerializer creates an RDFXMLSerializer with standard namespace declarations.
func NewRDFXMLSerializer(options ...RDFXMLOption) *RDFXMLSerializer {
	serializer := &RDFXMLSerializer{
		prefixes: newPrefixTable(DefaultPrefixMappings()),
	}

	for _, option := range options {
		option(serializer)
	}

	serializer.prefixes.rebuild()

	return serializer
}

// WithRDFXMLPrefix adds or overrides a namespace prefix mapping.
func WithRDFXMLPrefix(prefix, namespace string) RDFXMLOption {
	return func(serializer *RDFXMLSerializer) {
		serializer.prefixes.add(prefix, namespace)
	}
}

// Serialize converts all triples in the store to RDF/XML format.
func (serializer *RDFXMLSerializer) Serialize(store *TripleStore) string {
	var builder strings.Builder

	subjectGroups := groupTriplesBySubject(store)
	sortedSubjects := sortedKeys(subjectGroups)

	// Predicates outside every bound namespace get generated prefixes, since
	// an element name cannot be a full IRI.
	prefixes := serializer.prefixesFor(subjectGroups)

	serializer.writeXMLHeader(&builder, prefixes)

	for _, subject := range sortedSubjects {
		serializer.writeDescription(&builder, prefixes, subject, subjectGroups[subject])
	}

	builder.WriteString("</rdf:RDF>\n")

	return builder.String()
}

func (serializer *RDFXMLSerializer) prefixesFor(subjectGroups map[string]map[string][]string) *prefixTable {
	prefixes := newPrefixTable(append([]PrefixMapping(nil), serializer.prefixes.mappings...))
	generated := 0

	for _, subject := range sortedKeys(subjectGroups) {
		for _, predicate := range sortedKeys(subjectGroups[subject]) {
			if _, localName, ok := prefixes.split(predicate); ok && isValidLocalName(localName) {
				continue
			}

			namespace, _ := splitNamespace(predicate)
			generated++
			prefixes.add(fmt.Sprintf("ns%d", generated), namespace)
			prefixes.rebuild()
		}
	}

	return prefixes
}

// writeXMLHeader writes the XML declaration and opening rdf:RDF element with namespace attributes.
func (serializer *RDFXMLSerializer) writeXMLHeader(builder *strings.Builder, prefixes *prefixTable) {
	builder.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	builder.WriteString("<rdf:RDF")

	for _, mapping := range prefixes.sorted() {
		fmt.Fprintf(builder, "\n    xmlns:%s=\"%s\"", mapping.Prefix, escapeXMLAttribute(mapping.Namespace))
	}

	builder.WriteString(">\n")
}

// writeDescription writes an rdf:Description block for a single subject.
func (serializer *RDFXMLSerializer) writeDescription(
	builder *strings.Builder,
	prefixes *prefixTable,
	subject string,
	predicateObjectMap map[string][]string,
) {
	builder.WriteString("\n")
	fmt.Fprintf(builder, "  <rdf:Description rdf:about=\"%s\">\n", escapeXMLAttribute(subject))

	for _, predicate := range sortPredicatesTypeFirst(predicateObjectMap) {
		objects := predicateObjectMap[predicate]
		sort.Strings(objects)

		elementName := predicate
		if prefix, localName, ok := prefixes.split(predicate); ok {
			elementName = prefix + ":" + localName
		}

		for _, object := range objects {
			serializer.writeProperty(builder, elementName, ParseTerm(object))
		}
	}

	builder.WriteString("  </rdf:Description>\n")
}

// writeProperty writes a single predicate-object pair as an XML element.
func (serializer *RDFXMLSerializer) writeProperty(builder *strings.Builder, elementName string, term Term) {
	switch {
	case term.Kind == TermIRI:
		fmt.Fprintf(builder, "    <%s rdf:resource=\"%s\"/>\n", elementName, escapeXMLAttribute(term.Value))
	case term.Language != "":
		fmt.Fprintf(builder, "    <%s xml:lang=\"%s\">%s</%s>\n",
			elementName, escapeXMLAttribute(term.Language), escapeXMLText(term.Value), elementName)
	case term.Datatype != "":
		fmt.Fprintf(builder, "    <%s rdf:datatype=\"%s\">%s</%s>\n",
			elementName, escapeXMLAttribute(term.Datatype), escapeXMLText(term.Value), elementName)
	default:
		fmt.Fprintf(builder, "    <%s>%s</%s>\n", elementName, escapeXMLText(term.Value), elementName)
	}
}

// splitNamespace cuts an IRI after its last '#' or '/'.
func splitNamespace(iri string) (string, string) {
	cut := strings.LastIndexAny(iri, "#/")
	if cut < 0 || cut == len(iri)-1 {
		return iri, ""
	}
	return iri[:cut+1], iri[cut+1:]
}

// escapeXMLText escapes characters that are special in XML text content.
func escapeXMLText(text string) string {
	var builder strings.Builder
	builder.Grow(len(text) + len(text)/8)

	for _, char := range text {
		switch char {
		case '&':
			builder.WriteString("&amp;")
		case '<':
			builder.WriteString("&lt;")
		case '>':
			builder.WriteString("&gt;")
		default:
			builder.WriteRune(char)
		}
	}

	return builder.String()
}

// escapeXMLAttribute escapes characters that are special in XML attribute values.
func escapeXMLAttribute(text string) string {
	var builder strings.Builder
	builder.Grow(len(text) + len(text)/8)

	for _, char := range text {
		switch char {
		case '&':
			builder.WriteString("&amp;")
		case '<':
			builder.WriteString("&lt;")
		case '>':
			builder.WriteString("&gt;")
		case '"':
			builder.WriteString("&quot;")
		default:
			builder.WriteRune(char)
		}
	}

	return builder.String()
}
