package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned for RDF syntaxes the serializers do not produce.
var ErrUnsupportedFormat = errors.New("unsupported RDF format")

// Format names an RDF serialization syntax.
type Format string

const (
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "nt"
	FormatRDFXML   Format = "xml"
	FormatJSONLD   Format = "json-ld"
)

var formatAliases = map[string]Format{
	"turtle":     FormatTurtle,
	"ttl":        FormatTurtle,
	"nt":         FormatNTriples,
	"ntriples":   FormatNTriples,
	"n-triples":  FormatNTriples,
	"xml":        FormatRDFXML,
	"rdfxml":     FormatRDFXML,
	"rdf/xml":    FormatRDFXML,
	"rdf":        FormatRDFXML,
	"pretty-xml": FormatRDFXML,
	"json-ld":    FormatJSONLD,
	"jsonld":     FormatJSONLD,
}

// ParseFormat resolves a format name or common alias.
func ParseFormat(name string) (Format, error) {
	format, ok := formatAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
	return format, nil
}

// MediaType returns the content type sent as contentSyntax to validators.
func (format Format) MediaType() string {
	switch format {
	case FormatNTriples:
		return "application/n-triples"
	case FormatRDFXML:
		return "application/rdf+xml"
	case FormatJSONLD:
		return "application/ld+json"
	default:
		return "text/turtle"
	}
}

// Extension returns the conventional file extension, dot included.
func (format Format) Extension() string {
	switch format {
	case FormatNTriples:
		return ".nt"
	case FormatRDFXML:
		return ".rdf"
	case FormatJSONLD:
		return ".jsonld"
	default:
		return ".ttl"
	}
}

// SerializeOptions tune Serialize.
type SerializeOptions struct {
	// Prefixes are bound on top of DefaultPrefixMappings.
	Prefixes []PrefixMapping
	// ExpandJSONLD writes JSON-LD without a context and with full IRIs.
	ExpandJSONLD bool
}

// Serialize renders the store in the given format.
func Serialize(store *TripleStore, format Format, opts SerializeOptions) (string, error) {
	prefixes := opts.Prefixes
	switch format {
	case FormatTurtle:
		options := make([]TurtleOption, 0, len(prefixes))
		for _, mapping := range prefixes {
			options = append(options, WithPrefix(mapping.Prefix, mapping.Namespace))
		}
		return NewTurtleSerializer(options...).Serialize(store), nil

	case FormatNTriples:
		return SerializeNTriples(store), nil

	case FormatRDFXML:
		options := make([]RDFXMLOption, 0, len(prefixes))
		for _, mapping := range prefixes {
			options = append(options, WithRDFXMLPrefix(mapping.Prefix, mapping.Namespace))
		}
		return NewRDFXMLSerializer(options...).Serialize(store), nil

	case FormatJSONLD:
		options := make([]JSONLDOption, 0, len(prefixes)+1)
		for _, mapping := range prefixes {
			options = append(options, WithJSONLDPrefix(mapping.Prefix, mapping.Namespace))
		}
		if opts.ExpandJSONLD {
			options = append(options, WithExpandedForm())
		}
		return NewJSONLDSerializer(options...).SerializeToString(store)

	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
}
