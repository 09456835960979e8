package store

import (
	"fmt"
	"strings"
)

// Triple represents an RDF Subject-Predicate-Object triple.
// In the taxonomy domain:
//   - Subject: a concept or concept scheme IRI (e.g., "http://ex.org/solar")
//   - Predicate: a vocabulary IRI (e.g., SKOSBroader)
//   - Object: another IRI, or a literal encoded with PlainLiteral, LangLiteral or TypedLiteral
type Triple struct {
	Subject   string
	Predicate string
	Object    string
}

// NTriples returns the triple as one N-Triples statement.
func (t Triple) NTriples() string {
	return fmt.Sprintf("<%s> <%s> %s .", t.Subject, t.Predicate, ParseTerm(t.Object).NTriples())
}

// TermKind distinguishes IRIs from literals in the object position.
type TermKind int

const (
	// TermIRI is a resource reference.
	TermIRI TermKind = iota
	// TermLiteral is a plain, language-tagged or typed literal.
	TermLiteral
)

// Term is a decoded object value.
type Term struct {
	Kind     TermKind
	Value    string
	Language string
	Datatype string
}

// IsLiteral reports whether the term is a literal.
func (term Term) IsLiteral() bool {
	return term.Kind == TermLiteral
}

// NTriples renders the term in N-Triples syntax.
func (term Term) NTriples() string {
	if term.Kind == TermIRI {
		return "<" + term.Value + ">"
	}
	return encodeLiteral(term.Value, term.Language, term.Datatype)
}

// PlainLiteral encodes a literal without language or datatype for storage.
func PlainLiteral(value string) string {
	return encodeLiteral(value, "", "")
}

// LangLiteral encodes a language-tagged literal for storage. An empty language
// yields a plain literal.
func LangLiteral(value, language string) string {
	return encodeLiteral(value, language, "")
}

// TypedLiteral encodes a datatyped literal for storage.
func TypedLiteral(value, datatype string) string {
	return encodeLiteral(value, "", datatype)
}

func encodeLiteral(value, language, datatype string) string {
	encoded := `"` + escapeLiteralString(value) + `"`
	switch {
	case language != "":
		return encoded + "@" + strings.ToLower(language)
	case datatype != "":
		return encoded + "^^<" + datatype + ">"
	default:
		return encoded
	}
}

// ParseTerm decodes a stored object value. Values that are not in quoted
// literal form are IRIs.
func ParseTerm(object string) Term {
	if !strings.HasPrefix(object, `"`) {
		return Term{Kind: TermIRI, Value: object}
	}

	closingQuote := strings.LastIndex(object, `"`)
	if closingQuote == 0 {
		// A lone quote character; keep it as an unescaped literal.
		return Term{Kind: TermLiteral, Value: object}
	}

	term := Term{
		Kind:  TermLiteral,
		Value: unescapeLiteralString(object[1:closingQuote]),
	}

	suffix := object[closingQuote+1:]
	switch {
	case strings.HasPrefix(suffix, "@"):
		term.Language = suffix[1:]
	case strings.HasPrefix(suffix, "^^<") && strings.HasSuffix(suffix, ">"):
		term.Datatype = suffix[3 : len(suffix)-1]
	}

	return term
}

// unescapeLiteralString reverses escapeLiteralString.
func unescapeLiteralString(value string) string {
	if !strings.Contains(value, `\`) {
		return value
	}

	var builder strings.Builder
	builder.Grow(len(value))

	escaped := false
	for _, char := range value {
		if !escaped {
			if char == '\\' {
				escaped = true
				continue
			}
			builder.WriteRune(char)
			continue
		}

		escaped = false
		switch char {
		case 'n':
			builder.WriteRune('\n')
		case 'r':
			builder.WriteRune('\r')
		case 't':
			builder.WriteRune('\t')
		default:
			builder.WriteRune(char)
		}
	}

	return builder.String()
}
