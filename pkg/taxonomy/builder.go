package taxonomy

import (
	"log/slog"

	"github.com/coolbeans/taxo2rdf/pkg/labels"
	"github.com/coolbeans/taxo2rdf/pkg/language"
	"github.com/coolbeans/taxo2rdf/pkg/spelling"
	"github.com/coolbeans/taxo2rdf/pkg/store"
	"github.com/coolbeans/taxo2rdf/pkg/table"
)

// builder emits the triples of one row at one level.
type builder struct {
	options      Options
	creationDate string
	store        *store.TripleStore
	engine       *labels.Engine
	tracker      *language.Tracker
	checker      *spelling.Checker
	fields       map[int]LevelFields
	result       *Result
	logger       *slog.Logger
}

func (b *builder) add(subject, predicate, object string) {
	if err := b.store.Add(subject, predicate, object); err != nil {
		b.logger.Debug("triple not added", slog.String("subject", subject), slog.Any("error", err))
	}
}

func (b *builder) skip(level int, row table.Row, reason string) {
	b.result.Skipped = append(b.result.Skipped, SkippedRow{Level: level, Row: row.Index, Reason: reason})
}

// nodes returns the row's IRI at level and, for concepts, the scheme and
// parent IRIs. ok is false when the row was skipped.
func (b *builder) nodes(level int, kind NodeKind, row table.Row) (uri, scheme, parent string, ok bool) {
	slug := row.Get(b.fields[level].Slug)
	if slug == "" {
		b.skip(level, row, "empty slug")
		return "", "", "", false
	}
	uri = NodeURI(b.options.Namespace, slug)

	if kind == KindConceptScheme {
		return uri, "", "", true
	}

	schemeSlug := row.Get(b.fields[b.options.Highest].Slug)
	if schemeSlug == "" {
		b.skip(level, row, "empty scheme slug")
		return "", "", "", false
	}
	scheme = NodeURI(b.options.Namespace, schemeSlug)

	if kind == KindConcept {
		parentSlug := row.Get(b.fields[level-1].Slug)
		if parentSlug == "" {
			b.skip(level, row, "empty parent slug")
			return "", "", "", false
		}
		parent = NodeURI(b.options.Namespace, parentSlug)
	}

	return uri, scheme, parent, true
}

func (b *builder) emit(level int, kind NodeKind, row table.Row) {
	fields := b.fields[level]

	rawLabel := row.Get(fields.PrefLabel)
	if rawLabel == "" {
		return
	}

	uri, scheme, parent, ok := b.nodes(level, kind, row)
	if !ok {
		return
	}
	b.result.addNode(uri, kind)

	lang := b.options.DefaultLanguage

	if identifier := row.Get(fields.Identifier); identifier != "" {
		b.add(uri, store.DCTermsIdentifier, store.PlainLiteral(identifier))
	}
	if b.options.Version != "" {
		b.add(uri, store.OWLVersionInfo, store.PlainLiteral(b.options.Version))
	}
	b.emitPrefLabel(uri, rawLabel, lang, true)

	if kind == KindConceptScheme {
		b.add(uri, store.RDFType, store.SKOSConceptScheme)
		b.add(uri, store.DCTermsCreated, store.TypedLiteral(b.creationDate, store.XSDDate))
		b.add(uri, store.DCTermsTitle, store.LangLiteral(rawLabel, lang))
		return
	}

	b.add(uri, store.RDFType, store.SKOSConcept)
	if b.options.Status != "" {
		b.add(uri, store.EuroVocStatus, store.StatusIRI(b.options.Status))
	}
	b.emitDefinition(uri, row.Get(fields.Definition), lang)
	b.add(uri, store.SKOSInScheme, scheme)

	if fields.AltLabel != "" {
		if altLabel := row.Get(fields.AltLabel); altLabel != "" {
			b.add(uri, store.SKOSAltLabel, store.LangLiteral(altLabel, lang))
		}
	}
	if fields.PopTitle != "" {
		if popTitle := row.Get(fields.PopTitle); popTitle != "" {
			b.add(uri, store.DCTermsTitle, store.LangLiteral(popTitle, lang))
		}
	}

	switch kind {
	case KindTopConcept:
		b.add(uri, store.SKOSTopConceptOf, scheme)
		b.add(scheme, store.SKOSHasTopConcept, uri)
	case KindConcept:
		b.add(uri, store.SKOSBroader, parent)
	}
}

// emitPrefLabel adds the cleaned label. For the default-language label it
// also classifies it and adds the English variant when enabled.
func (b *builder) emitPrefLabel(uri, rawLabel, lang string, classify bool) {
	label := b.engine.Clean(rawLabel, uri)
	if label == "" {
		return
	}
	b.add(uri, store.SKOSPrefLabel, store.LangLiteral(label, lang))

	if !classify {
		return
	}
	detected, ok := b.tracker.Classify(label)
	if ok && detected == language.English && b.options.EnglishLabels {
		b.add(uri, store.SKOSPrefLabel, store.LangLiteral(label, string(language.English)))
	}
}

func (b *builder) emitDefinition(uri, definition, lang string) {
	if definition == "" {
		return
	}
	if b.checker != nil {
		b.result.Misspellings = append(b.result.Misspellings, b.checker.Check(definition, uri)...)
	}
	b.add(uri, store.SKOSDefinition, store.LangLiteral(definition, lang))
}

// emitVariant adds a variant table's labels to the node the primary row
// produced. Primary rows without a matching variant row are left alone.
func (b *builder) emitVariant(level int, kind NodeKind, row table.Row, variant variantInput) {
	if row.Get(b.fields[level].PrefLabel) == "" {
		return
	}
	slug := row.Get(b.fields[level].Slug)
	if slug == "" {
		return
	}
	uri := NodeURI(b.options.Namespace, slug)
	if _, emitted := b.result.nodes[uri]; !emitted {
		return
	}

	variantRow, ok := variant.row(level, slug, row.Index)
	if !ok {
		return
	}
	fields := variant.fields[level]
	lang := variant.table.Language

	if label := variantRow.Get(fields.PrefLabel); label != "" {
		b.emitPrefLabel(uri, label, lang, false)
		if kind == KindConceptScheme {
			b.add(uri, store.DCTermsTitle, store.LangLiteral(label, lang))
		}
	}
	if kind == KindConceptScheme {
		return
	}
	if definition := variantRow.Get(fields.Definition); definition != "" {
		b.add(uri, store.SKOSDefinition, store.LangLiteral(definition, lang))
	}
	if fields.AltLabel != "" {
		if altLabel := variantRow.Get(fields.AltLabel); altLabel != "" {
			b.add(uri, store.SKOSAltLabel, store.LangLiteral(altLabel, lang))
		}
	}
}
