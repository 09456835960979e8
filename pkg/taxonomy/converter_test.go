package taxonomy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/taxo2rdf/pkg/labels"
	"github.com/coolbeans/taxo2rdf/pkg/spelling"
	"github.com/coolbeans/taxo2rdf/pkg/store"
	"github.com/coolbeans/taxo2rdf/pkg/table"
)

func convert(t *testing.T, options Options, rules []labels.Rule, tbl *table.Table, opts ...ConverterOption) *Result {
	t.Helper()

	converter, err := NewConverter(options, rules, englishWords("energy"), opts...)
	require.NoError(t, err)

	result, err := converter.Convert(context.Background(), tbl)
	require.NoError(t, err)
	return result
}

func TestConvert_EndToEnd(t *testing.T) {
	result := convert(t, testOptions(), nil, energyTable())
	graph := result.Store

	root := testNamespace + "root"
	energy := testNamespace + "energy"
	solar := testNamespace + "solar"

	assert.True(t, graph.Exists(root, store.RDFType, store.SKOSConceptScheme))
	assert.True(t, graph.Exists(root, store.DCTermsIdentifier, store.PlainLiteral("R1")))
	assert.True(t, graph.Exists(root, store.DCTermsCreated, store.TypedLiteral("2024-12-18", store.XSDDate)))
	assert.True(t, graph.Exists(root, store.DCTermsTitle, store.LangLiteral("Root", "fr")))
	assert.True(t, graph.Exists(root, store.SKOSHasTopConcept, energy))

	assert.True(t, graph.Exists(energy, store.RDFType, store.SKOSConcept))
	assert.True(t, graph.Exists(energy, store.SKOSTopConceptOf, root))
	assert.True(t, graph.Exists(energy, store.SKOSInScheme, root))
	assert.True(t, graph.Exists(energy, store.EuroVocStatus, store.StatusIRI("CURRENT")))
	assert.True(t, graph.Exists(energy, store.SKOSDefinition, store.LangLiteral("Energy sources", "fr")))
	assert.False(t, graph.Exists(energy, store.SKOSBroader, root))

	assert.True(t, graph.Exists(solar, store.RDFType, store.SKOSConcept))
	assert.True(t, graph.Exists(solar, store.SKOSBroader, energy))
	assert.True(t, graph.Exists(solar, store.SKOSInScheme, root))
	assert.True(t, graph.Exists(solar, store.SKOSPrefLabel, store.LangLiteral("Solar", "fr")))
	assert.True(t, graph.Exists(solar, store.OWLVersionInfo, store.PlainLiteral("0.0.1")))
	assert.True(t, graph.Exists(solar, store.DCTermsIdentifier, store.PlainLiteral("S1")))

	assert.Equal(t, 1, result.NodesByKind[KindConceptScheme])
	assert.Equal(t, 1, result.NodesByKind[KindTopConcept])
	assert.Equal(t, 1, result.NodesByKind[KindConcept])
	assert.Equal(t, 3, result.TaxoSize)
	assert.Empty(t, result.Skipped)
}

func TestConvert_ExactlyOneHierarchyLink(t *testing.T) {
	tbl := newTaxonomyTable(
		taxonomyRow{{"root", "Root", "", "R1"}, {"energy", "Energy", "d", "E1"}, {"solar", "Solar", "d", "S1"}},
		taxonomyRow{{"root", "Root", "", "R1"}, {"energy", "Energy", "d", "E1"}, {"wind", "Wind", "d", "W1"}},
		taxonomyRow{{"root", "Root", "", "R1"}, {"water", "Water", "d", "A1"}, {"hydro", "Hydro", "d", "H1"}},
	)
	result := convert(t, testOptions(), nil, tbl)

	concepts := result.Store.SubjectsOfType(store.SKOSConcept)
	require.Len(t, concepts, 5)

	for _, concept := range concepts {
		broader := len(result.Store.Find(concept, store.SKOSBroader, ""))
		topConceptOf := len(result.Store.Find(concept, store.SKOSTopConceptOf, ""))
		assert.Equal(t, 1, broader+topConceptOf, "%s has %d broader and %d topConceptOf", concept, broader, topConceptOf)
	}
}

func TestConvert_DeduplicatesByLabel(t *testing.T) {
	tbl := newTaxonomyTable(
		taxonomyRow{{"root", "Root", "", "R1"}, {"energy", "Energy", "first", "E1"}, {"solar", "Solar", "d", "S1"}},
		taxonomyRow{{"root", "Root", "", "R1"}, {"energy-bis", "Energy", "second", "E2"}, {"wind", "Wind", "d", "W1"}},
	)
	result := convert(t, testOptions(), nil, tbl)

	assert.True(t, result.Store.Exists(testNamespace+"energy", store.RDFType, store.SKOSConcept))
	assert.False(t, result.Store.Exists(testNamespace+"energy-bis", store.RDFType, store.SKOSConcept))
	assert.Len(t, result.Store.Find("", store.SKOSHasTopConcept, ""), 1)

	// The collapsed slug still counts towards the expected size.
	assert.Equal(t, 5, result.TaxoSize)
	assert.Equal(t, 4, result.NodeCount())
}

func TestConvert_EnglishLabels(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		options := testOptions()
		options.EnglishLabels = enabled

		result := convert(t, options, nil, energyTable())

		assert.True(t, result.EnglishLabels.Contains("Energy"), "english set is filled regardless of the flag")
		assert.False(t, result.EnglishLabels.Contains("Solar"))
		assert.Equal(t, enabled,
			result.Store.Exists(testNamespace+"energy", store.SKOSPrefLabel, store.LangLiteral("Energy", "en")),
			"english prefLabel present iff enabled=%v", enabled)
		assert.False(t, result.Store.Exists(testNamespace+"solar", store.SKOSPrefLabel, store.LangLiteral("Solar", "en")))
	}
}

func TestConvert_AppliesLabelRules(t *testing.T) {
	tbl := newTaxonomyTable(
		taxonomyRow{{"root", "Root", "", "R1"}, {"energy", "énergie_verte", "d", "E1"}, {"solar", "solaire/thermique", "d", "S1"}},
	)
	rules := []labels.Rule{
		{Name: "underscore", From: "_", To: " "},
		{Name: "slash", From: "/", To: " "},
	}

	result := convert(t, testOptions(), rules, tbl)

	assert.True(t, result.Store.Exists(testNamespace+"energy", store.SKOSPrefLabel, store.LangLiteral("Énergie verte", "fr")))
	assert.True(t, result.Store.Exists(testNamespace+"solar", store.SKOSPrefLabel, store.LangLiteral("Solaire thermique", "fr")))
	assert.Equal(t, []string{"énergie_verte"}, result.ChangeLog.Changes("underscore"))
	assert.Equal(t, []string{"solaire/thermique"}, result.ChangeLog.Changes("slash"))
}

func TestConvert_SkipsEmptyFields(t *testing.T) {
	tbl := newTaxonomyTable(
		taxonomyRow{{"root", "Root", "", "R1"}, {"energy", "Energy", "", ""}, {"", "Orphan", "d", "O1"}},
		taxonomyRow{{"root", "Root", "", "R1"}, {"energy", "Energy", "", ""}, {"ghost", "", "d", "G1"}},
	)
	result := convert(t, testOptions(), nil, tbl)

	energy := testNamespace + "energy"
	assert.Empty(t, result.Store.Find(energy, store.SKOSDefinition, ""), "empty definition is omitted")
	assert.Empty(t, result.Store.Find(energy, store.DCTermsIdentifier, ""), "empty identifier is omitted")
	assert.False(t, result.Store.Exists(testNamespace+"ghost", store.RDFType, store.SKOSConcept))

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, SkippedRow{Level: 3, Row: 0, Reason: "empty slug"}, result.Skipped[0])
}

func TestConvert_OptionalColumns(t *testing.T) {
	headers := append(canonicalHeaders(1, 2), "Autre Titre Catégorie L2", "Titre Populaire Catégorie L2")
	tbl := table.New(headers, [][]string{
		{"root", "Root", "", "R1", "energy", "Energy", "d", "E1", "Power", "Popular energy"},
	})
	options := testOptions()
	options.Lowest = 2

	result := convert(t, options, nil, tbl)

	energy := testNamespace + "energy"
	assert.True(t, result.Store.Exists(energy, store.SKOSAltLabel, store.LangLiteral("Power", "fr")))
	assert.True(t, result.Store.Exists(energy, store.DCTermsTitle, store.LangLiteral("Popular energy", "fr")))
}

func TestConvert_RenamesColumnsOnce(t *testing.T) {
	headers := []string{"Concept 1", "Label 1", "Def 1", "Id 1", "Concept 2", "Label 2", "Def 2", "Id 2"}
	tbl := table.New(headers, [][]string{{"root", "Root", "", "R1", "energy", "Energy", "d", "E1"}})
	options := testOptions()
	options.Lowest = 2
	options.Columns = Columns{Slug: "Concept ", PrefLabel: "Label ", Definition: "Def ", Identifier: "Id "}

	result := convert(t, options, nil, tbl)

	assert.Equal(t, ResolvedRenamed, result.Resolutions[1])
	assert.Equal(t, ResolvedRenamed, result.Resolutions[2])
	assert.True(t, result.Store.Exists(testNamespace+"energy", store.SKOSTopConceptOf, testNamespace+"root"))
}

func TestConvert_UnresolvedColumnsAbortBeforeOutput(t *testing.T) {
	tbl := table.New(canonicalHeaders(1, 2), [][]string{{"root", "Root", "", "R1", "energy", "Energy", "d", "E1"}})

	converter, err := NewConverter(testOptions(), nil, englishWords())
	require.NoError(t, err)

	result, err := converter.Convert(context.Background(), tbl)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrColumnsUnresolved), "got %v", err)
}

func TestConvert_VariantTables(t *testing.T) {
	english := newTaxonomyTable(
		taxonomyRow{{"", "Root EN", "", ""}, {"", "Energy", "Energy sources", ""}, {"", "Solar", "Sun power", ""}},
	)
	english.Language = "en"
	english.Source = "taxo_en.xlsx"

	converter, err := NewConverter(testOptions(), nil, englishWords())
	require.NoError(t, err)

	french := newTaxonomyTable(
		taxonomyRow{{"root", "Racine", "", "R1"}, {"energy", "Énergie", "Sources", "E1"}, {"solar", "Solaire", "Soleil", "S1"}},
	)
	result, err := converter.Convert(context.Background(), french, english)
	require.NoError(t, err)

	solar := testNamespace + "solar"
	assert.True(t, result.Store.Exists(solar, store.SKOSPrefLabel, store.LangLiteral("Solaire", "fr")))
	assert.True(t, result.Store.Exists(solar, store.SKOSPrefLabel, store.LangLiteral("Solar", "en")))
	assert.True(t, result.Store.Exists(solar, store.SKOSDefinition, store.LangLiteral("Sun power", "en")))
	assert.True(t, result.Store.Exists(testNamespace+"root", store.DCTermsTitle, store.LangLiteral("Root EN", "en")))
	assert.Equal(t, 3, result.NodeCount())
}

func TestConvert_VariantMatchedBySlug(t *testing.T) {
	french := newTaxonomyTable(
		taxonomyRow{{"root", "Racine", "", "R1"}, {"energy", "Énergie", "Sources", "E1"}, {"solar", "Solaire", "Soleil", "S1"}},
		taxonomyRow{{"root", "Racine", "", "R1"}, {"energy", "Énergie", "Sources", "E1"}, {"wind", "Éolien", "Vent", "W1"}},
	)
	// The English sheet has a blank row the French one lacks, and a row
	// whose slug is unknown to the primary table.
	english := newTaxonomyTable(
		taxonomyRow{},
		taxonomyRow{{"root", "Root", "", ""}, {"energy", "Energy", "Energy sources", ""}, {"solar", "Solar", "Sun power", ""}},
		taxonomyRow{{"root", "Root", "", ""}, {"energy", "Energy", "Energy sources", ""}, {"wind", "Wind", "Wind power", ""}},
	)
	english.Language = "en"

	converter, err := NewConverter(testOptions(), nil, englishWords())
	require.NoError(t, err)

	result, err := converter.Convert(context.Background(), french, english)
	require.NoError(t, err)

	solar, wind := testNamespace+"solar", testNamespace+"wind"
	assert.Equal(t, []store.Term{{Kind: store.TermLiteral, Value: "Solar", Language: "en"}},
		englishLiterals(result.Store, solar, store.SKOSPrefLabel))
	assert.Equal(t, []store.Term{{Kind: store.TermLiteral, Value: "Wind", Language: "en"}},
		englishLiterals(result.Store, wind, store.SKOSPrefLabel))
	assert.True(t, result.Store.Exists(wind, store.SKOSDefinition, store.LangLiteral("Wind power", "en")))
	assert.True(t, result.Store.Exists(testNamespace+"energy", store.SKOSPrefLabel, store.LangLiteral("Energy", "en")))
}

func TestConvert_VariantWithOtherSlugAtSameIndex(t *testing.T) {
	english := newTaxonomyTable(
		taxonomyRow{{"root", "Root", "", ""}, {"energy", "Energy", "", ""}, {"hydro", "Hydro", "", ""}},
	)
	english.Language = "en"

	converter, err := NewConverter(testOptions(), nil, englishWords())
	require.NoError(t, err)

	result, err := converter.Convert(context.Background(), energyTable(), english)
	require.NoError(t, err)

	assert.Empty(t, englishLiterals(result.Store, testNamespace+"solar", store.SKOSPrefLabel))
	assert.Len(t, englishLiterals(result.Store, testNamespace+"energy", store.SKOSPrefLabel), 1)
}

func TestConvert_VariantWithoutLanguage(t *testing.T) {
	variant := energyTable()
	variant.Language = ""

	converter, err := NewConverter(testOptions(), nil, englishWords())
	require.NoError(t, err)

	_, err = converter.Convert(context.Background(), energyTable(), variant)
	assert.Error(t, err)
}

func TestConvert_SpellCheck(t *testing.T) {
	checker := spelling.NewChecker(nil, spelling.NewDictionary("en", "energy", "sources", "power", "from", "the", "sun"))

	result := convert(t, testOptions(), nil, newTaxonomyTable(
		taxonomyRow{{"root", "Root", "", "R1"}, {"energy", "Energy", "Energy sourcse", "E1"}, {"solar", "Solar", "Power from the sun", "S1"}},
	), WithSpellChecker(checker))

	require.Len(t, result.Misspellings, 1)
	assert.Equal(t, "sourcse", result.Misspellings[0].Word)
	assert.Equal(t, testNamespace+"energy", result.Misspellings[0].Subject)
	assert.True(t, result.Store.Exists(testNamespace+"energy", store.SKOSDefinition, store.LangLiteral("Energy sourcse", "fr")),
		"misspelled definitions are still emitted")
}

func TestConvert_DefaultCreationDate(t *testing.T) {
	options := testOptions()
	options.CreationDate = ""
	clock := func() time.Time { return time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC) }

	result := convert(t, options, nil, energyTable(), WithClock(clock))

	assert.True(t, result.Store.Exists(testNamespace+"root", store.DCTermsCreated, store.TypedLiteral("2025-03-04", store.XSDDate)))
}

func TestConvert_CanceledContext(t *testing.T) {
	converter, err := NewConverter(testOptions(), nil, englishWords())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = converter.Convert(ctx, energyTable())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewConverter_Validation(t *testing.T) {
	options := testOptions()
	options.Namespace = ""
	options.Lowest = 0
	options.CreationDate = "18/12/2024"

	_, err := NewConverter(options, nil, englishWords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "namespace is required")
	assert.Contains(t, err.Error(), "lowest level")
	assert.Contains(t, err.Error(), "creation date")

	_, err = NewConverter(testOptions(), []labels.Rule{{Name: "bad"}}, englishWords())
	assert.True(t, errors.Is(err, labels.ErrInvalidRule))

	_, err = NewConverter(testOptions(), nil, nil)
	assert.Error(t, err)
}
