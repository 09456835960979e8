package store

import "testing"

func TestTriple_NTriples(t *testing.T) {
	testCases := []struct {
		name     string
		triple   Triple
		expected string
	}{
		{
			name:     "iri object",
			triple:   Triple{testNS + "solar", SKOSBroader, testNS + "energy"},
			expected: "<http://ex.org/solar> <" + SKOSBroader + "> <http://ex.org/energy> .",
		},
		{
			name:     "language literal",
			triple:   Triple{testNS + "solar", SKOSPrefLabel, LangLiteral("Solaire", "FR")},
			expected: "<http://ex.org/solar> <" + SKOSPrefLabel + "> \"Solaire\"@fr .",
		},
		{
			name:     "typed literal",
			triple:   Triple{testNS + "root", DCTermsCreated, TypedLiteral("2024-12-18", XSDDate)},
			expected: "<http://ex.org/root> <" + DCTermsCreated + "> \"2024-12-18\"^^<" + XSDDate + "> .",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.triple.NTriples(); got != testCase.expected {
				t.Errorf("NTriples mismatch:\n got  %s\n want %s", got, testCase.expected)
			}
		})
	}
}

func TestParseTerm(t *testing.T) {
	testCases := []struct {
		name     string
		object   string
		expected Term
	}{
		{"iri", testNS + "solar", Term{Kind: TermIRI, Value: testNS + "solar"}},
		{"plain", PlainLiteral("R1"), Term{Kind: TermLiteral, Value: "R1"}},
		{"language", LangLiteral("Énergie", "fr"), Term{Kind: TermLiteral, Value: "Énergie", Language: "fr"}},
		{"empty language is plain", LangLiteral("x", ""), Term{Kind: TermLiteral, Value: "x"}},
		{"typed", TypedLiteral("2024-12-18", XSDDate), Term{Kind: TermLiteral, Value: "2024-12-18", Datatype: XSDDate}},
		{"escaped quotes", LangLiteral(`say "hi"`, "en"), Term{Kind: TermLiteral, Value: `say "hi"`, Language: "en"}},
		{"escaped newline", PlainLiteral("a\nb\\c"), Term{Kind: TermLiteral, Value: "a\nb\\c"}},
		{"quote with at sign", PlainLiteral(`x"@en`), Term{Kind: TermLiteral, Value: `x"@en`}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := ParseTerm(testCase.object); got != testCase.expected {
				t.Errorf("ParseTerm(%q) = %+v, want %+v", testCase.object, got, testCase.expected)
			}
		})
	}
}
