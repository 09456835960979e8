package labels

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRules() []Rule {
	return []Rule{
		{Name: "underscores", From: "_", To: " "},
		{Name: "apostrophes", From: "’‘", To: "'"},
		{Name: "separators", From: "/|", To: " - ", Exceptions: []string{"Entrée/Sortie"}},
	}
}

func TestEngine_Clean(t *testing.T) {
	engine, err := NewEngine(sampleRules(), nil, nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		label    string
		expected string
	}{
		{"untouched", "Énergie", "Énergie"},
		{"capitalizes first rune only", "énergie solaire", "Énergie solaire"},
		{"replaces every match", "energie_solaire_passive", "Energie solaire passive"},
		{"multi-rune class", "l’eau et l‘air", "L'eau et l'air"},
		{"replacement may be longer", "chaud/froid", "Chaud - froid"},
		{"exception kept by that rule", "Entrée/Sortie", "Entrée/Sortie"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.Clean(tt.label, "http://ex.org/x"))
		})
	}
}

func TestEngine_CleanIsStableAfterOnePass(t *testing.T) {
	engine, err := NewEngine(sampleRules(), nil, nil)
	require.NoError(t, err)

	for _, label := range []string{"a_b/c", "l’énergie_x", "Entrée/Sortie", "déjà propre", "x|y_z"} {
		once := engine.Clean(label, "")
		assert.Equal(t, once, engine.Clean(once, ""), "second pass changed %q", label)
	}
}

func TestEngine_LowercaseExceptionIsStable(t *testing.T) {
	rules := []Rule{{Name: "slash", From: "/", To: " - ", Exceptions: []string{"entrée/sortie"}}}
	engine, err := NewEngine(rules, nil, nil)
	require.NoError(t, err)

	once := engine.Clean("entrée/sortie", "")
	assert.Equal(t, "Entrée/sortie", once)
	assert.Equal(t, once, engine.Clean(once, ""))
	assert.Empty(t, engine.ChangeLog().Changes("slash"))

	assert.Equal(t, "Lecture - écriture", engine.Clean("lecture/écriture", ""))
}

func TestEngine_Cascade(t *testing.T) {
	rules := []Rule{
		{Name: "dash", From: "-", To: "_"},
		{Name: "underscore", From: "_", To: " "},
	}
	engine, err := NewEngine(rules, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "Bas carbone", engine.Clean("bas-carbone", ""))

	changes := engine.ChangeLog()
	assert.Equal(t, []string{"bas-carbone"}, changes.Changes("dash"))
	// The second rule records the label as it looked before it ran.
	assert.Equal(t, []string{"bas_carbone"}, changes.Changes("underscore"))
}

func TestEngine_ExceptionOnlyAppliesToItsRule(t *testing.T) {
	rules := []Rule{
		{Name: "slash", From: "/", To: "-", Exceptions: []string{"a/b_c"}},
		{Name: "underscore", From: "_", To: " "},
	}
	engine, err := NewEngine(rules, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "A/b c", engine.Clean("a/b_c", ""))
	assert.Empty(t, engine.ChangeLog().Changes("slash"))
	assert.Equal(t, []string{"a/b_c"}, engine.ChangeLog().Changes("underscore"))
}

func TestEngine_SpecialCharactersAreLiteral(t *testing.T) {
	rules := []Rule{{Name: "brackets", From: "[]^-\\.", To: ""}}
	engine, err := NewEngine(rules, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "Abcdef", engine.Clean("a[b]c^d-e\\.f", ""))
	assert.Equal(t, "Plain", engine.Clean("plain", ""))
}

func TestChangeLog_EntriesInDeclarationOrder(t *testing.T) {
	changes := NewChangeLog()
	engine, err := NewEngine(sampleRules(), changes, nil)
	require.NoError(t, err)

	engine.Clean("a_b", "")
	engine.Clean("c_d", "")
	engine.Clean("e/f", "")

	entries := changes.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "underscores", entries[0].Rule)
	assert.Equal(t, []string{"a_b", "c_d"}, entries[0].Labels)
	assert.Equal(t, "apostrophes", entries[1].Rule)
	assert.Empty(t, entries[1].Labels)
	assert.Equal(t, []string{"e/f"}, entries[2].Labels)
	assert.Equal(t, 3, changes.Total())
}

func TestNewEngine_InvalidRules(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
	}{
		{"empty from", []Rule{{Name: "r", From: "", To: "x"}}},
		{"missing name", []Rule{{From: "_", To: " "}}},
		{"duplicate name", []Rule{{Name: "r", From: "_"}, {Name: "r", From: "-"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.rules, nil, nil)
			assert.True(t, errors.Is(err, ErrInvalidRule), "got %v", err)
		})
	}
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "École", Capitalize("école"))
	assert.Equal(t, "ABC", Capitalize("ABC"))
	assert.Equal(t, "1st", Capitalize("1st"))
	assert.Equal(t, "", Capitalize(""))
}
