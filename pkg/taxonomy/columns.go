package taxonomy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/coolbeans/taxo2rdf/pkg/table"
)

// ErrColumnsUnresolved is returned when a level's columns are still missing
// after renaming from the configured prefixes.
var ErrColumnsUnresolved = errors.New("taxonomy columns unresolved")

// Canonical column name prefixes; the level number follows directly.
const (
	CanonicalSlug       = "Slug Catégorie L"
	CanonicalPrefLabel  = "Titre Catégorie L"
	CanonicalDefinition = "Description Catégorie L"
	CanonicalAltLabel   = "Autre Titre Catégorie L"
	CanonicalPopTitle   = "Titre Populaire Catégorie L"
	CanonicalIdentifier = "ID catégorie L"
)

// Columns holds the spreadsheet column prefixes of one input layout. Each
// prefix is followed by the level number in the sheet header. An empty prefix
// means the sheet already uses the canonical name for that field.
type Columns struct {
	Slug       string `yaml:"slug" json:"slug"`
	PrefLabel  string `yaml:"pref_label" json:"pref_label"`
	Definition string `yaml:"definition" json:"definition"`
	AltLabel   string `yaml:"alt_label" json:"alt_label"`
	PopTitle   string `yaml:"pop_title" json:"pop_title"`
	Identifier string `yaml:"identifier" json:"identifier"`
}

// LevelFields names the resolved columns of one level. AltLabel and PopTitle
// are empty when the table has no such column.
type LevelFields struct {
	Level      int
	Slug       string
	PrefLabel  string
	Definition string
	AltLabel   string
	PopTitle   string
	Identifier string
}

// CanonicalFields returns the canonical column names for level.
func CanonicalFields(level int) LevelFields {
	suffix := strconv.Itoa(level)
	return LevelFields{
		Level:      level,
		Slug:       CanonicalSlug + suffix,
		PrefLabel:  CanonicalPrefLabel + suffix,
		Definition: CanonicalDefinition + suffix,
		AltLabel:   CanonicalAltLabel + suffix,
		PopTitle:   CanonicalPopTitle + suffix,
		Identifier: CanonicalIdentifier + suffix,
	}
}

// Resolution tells how a level's columns were found.
type Resolution int

const (
	// ResolvedDirect means the canonical names were already present.
	ResolvedDirect Resolution = iota
	// ResolvedRenamed means the columns were renamed from configured prefixes.
	ResolvedRenamed
)

func (resolution Resolution) String() string {
	switch resolution {
	case ResolvedDirect:
		return "direct"
	case ResolvedRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ResolveColumns checks that the table carries the required columns of level
// under their canonical names. When some are missing, columns named after the
// configured prefixes are renamed in place and the check runs once more.
func ResolveColumns(tbl *table.Table, columns Columns, level int) (LevelFields, Resolution, error) {
	canonical := CanonicalFields(level)

	if missing := missingColumns(tbl, canonical); len(missing) == 0 {
		return withOptional(tbl, canonical), ResolvedDirect, nil
	}

	suffix := strconv.Itoa(level)
	renames := make(map[string]string)
	for _, pair := range []struct{ prefix, target string }{
		{columns.Slug, canonical.Slug},
		{columns.PrefLabel, canonical.PrefLabel},
		{columns.Definition, canonical.Definition},
		{columns.AltLabel, canonical.AltLabel},
		{columns.PopTitle, canonical.PopTitle},
		{columns.Identifier, canonical.Identifier},
	} {
		if pair.prefix == "" {
			continue
		}
		renames[pair.prefix+suffix] = pair.target
	}
	tbl.RenameColumns(renames)

	if missing := missingColumns(tbl, canonical); len(missing) > 0 {
		return LevelFields{}, ResolvedRenamed, fmt.Errorf("%w: level %d is missing %s",
			ErrColumnsUnresolved, level, strings.Join(missing, ", "))
	}
	return withOptional(tbl, canonical), ResolvedRenamed, nil
}

func missingColumns(tbl *table.Table, fields LevelFields) []string {
	var missing []string
	for _, column := range []string{fields.Slug, fields.PrefLabel, fields.Definition, fields.Identifier} {
		if !tbl.HasColumn(column) {
			missing = append(missing, strconv.Quote(column))
		}
	}
	return missing
}

func withOptional(tbl *table.Table, fields LevelFields) LevelFields {
	if !tbl.HasColumn(fields.AltLabel) {
		fields.AltLabel = ""
	}
	if !tbl.HasColumn(fields.PopTitle) {
		fields.PopTitle = ""
	}
	return fields
}
