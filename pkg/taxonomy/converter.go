// Package taxonomy turns a level-structured taxonomy table into a SKOS graph.
package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coolbeans/taxo2rdf/pkg/labels"
	"github.com/coolbeans/taxo2rdf/pkg/language"
	"github.com/coolbeans/taxo2rdf/pkg/spelling"
	"github.com/coolbeans/taxo2rdf/pkg/table"
)

// DateLayout is the layout of dcterms:created values.
const DateLayout = "2006-01-02"

// Options configure a conversion.
type Options struct {
	Namespace       string
	Highest         int
	Lowest          int
	Columns         Columns
	DefaultLanguage string
	Version         string
	Status          string
	// CreationDate is the scheme's dcterms:created value; empty uses the run date.
	CreationDate string
	// EnglishLabels adds an @en prefLabel for labels classified English.
	EnglishLabels bool
}

// Validate checks the options before any input is read.
func (options Options) Validate() error {
	var errs []error
	if options.Namespace == "" {
		errs = append(errs, errors.New("namespace is required"))
	}
	if options.Lowest < options.Highest {
		errs = append(errs, fmt.Errorf("lowest level %d is above highest level %d", options.Lowest, options.Highest))
	}
	if options.DefaultLanguage == "" {
		errs = append(errs, errors.New("default language is required"))
	}
	if options.CreationDate != "" {
		if _, err := time.Parse(DateLayout, options.CreationDate); err != nil {
			errs = append(errs, fmt.Errorf("creation date %q is not YYYY-MM-DD", options.CreationDate))
		}
	}
	return errors.Join(errs...)
}

// Converter builds graphs. It holds no per-run state, so one converter can
// serve several runs.
type Converter struct {
	options    Options
	rules      []labels.Rule
	classifier language.Classifier
	checker    *spelling.Checker
	logger     *slog.Logger
	now        func() time.Time
}

// ConverterOption customizes a Converter.
type ConverterOption func(*Converter)

// WithSpellChecker checks every definition before it is emitted.
func WithSpellChecker(checker *spelling.Checker) ConverterOption {
	return func(converter *Converter) {
		converter.checker = checker
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ConverterOption {
	return func(converter *Converter) {
		if logger != nil {
			converter.logger = logger
		}
	}
}

// WithClock overrides the run date source.
func WithClock(now func() time.Time) ConverterOption {
	return func(converter *Converter) {
		converter.now = now
	}
}

// NewConverter validates options and label rules.
func NewConverter(options Options, rules []labels.Rule, classifier language.Classifier, opts ...ConverterOption) (*Converter, error) {
	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid conversion options: %w", err)
	}
	if classifier == nil {
		return nil, errors.New("a language classifier is required")
	}
	if _, err := labels.NewEngine(rules, nil, nil); err != nil {
		return nil, err
	}

	converter := &Converter{
		options:    options,
		rules:      append([]labels.Rule(nil), rules...),
		classifier: classifier,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(converter)
	}
	return converter, nil
}

// Convert resolves the columns of every level, then emits the graph level by
// level. The primary table provides slugs and structure; each variant table
// adds labels in its own language to the node with the same slug, or to the
// row with the same index when the variant row carries no slug.
func (converter *Converter) Convert(ctx context.Context, primary *table.Table, variants ...*table.Table) (*Result, error) {
	options := converter.options
	result := newResult()

	primaryFields, err := converter.resolveAll(primary, result)
	if err != nil {
		return nil, err
	}

	inputs := make([]variantInput, len(variants))
	for index, variant := range variants {
		if variant.Language == "" {
			return nil, fmt.Errorf("variant input %s has no language", variant.Source)
		}
		fields, err := converter.resolveAll(variant, nil)
		if err != nil {
			return nil, fmt.Errorf("variant input %s: %w", variant.Source, err)
		}
		inputs[index] = newVariantInput(variant, fields)
	}

	engine, err := labels.NewEngine(converter.rules, result.ChangeLog, converter.logger)
	if err != nil {
		return nil, err
	}

	creationDate := options.CreationDate
	if creationDate == "" {
		creationDate = converter.now().Format(DateLayout)
	}

	builder := &builder{
		options:      options,
		creationDate: creationDate,
		store:        result.Store,
		engine:       engine,
		tracker:      language.NewTracker(converter.classifier, result.EnglishLabels, converter.logger),
		checker:      converter.checker,
		fields:       primaryFields,
		result:       result,
		logger:       converter.logger,
	}

	result.TaxoSize = expectedSize(primary, primaryFields, options.Namespace)

	for level := options.Highest; level <= options.Lowest; level++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields := primaryFields[level]
		rows, err := primary.UniqueBy(fields.PrefLabel)
		if err != nil {
			return nil, err
		}

		kind := KindForLevel(level, options.Highest)
		converter.logger.Info("processing level",
			slog.Int("level", level),
			slog.String("kind", kind.String()),
			slog.Int("rows", len(rows)))

		for _, row := range rows {
			builder.emit(level, kind, row)
			for _, variant := range inputs {
				builder.emitVariant(level, kind, row, variant)
			}
		}
	}

	converter.logSummary(result)
	return result, nil
}

// variantInput is a variant table with its resolved fields and, per level,
// the first row carrying each slug.
type variantInput struct {
	table  *table.Table
	fields map[int]LevelFields
	slugs  map[int]map[string]int
}

func newVariantInput(tbl *table.Table, fields map[int]LevelFields) variantInput {
	input := variantInput{
		table:  tbl,
		fields: fields,
		slugs:  make(map[int]map[string]int, len(fields)),
	}
	for level, levelFields := range fields {
		positions := make(map[string]int)
		for _, row := range tbl.Rows() {
			slug := row.Get(levelFields.Slug)
			if _, seen := positions[slug]; slug != "" && !seen {
				positions[slug] = row.Index
			}
		}
		input.slugs[level] = positions
	}
	return input
}

// row finds the variant row for a primary row: the one with the same slug at
// level, else the one at the same index if it has no slug of its own.
func (input variantInput) row(level int, slug string, index int) (table.Row, bool) {
	if position, ok := input.slugs[level][slug]; ok {
		return input.table.Row(position), true
	}
	if index >= input.table.Len() {
		return table.Row{}, false
	}
	candidate := input.table.Row(index)
	if candidate.Get(input.fields[level].Slug) != "" {
		return table.Row{}, false
	}
	return candidate, true
}

func (converter *Converter) resolveAll(tbl *table.Table, result *Result) (map[int]LevelFields, error) {
	fields := make(map[int]LevelFields)
	for level := converter.options.Highest; level <= converter.options.Lowest; level++ {
		resolved, resolution, err := ResolveColumns(tbl, converter.options.Columns, level)
		if err != nil {
			return nil, err
		}
		if resolution == ResolvedRenamed {
			converter.logger.Warn("columns renamed from configured prefixes",
				slog.Int("level", level),
				slog.String("source", tbl.Source))
		}
		if result != nil {
			result.Resolutions[level] = resolution
		}
		fields[level] = resolved
	}
	return fields, nil
}

// expectedSize counts the distinct node IRIs the primary table's non-empty
// slugs map to across all levels.
func expectedSize(primary *table.Table, fields map[int]LevelFields, namespace string) int {
	uris := make(map[string]struct{})
	for _, levelFields := range fields {
		slugs, err := primary.Column(levelFields.Slug)
		if err != nil {
			continue
		}
		for _, slug := range slugs {
			if slug != "" {
				uris[NodeURI(namespace, slug)] = struct{}{}
			}
		}
	}
	return len(uris)
}

func (converter *Converter) logSummary(result *Result) {
	for _, entry := range result.ChangeLog.Entries() {
		converter.logger.Info("labels changed by rule",
			slog.String("rule", entry.Rule),
			slog.Int("count", len(entry.Labels)),
			slog.Any("labels", entry.Labels))
	}

	converter.logger.Info("english labels",
		slog.Int("count", result.EnglishLabels.Len()),
		slog.Any("labels", result.EnglishLabels.Labels()))

	for _, skipped := range result.Skipped {
		converter.logger.Warn("row skipped",
			slog.Int("level", skipped.Level),
			slog.Int("row", skipped.Row),
			slog.String("reason", skipped.Reason))
	}

	converter.logger.Info("graph generated",
		slog.Int("triples", result.Store.Count()),
		slog.Int("taxo_size", result.TaxoSize),
		slog.Int("misspellings", len(result.Misspellings)))
	converter.logger.Debug("store indexes", slog.String("store", result.Store.String()))
}
