// Package pipeline runs one complete taxonomy conversion: read the inputs,
// build the graph, write it, validate it and record the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/coolbeans/taxo2rdf/pkg/config"
	"github.com/coolbeans/taxo2rdf/pkg/language"
	"github.com/coolbeans/taxo2rdf/pkg/metrics"
	"github.com/coolbeans/taxo2rdf/pkg/spelling"
	"github.com/coolbeans/taxo2rdf/pkg/store"
	"github.com/coolbeans/taxo2rdf/pkg/table"
	"github.com/coolbeans/taxo2rdf/pkg/taxonomy"
	"github.com/coolbeans/taxo2rdf/pkg/validate"
)

// ErrNoPrimaryInput is returned when no input carries the slug language.
var ErrNoPrimaryInput = errors.New("no input in the slug language")

// Outcome is what one run produced.
type Outcome struct {
	Result          *taxonomy.Result
	Format          store.Format
	OutputPath      string
	GraphExportPath string
	Report          *validate.Report
	ReportPath      string
	Duration        time.Duration
}

// Pipeline holds everything that outlives a single run.
type Pipeline struct {
	cfg        *config.Config
	format     store.Format
	converter  *taxonomy.Converter
	validator  *validate.Validator
	metrics    *metrics.Metrics
	logger     *slog.Logger
	classifier language.Classifier
	httpClient validate.HTTPClient
	now        func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClassifier replaces the statistical language classifier.
func WithClassifier(classifier language.Classifier) Option {
	return func(p *Pipeline) {
		p.classifier = classifier
	}
}

// WithMetrics records every run on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithHTTPClient sets the client used to reach the shape validator.
func WithHTTPClient(client validate.HTTPClient) Option {
	return func(p *Pipeline) {
		p.httpClient = client
	}
}

// WithClock overrides the run date source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New validates cfg and prepares the converter and validator.
func New(cfg *config.Config, options ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p := &Pipeline{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, option := range options {
		option(p)
	}

	format, err := cfg.OutputFormat()
	if err != nil {
		return nil, err
	}
	p.format = format

	if p.classifier == nil {
		p.classifier = language.NewDetectorClassifier()
	}

	converterOptions := []taxonomy.ConverterOption{
		taxonomy.WithLogger(p.logger),
		taxonomy.WithClock(p.now),
	}
	if cfg.Spelling.Enabled {
		checker, err := loadChecker(cfg.Spelling.Dictionaries, p.logger)
		if err != nil {
			return nil, err
		}
		converterOptions = append(converterOptions, taxonomy.WithSpellChecker(checker))
	}

	p.converter, err = taxonomy.NewConverter(cfg.TaxonomyOptions(), cfg.Labels.Rules, p.classifier, converterOptions...)
	if err != nil {
		return nil, err
	}

	var shape *validate.ShapeValidator
	if cfg.Validation.Enabled {
		shape = validate.NewShapeValidator(cfg.Validation.Server, cfg.Validation.Version,
			validate.WithHTTPClient(p.httpClient),
			validate.WithTimeout(cfg.Validation.Timeout),
			validate.WithRetries(cfg.Validation.MaxRetries, 0),
			validate.WithConformsKey(cfg.Validation.ConformsKey),
			validate.WithShapeLogger(p.logger))
	}
	p.validator = validate.NewValidator(shape, p.logger)

	return p, nil
}

func loadChecker(paths map[string]string, logger *slog.Logger) (*spelling.Checker, error) {
	languages := make([]string, 0, len(paths))
	for lang := range paths {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	dictionaries := make([]*spelling.Dictionary, 0, len(languages))
	for _, lang := range languages {
		dictionary, err := spelling.LoadDictionary(lang, paths[lang])
		if err != nil {
			return nil, err
		}
		logger.Debug("dictionary loaded", slog.String("language", lang), slog.Int("words", dictionary.Len()))
		dictionaries = append(dictionaries, dictionary)
	}
	return spelling.NewChecker(logger, dictionaries...), nil
}

// InputPaths returns the files and folders a run reads, for watching.
func (p *Pipeline) InputPaths() []string {
	paths := make([]string, 0, len(p.cfg.Input.Files)+1)
	for _, file := range p.cfg.Input.Files {
		paths = append(paths, file.Path)
	}
	if p.cfg.Input.Folder != "" {
		paths = append(paths, p.cfg.Input.Folder)
	}
	return paths
}

// LoadInputs reads every input and splits them into the primary table, in
// the slug language, and the per-language variants.
func (p *Pipeline) LoadInputs() (*table.Table, []*table.Table, error) {
	input := p.cfg.Input
	var tables []*table.Table

	for _, file := range input.Files {
		tbl, err := table.ReadFile(file.Path, table.ReadOptions{Sheet: input.Sheet, Language: file.Language})
		if err != nil {
			return nil, nil, err
		}
		tables = append(tables, tbl)
	}

	if input.Folder != "" {
		folderTables, err := table.ReadFolder(input.Folder, table.ReadOptions{Sheet: input.Sheet, Language: input.FolderLanguage})
		if err != nil {
			return nil, nil, err
		}
		for _, tbl := range folderTables {
			if lang := LanguageFromName(tbl.Source); lang != "" {
				tbl.Language = lang
			}
			tables = append(tables, tbl)
		}
	}

	var primary *table.Table
	var variants []*table.Table
	for _, tbl := range tables {
		if primary == nil && strings.EqualFold(tbl.Language, input.SlugLanguage) {
			primary = tbl
			continue
		}
		variants = append(variants, tbl)
	}
	if primary == nil {
		return nil, nil, fmt.Errorf("%w %q", ErrNoPrimaryInput, input.SlugLanguage)
	}

	p.logger.Info("inputs loaded",
		slog.String("primary", primary.Source),
		slog.Int("rows", primary.Len()),
		slog.Int("variants", len(variants)))
	return primary, variants, nil
}

// LanguageFromName reads a two-letter language suffix from a file name:
// taxonomy_en.xlsx is English. It returns "" when there is none.
func LanguageFromName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	cut := strings.LastIndexAny(name, "_-.")
	if cut < 0 {
		return ""
	}
	suffix := strings.ToLower(name[cut+1:])
	if len(suffix) != 2 {
		return ""
	}
	for _, char := range suffix {
		if char < 'a' || char > 'z' {
			return ""
		}
	}
	return suffix
}

// Run performs one conversion. The graph file is written before validation,
// and validation problems never turn into an error.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	started := p.now()
	outcome, err := p.run(ctx, started)
	if p.metrics != nil {
		status := "error"
		if err == nil {
			status = string(outcome.Report.Status)
		}
		p.metrics.ObserveRun(status, started, p.now())
		if p.cfg.Metrics.Textfile != "" {
			if writeErr := p.metrics.WriteTextfile(p.cfg.Metrics.Textfile); writeErr != nil {
				p.logger.Warn("metrics not written", slog.Any("error", writeErr))
			}
		}
	}
	return outcome, err
}

func (p *Pipeline) run(ctx context.Context, started time.Time) (*Outcome, error) {
	primary, variants, err := p.LoadInputs()
	if err != nil {
		return nil, err
	}

	result, err := p.converter.Convert(ctx, primary, variants...)
	if err != nil {
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.ObserveConversion(result)
	}

	outcome := &Outcome{
		Result:     result,
		Format:     p.format,
		OutputPath: p.cfg.OutputPath(started),
	}

	content, err := store.Serialize(result.Store, p.format, store.SerializeOptions{
		Prefixes:     p.cfg.Prefixes(),
		ExpandJSONLD: p.cfg.Output.JSONLDExpanded,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize graph: %w", err)
	}
	if err := writeFile(outcome.OutputPath, []byte(content)); err != nil {
		return nil, fmt.Errorf("failed to write graph: %w", err)
	}
	p.logger.Info("graph written",
		slog.String("path", outcome.OutputPath),
		slog.String("format", string(p.format)),
		slog.Int("triples", result.Store.Count()))

	if path := p.cfg.Output.GraphExport; path != "" {
		data, err := exportGraph(result.Store, path)
		if err != nil {
			return nil, fmt.Errorf("failed to export graph: %w", err)
		}
		if err := writeFile(path, data); err != nil {
			return nil, fmt.Errorf("failed to write graph export: %w", err)
		}
		outcome.GraphExportPath = path
	}

	outcome.Report = p.validator.Run(ctx, validate.Input{
		Graph:        result.Store,
		ExpectedSize: result.TaxoSize,
		CheckSize:    true,
		Content:      content,
		Format:       p.format,
		Source:       outcome.OutputPath,
	})
	if p.metrics != nil {
		p.metrics.ObserveValidation(outcome.Report)
	}

	if path := p.cfg.Output.Report; path != "" {
		if err := WriteReport(outcome.Report, path); err != nil {
			return nil, err
		}
		outcome.ReportPath = path
	}

	outcome.Duration = p.now().Sub(started)
	return outcome, nil
}

// exportGraph renders the node/edge export as Graphviz DOT when the path ends
// in .dot, JSON otherwise.
func exportGraph(graph *store.TripleStore, path string) ([]byte, error) {
	export := store.ExportGraph(graph)
	if strings.EqualFold(filepath.Ext(path), ".dot") {
		return []byte(export.ToDOT()), nil
	}
	return export.ToJSON()
}

// WriteReport writes the report as JSON for a .json path and Markdown
// otherwise.
func WriteReport(report *validate.Report, path string) error {
	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".json") {
		encoded, err := report.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		data = encoded
	} else {
		data = []byte(report.ToMarkdown())
	}

	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
