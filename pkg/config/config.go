// Package config provides configuration loading for taxo2rdf.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/taxo2rdf/pkg/labels"
	"github.com/coolbeans/taxo2rdf/pkg/store"
	"github.com/coolbeans/taxo2rdf/pkg/taxonomy"
)

// DefaultConfigFile is the file looked up when no --config flag is given.
const DefaultConfigFile = "taxo2rdf.yaml"

// Config represents the complete taxo2rdf configuration
type Config struct {
	Input      InputConfig      `yaml:"input"`
	Levels     LevelsConfig     `yaml:"levels"`
	Columns    taxonomy.Columns `yaml:"columns"`
	Namespace  NamespaceConfig  `yaml:"namespace"`
	Defaults   DefaultsConfig   `yaml:"defaults"`
	Labels     LabelsConfig     `yaml:"labels"`
	Spelling   SpellingConfig   `yaml:"spelling"`
	Output     OutputConfig     `yaml:"output"`
	Validation ValidationConfig `yaml:"validation"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// InputFile is one spreadsheet and the language of its text columns.
type InputFile struct {
	Path     string `yaml:"path"`
	Language string `yaml:"language"`
}

// InputConfig configures where the taxonomy tables come from
type InputConfig struct {
	Files []InputFile `yaml:"files"`
	// Folder is read in lexical order; every file gets FolderLanguage.
	Folder         string `yaml:"folder"`
	FolderLanguage string `yaml:"folder_language"`
	// Sheet selects a workbook sheet (default: first non-metadata sheet)
	Sheet string `yaml:"sheet"`
	// SlugLanguage is the language of the table that provides slugs and structure
	SlugLanguage string `yaml:"slug_language"`
}

// LevelsConfig bounds the taxonomy levels to convert
type LevelsConfig struct {
	Highest int `yaml:"highest"`
	Lowest  int `yaml:"lowest"`
}

// NamespaceConfig configures the IRIs minted for concepts
type NamespaceConfig struct {
	URI    string `yaml:"uri"`
	Prefix string `yaml:"prefix"`
}

// DefaultsConfig holds the values stamped on every node
type DefaultsConfig struct {
	Language string `yaml:"language"`
	Version  string `yaml:"version"`
	Status   string `yaml:"status"`
	// CreationDate is YYYY-MM-DD; empty uses the run date
	CreationDate string `yaml:"creation_date"`
}

// LabelsConfig configures label cleaning
type LabelsConfig struct {
	EnglishLabels bool     `yaml:"english_labels"`
	Rules         RuleList `yaml:"rules"`
}

// SpellingConfig configures the definition spell check
type SpellingConfig struct {
	Enabled bool `yaml:"enabled"`
	// Dictionaries maps a language to a word list path
	Dictionaries map[string]string `yaml:"dictionaries"`
}

// OutputConfig configures the generated files
type OutputConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
	// DateStamp inserts _YYYY-MM-DD before the extension
	DateStamp   bool   `yaml:"date_stamp"`
	Report      string `yaml:"report"`
	GraphExport string `yaml:"graph_export"`
	// JSONLDExpanded writes json-ld output without a context
	JSONLDExpanded bool `yaml:"jsonld_expanded"`
}

// ValidationConfig configures the shape validation service
type ValidationConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Server      string        `yaml:"server"`
	Version     string        `yaml:"version"`
	ConformsKey string        `yaml:"conforms_key"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}

// MetricsConfig configures the Prometheus textfile export
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// LoggingConfig configures the slog handler
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RuleList is an ordered list of label rules. In YAML it is either a
// sequence of rules or a mapping from rule name to rule, kept in
// declaration order.
type RuleList []labels.Rule

// UnmarshalYAML accepts both rule forms.
func (rules *RuleList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var decoded []labels.Rule
		if err := node.Decode(&decoded); err != nil {
			return err
		}
		*rules = decoded
		return nil
	case yaml.MappingNode:
		decoded := make([]labels.Rule, 0, len(node.Content)/2)
		for index := 0; index+1 < len(node.Content); index += 2 {
			var rule labels.Rule
			if err := node.Content[index+1].Decode(&rule); err != nil {
				return fmt.Errorf("rule %q: %w", node.Content[index].Value, err)
			}
			rule.Name = node.Content[index].Value
			decoded = append(decoded, rule)
		}
		*rules = decoded
		return nil
	default:
		return fmt.Errorf("line %d: label rules must be a sequence or a mapping", node.Line)
	}
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			FolderLanguage: "fr",
			SlugLanguage:   "fr",
		},
		Levels: LevelsConfig{
			Highest: 1,
			Lowest:  3,
		},
		Columns: taxonomy.Columns{
			Slug:       taxonomy.CanonicalSlug,
			PrefLabel:  taxonomy.CanonicalPrefLabel,
			Definition: taxonomy.CanonicalDefinition,
			AltLabel:   taxonomy.CanonicalAltLabel,
			PopTitle:   taxonomy.CanonicalPopTitle,
			Identifier: taxonomy.CanonicalIdentifier,
		},
		Namespace: NamespaceConfig{
			Prefix: "taxo",
		},
		Defaults: DefaultsConfig{
			Language: "fr",
			Version:  "0.0.1",
			Status:   "CURRENT",
		},
		Output: OutputConfig{
			Path:      "output/taxonomy.ttl",
			Format:    string(store.FormatTurtle),
			DateStamp: true,
		},
		Validation: ValidationConfig{
			Enabled:     true,
			Server:      "http://localhost:8080/shacl/api/validate",
			Version:     "v1.0.0",
			ConformsKey: "sh:conforms",
			Timeout:     30 * time.Second,
			MaxRetries:  3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if len(c.Input.Files) == 0 && c.Input.Folder == "" {
		errs = append(errs, errors.New("input.files or input.folder is required"))
	}
	for index, file := range c.Input.Files {
		if file.Path == "" {
			errs = append(errs, fmt.Errorf("input.files[%d].path is required", index))
		}
		if file.Language == "" {
			errs = append(errs, fmt.Errorf("input.files[%d].language is required", index))
		}
	}
	if c.Input.SlugLanguage == "" {
		errs = append(errs, errors.New("input.slug_language is required"))
	}

	if c.Levels.Highest < 0 {
		errs = append(errs, errors.New("levels.highest must not be negative"))
	}
	if c.Levels.Lowest < c.Levels.Highest {
		errs = append(errs, fmt.Errorf("levels.lowest (%d) must not be above levels.highest (%d)", c.Levels.Lowest, c.Levels.Highest))
	}

	if c.Namespace.URI == "" {
		errs = append(errs, errors.New("namespace.uri is required"))
	}

	if c.Defaults.Language == "" {
		errs = append(errs, errors.New("defaults.language is required"))
	}
	if c.Defaults.CreationDate != "" {
		if _, err := time.Parse(taxonomy.DateLayout, c.Defaults.CreationDate); err != nil {
			errs = append(errs, fmt.Errorf("defaults.creation_date %q is not YYYY-MM-DD", c.Defaults.CreationDate))
		}
	}

	if c.Spelling.Enabled && len(c.Spelling.Dictionaries) == 0 {
		errs = append(errs, errors.New("spelling.dictionaries is required when spelling is enabled"))
	}

	if c.Output.Path == "" {
		errs = append(errs, errors.New("output.path is required"))
	}
	if _, err := store.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, fmt.Errorf("output.format: %w", err))
	}

	if c.Validation.Enabled {
		if c.Validation.Server == "" {
			errs = append(errs, errors.New("validation.server is required when validation is enabled"))
		}
		if c.Validation.Timeout <= 0 {
			errs = append(errs, errors.New("validation.timeout must be positive"))
		}
		if c.Validation.MaxRetries < 0 {
			errs = append(errs, errors.New("validation.max_retries must not be negative"))
		}
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file over the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// TaxonomyOptions returns the converter options.
func (c *Config) TaxonomyOptions() taxonomy.Options {
	return taxonomy.Options{
		Namespace:       c.Namespace.URI,
		Highest:         c.Levels.Highest,
		Lowest:          c.Levels.Lowest,
		Columns:         c.Columns,
		DefaultLanguage: c.Defaults.Language,
		Version:         c.Defaults.Version,
		Status:          c.Defaults.Status,
		CreationDate:    c.Defaults.CreationDate,
		EnglishLabels:   c.Labels.EnglishLabels,
	}
}

// OutputFormat returns the parsed output format.
func (c *Config) OutputFormat() (store.Format, error) {
	return store.ParseFormat(c.Output.Format)
}

// OutputPath returns the graph file path for a run on day. With date_stamp
// the date goes before the extension: taxonomy.ttl -> taxonomy_2024-12-18.ttl.
// A path without extension gets the format's.
func (c *Config) OutputPath(day time.Time) string {
	path := c.Output.Path
	extension := filepath.Ext(path)
	base := strings.TrimSuffix(path, extension)
	if extension == "" {
		if format, err := c.OutputFormat(); err == nil {
			extension = format.Extension()
		}
	}
	if c.Output.DateStamp {
		base += "_" + day.Format(taxonomy.DateLayout)
	}
	return base + extension
}

// Prefixes returns the extra prefix bindings for the taxonomy namespace.
func (c *Config) Prefixes() []store.PrefixMapping {
	if c.Namespace.Prefix == "" || c.Namespace.URI == "" {
		return nil
	}
	return []store.PrefixMapping{{Prefix: c.Namespace.Prefix, Namespace: c.Namespace.URI}}
}

// NewLogger builds the slog logger described by the logging section.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}

	handlerOptions := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOptions)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOptions)), nil
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}
