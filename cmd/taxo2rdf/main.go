package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/coolbeans/taxo2rdf/pkg/config"
	"github.com/coolbeans/taxo2rdf/pkg/labels"
	"github.com/coolbeans/taxo2rdf/pkg/metrics"
	"github.com/coolbeans/taxo2rdf/pkg/pipeline"
	"github.com/coolbeans/taxo2rdf/pkg/store"
	"github.com/coolbeans/taxo2rdf/pkg/taxonomy"
	"github.com/coolbeans/taxo2rdf/pkg/validate"
	"github.com/coolbeans/taxo2rdf/pkg/watch"
)

var version = "0.1.0"

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	failColor    = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgCyan, color.Bold)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failColor.Sprint("error: ")+err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "taxo2rdf",
		Short: "Spreadsheet taxonomy to SKOS converter",
		Long: `taxo2rdf converts a level-structured taxonomy spreadsheet into a SKOS
graph and validates it.

It produces:
  - A ConceptScheme, TopConcepts and Concepts linked by skos:broader
  - Cleaned, capitalized preferred labels in every input language
  - A validation report: duplicate labels, size and shape conformance`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default: ./"+config.DefaultConfigFile+" when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")

	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// loadConfig reads the configuration file, if any, and applies the logging
// flags. Commands apply their own overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigFile); err == nil {
			path = config.DefaultConfigFile
		}
	}

	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Logging.Format = format
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	logger, err := cfg.NewLogger(w)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a taxonomy spreadsheet to RDF",
		Long: `Convert a taxonomy spreadsheet into a SKOS graph, write it, and validate it.

Inputs are .xlsx, .csv or .tsv files. The input in the slug language
provides slugs and structure; inputs in other languages add labels,
definitions and alternative labels in their language.

Output formats:
  - turtle:  W3C Turtle (default)
  - nt:      N-Triples
  - rdfxml:  RDF/XML
  - jsonld:  JSON-LD with @context

Validation never removes the written graph. Duplicate labels, a size
mismatch or an unreachable validator are warnings; a graph that does
not conform to the shapes fails the report.

Example:
  taxo2rdf convert --config taxo2rdf.yaml
  taxo2rdf convert --input taxonomy_fr.xlsx:fr --namespace http://ex.org/ --output taxonomy.ttl
  taxo2rdf convert --input taxonomy_fr.xlsx:fr --input taxonomy_en.xlsx:en --format rdfxml
  taxo2rdf convert --config taxo2rdf.yaml --no-validate --report report.md
  taxo2rdf convert --config taxo2rdf.yaml --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyConvertFlags(cmd, cfg); err != nil {
				return err
			}

			logger, err := newLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}

			runMetrics := metrics.New()
			p, err := pipeline.New(cfg, pipeline.WithLogger(logger), pipeline.WithMetrics(runMetrics))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watchMode, _ := cmd.Flags().GetBool("watch")
			out := cmd.OutOrStdout()

			outcome, err := p.Run(ctx)
			if err != nil && !watchMode {
				return err
			}
			if err != nil {
				fmt.Fprintln(out, failColor.Sprint("Conversion failed: ")+err.Error())
			} else {
				printOutcome(out, outcome)
			}

			if !watchMode {
				return nil
			}

			debounce, _ := cmd.Flags().GetDuration("debounce")
			watcher := watch.New(p.InputPaths(), watch.WithDebounce(debounce), watch.WithLogger(logger))
			watcher.OnChange(func(ctx context.Context, changed []string) error {
				fmt.Fprintf(out, "\n%s %s\n", headerColor.Sprint("Inputs changed:"), strings.Join(changed, ", "))
				outcome, err := p.Run(ctx)
				if err != nil {
					fmt.Fprintln(out, failColor.Sprint("Conversion failed: ")+err.Error())
					return err
				}
				printOutcome(out, outcome)
				return nil
			})

			fmt.Fprintf(out, "\nWatching %s for changes (Ctrl+C to stop)\n", strings.Join(p.InputPaths(), ", "))
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringSliceP("input", "i", nil, "Input file as path[:language] (repeatable; replaces input.files)")
	cmd.Flags().String("folder", "", "Input folder read in lexical order")
	cmd.Flags().StringP("namespace", "n", "", "Namespace IRI for concepts")
	cmd.Flags().StringP("output", "o", "", "Output graph path")
	cmd.Flags().StringP("format", "f", "", "Output format: turtle, nt, rdfxml, jsonld")
	cmd.Flags().Bool("no-date-stamp", false, "Do not insert the run date in the output file name")
	cmd.Flags().String("report", "", "Write the validation report (.md or .json)")
	cmd.Flags().String("graph-export", "", "Write the node/edge graph export (JSON, or Graphviz DOT for a .dot path)")
	cmd.Flags().Bool("jsonld-expanded", false, "Write json-ld output in expanded form")
	cmd.Flags().String("creation-date", "", "dcterms:created of the scheme (YYYY-MM-DD)")
	cmd.Flags().Bool("english-labels", false, "Add an @en preferred label to labels detected as English")
	cmd.Flags().Bool("no-validate", false, "Skip the shape validation service")
	cmd.Flags().String("server", "", "Shape validation endpoint")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile")
	cmd.Flags().Bool("watch", false, "Re-run the conversion when the inputs change")
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "Delay batching input changes in watch mode")

	return cmd
}

func applyConvertFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("input") {
		inputs, _ := flags.GetStringSlice("input")
		files := make([]config.InputFile, 0, len(inputs))
		for _, input := range inputs {
			files = append(files, parseInputFlag(input, cfg.Input.SlugLanguage))
		}
		cfg.Input.Files = files
	}
	if flags.Changed("folder") {
		cfg.Input.Folder, _ = flags.GetString("folder")
	}
	if flags.Changed("namespace") {
		cfg.Namespace.URI, _ = flags.GetString("namespace")
	}
	if flags.Changed("output") {
		cfg.Output.Path, _ = flags.GetString("output")
	}
	if flags.Changed("format") {
		name, _ := flags.GetString("format")
		format, err := store.ParseFormat(name)
		if err != nil {
			return err
		}
		cfg.Output.Format = string(format)
	}
	if noStamp, _ := flags.GetBool("no-date-stamp"); noStamp {
		cfg.Output.DateStamp = false
	}
	if flags.Changed("report") {
		cfg.Output.Report, _ = flags.GetString("report")
	}
	if flags.Changed("graph-export") {
		cfg.Output.GraphExport, _ = flags.GetString("graph-export")
	}
	if flags.Changed("jsonld-expanded") {
		cfg.Output.JSONLDExpanded, _ = flags.GetBool("jsonld-expanded")
	}
	if flags.Changed("creation-date") {
		cfg.Defaults.CreationDate, _ = flags.GetString("creation-date")
	}
	if flags.Changed("english-labels") {
		cfg.Labels.EnglishLabels, _ = flags.GetBool("english-labels")
	}
	if noValidate, _ := flags.GetBool("no-validate"); noValidate {
		cfg.Validation.Enabled = false
	}
	if flags.Changed("server") {
		cfg.Validation.Server, _ = flags.GetString("server")
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.Textfile, _ = flags.GetString("metrics-file")
	}
	return nil
}

// parseInputFlag splits "path:lang". A path without a language suffix gets
// the language from its file name, then the fallback.
func parseInputFlag(value, fallback string) config.InputFile {
	if cut := strings.LastIndex(value, ":"); cut > 0 && len(value)-cut-1 == 2 {
		return config.InputFile{Path: value[:cut], Language: strings.ToLower(value[cut+1:])}
	}
	lang := pipeline.LanguageFromName(value)
	if lang == "" {
		lang = fallback
	}
	return config.InputFile{Path: value, Language: lang}
}

func printOutcome(w io.Writer, outcome *pipeline.Outcome) {
	result := outcome.Result

	headerColor.Fprintln(w, "\nConversion complete")
	fmt.Fprintf(w, "  Graph:           %s (%s)\n", outcome.OutputPath, outcome.Format)
	fmt.Fprintf(w, "  Triples:         %d\n", result.Store.Count())
	fmt.Fprintf(w, "  Schemes:         %d\n", result.NodesByKind[taxonomy.KindConceptScheme])
	fmt.Fprintf(w, "  Top concepts:    %d\n", result.NodesByKind[taxonomy.KindTopConcept])
	fmt.Fprintf(w, "  Concepts:        %d\n", result.NodesByKind[taxonomy.KindConcept])
	fmt.Fprintf(w, "  English labels:  %d\n", result.EnglishLabels.Len())
	fmt.Fprintf(w, "  Changed labels:  %d\n", result.ChangeLog.Total())
	if len(result.Misspellings) > 0 {
		fmt.Fprintf(w, "  Misspellings:    %d\n", len(result.Misspellings))
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(w, "  Skipped rows:    %d\n", len(result.Skipped))
	}
	if outcome.GraphExportPath != "" {
		fmt.Fprintf(w, "  Graph export:    %s\n", outcome.GraphExportPath)
	}
	fmt.Fprintf(w, "  Duration:        %v\n", outcome.Duration.Round(time.Millisecond))

	printReport(w, outcome.Report)
	if outcome.ReportPath != "" {
		fmt.Fprintf(w, "  Report saved to: %s\n", outcome.ReportPath)
	}
}

func printReport(w io.Writer, report *validate.Report) {
	if report == nil {
		return
	}

	fmt.Fprintf(w, "\nValidation: %s\n", statusColor(report.Status).Sprint(report.Status))
	if report.Duplicates != nil {
		fmt.Fprintf(w, "  Duplicate labels: %d\n", len(report.Duplicates.Duplicates))
	}
	if report.Size != nil {
		fmt.Fprintf(w, "  Size:             %d expected, %d in graph\n", report.Size.Expected, report.Size.Actual)
	}
	if report.Shape != nil {
		switch {
		case report.Shape.Reachable && report.Shape.Error == "":
			fmt.Fprintf(w, "  Shape conforms:   %v\n", report.Shape.Conforms)
		default:
			fmt.Fprintf(w, "  Shape check:      unavailable (%s)\n", report.Shape.Error)
		}
	}
	for _, issue := range report.Issues {
		fmt.Fprintf(w, "  %s %s\n", failColor.Sprint("✗"), issue.Message)
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "  %s %s\n", warnColor.Sprint("!"), warning.Message)
	}
}

func statusColor(status validate.ValidationStatus) *color.Color {
	switch status {
	case validate.StatusPass:
		return successColor
	case validate.StatusWarn:
		return warnColor
	default:
		return failColor
	}
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an existing RDF file against the shape service",
		Long: `Submit an existing graph file to the shape validation service.

The format is taken from --format, or from the file extension.

Example:
  taxo2rdf validate --file output/taxonomy_2024-12-18.ttl
  taxo2rdf validate --file taxonomy.rdf --server http://localhost:8080/shacl/api/validate
  taxo2rdf validate --file taxonomy.ttl --report report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				return fmt.Errorf("--file flag is required")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}

			formatName, _ := cmd.Flags().GetString("format")
			if formatName == "" {
				formatName = strings.TrimPrefix(filepath.Ext(file), ".")
			}
			format, err := store.ParseFormat(formatName)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("server") {
				cfg.Validation.Server, _ = cmd.Flags().GetString("server")
			}
			if cmd.Flags().Changed("validation-type") {
				cfg.Validation.Version, _ = cmd.Flags().GetString("validation-type")
			}
			if cfg.Validation.Server == "" {
				return fmt.Errorf("a validation server is required")
			}

			content, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read graph: %w", err)
			}

			shape := validate.NewShapeValidator(cfg.Validation.Server, cfg.Validation.Version,
				validate.WithTimeout(cfg.Validation.Timeout),
				validate.WithRetries(cfg.Validation.MaxRetries, 0),
				validate.WithConformsKey(cfg.Validation.ConformsKey),
				validate.WithShapeLogger(logger))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report := validate.NewValidator(shape, logger).Run(ctx, validate.Input{
				Content: string(content),
				Format:  format,
				Source:  file,
			})

			out := cmd.OutOrStdout()
			printReport(out, report)

			if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
				if err := pipeline.WriteReport(report, reportPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "  Report saved to: %s\n", reportPath)
			}
			return nil
		},
	}

	cmd.Flags().String("file", "", "Graph file to validate")
	cmd.Flags().StringP("format", "f", "", "Graph format (default: from the file extension)")
	cmd.Flags().String("server", "", "Shape validation endpoint")
	cmd.Flags().String("validation-type", "", "Validation type sent to the service")
	cmd.Flags().String("report", "", "Write the validation report (.md or .json)")

	return cmd
}

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the label cleaning rules in the order they apply",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			engine, err := labels.NewEngine(cfg.Labels.Rules, nil, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rules := engine.Rules()
			if len(rules) == 0 {
				fmt.Fprintln(out, "No label rules configured.")
				return nil
			}

			headerColor.Fprintf(out, "Label rules (%d):\n", len(rules))
			for index, rule := range rules {
				fmt.Fprintf(out, "  %d. %-16s %q -> %q\n", index+1, rule.Name, rule.From, rule.To)
				if len(rule.Exceptions) > 0 {
					fmt.Fprintf(out, "     except: %s\n", strings.Join(rule.Exceptions, ", "))
				}
			}
			return nil
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigFile
			if len(args) > 0 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}

			cfg := config.DefaultConfig()
			cfg.Input.Files = []config.InputFile{{Path: "taxonomy_fr.xlsx", Language: "fr"}}
			cfg.Namespace.URI = "http://example.org/taxonomy/"
			cfg.Labels.Rules = config.RuleList{
				{Name: "slash", From: "/", To: " - "},
				{Name: "ampersand", From: "&", To: " et "},
			}
			if err := cfg.SaveToFile(path); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created configuration: %s\n", path)
			fmt.Fprintf(out, "\nNext steps:\n")
			fmt.Fprintf(out, "  1. Set input.files and namespace.uri in %s\n", path)
			fmt.Fprintf(out, "  2. Run: taxo2rdf convert --config %s\n", path)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taxo2rdf %s\n", version)
		},
	}
}
