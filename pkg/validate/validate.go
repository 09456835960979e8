// Package validate checks a generated taxonomy graph: duplicate preferred
// labels, expected size and conformance against an external shape validator.
package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coolbeans/taxo2rdf/pkg/store"
)

// ValidationStatus indicates pass/fail.
type ValidationStatus string

const (
	StatusPass ValidationStatus = "PASS"
	StatusFail ValidationStatus = "FAIL"
	StatusWarn ValidationStatus = "WARN"
)

// ValidationIssue represents a single issue or warning.
type ValidationIssue struct {
	Category string   `json:"category"`
	Severity string   `json:"severity"` // "error", "warning", "info"
	Message  string   `json:"message"`
	Count    int      `json:"count,omitempty"`
	Examples []string `json:"examples,omitempty"`
}

// DuplicateLabel is a preferred label asserted by more than one subject.
type DuplicateLabel struct {
	Value    string   `json:"value"`
	Language string   `json:"language,omitempty"`
	Subjects []string `json:"subjects"`
}

// DuplicateValidation lists duplicated preferred labels.
type DuplicateValidation struct {
	LabelsChecked int              `json:"labels_checked"`
	Duplicates    []DuplicateLabel `json:"duplicates,omitempty"`
}

// SizeValidation compares the expected node count with the graph.
type SizeValidation struct {
	Expected int  `json:"expected"`
	Actual   int  `json:"actual"`
	Match    bool `json:"match"`
}

// Report is the outcome of one validation pass.
type Report struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Source      string           `json:"source,omitempty"`
	Format      store.Format     `json:"format,omitempty"`
	Status      ValidationStatus `json:"status"`

	Duplicates *DuplicateValidation `json:"duplicates,omitempty"`
	Size       *SizeValidation      `json:"size,omitempty"`
	Shape      *ShapeValidation     `json:"shape,omitempty"`

	Issues   []ValidationIssue `json:"issues"`
	Warnings []ValidationIssue `json:"warnings"`
}

// Input describes what to validate. Graph may be nil when only a serialized
// file is available; the graph checks are then skipped.
type Input struct {
	Graph *store.TripleStore
	// ExpectedSize enables the size check when CheckSize is set.
	ExpectedSize int
	CheckSize    bool
	// Content is the serialized graph submitted to the shape validator.
	Content string
	Format  store.Format
	Source  string
}

// Validator runs the checks. Each check is independent of the others.
type Validator struct {
	shape  *ShapeValidator
	logger *slog.Logger
	now    func() time.Time
}

// NewValidator creates a validator. A nil shape validator skips the
// conformance check.
func NewValidator(shape *ShapeValidator, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{shape: shape, logger: logger, now: time.Now}
}

// Run performs every applicable check and never fails: problems are reported.
func (v *Validator) Run(ctx context.Context, input Input) *Report {
	report := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: v.now().UTC(),
		Source:      input.Source,
		Format:      input.Format,
		Issues:      []ValidationIssue{},
		Warnings:    []ValidationIssue{},
	}

	if input.Graph != nil {
		report.Duplicates = FindDuplicates(input.Graph)
		if count := len(report.Duplicates.Duplicates); count > 0 {
			examples := make([]string, 0, min(count, 5))
			for _, duplicate := range report.Duplicates.Duplicates[:min(count, 5)] {
				examples = append(examples, fmt.Sprintf("%q (%s)", duplicate.Value, strings.Join(duplicate.Subjects, ", ")))
			}
			report.Warnings = append(report.Warnings, ValidationIssue{
				Category: "duplicates",
				Severity: "warning",
				Message:  "preferred labels shared by several concepts",
				Count:    count,
				Examples: examples,
			})
			v.logger.Warn("duplicate preferred labels", slog.Int("count", count))
		}

		if input.CheckSize {
			report.Size = CheckSize(input.Graph, input.ExpectedSize)
			if !report.Size.Match {
				report.Warnings = append(report.Warnings, ValidationIssue{
					Category: "size",
					Severity: "warning",
					Message: fmt.Sprintf("expected %d concepts but the graph has %d",
						report.Size.Expected, report.Size.Actual),
					Count: report.Size.Actual - report.Size.Expected,
				})
				v.logger.Warn("taxonomy size mismatch",
					slog.Int("expected", report.Size.Expected),
					slog.Int("actual", report.Size.Actual))
			}
		}
	}

	if v.shape != nil {
		report.Shape = v.shape.Validate(ctx, input.Content, input.Format)
		v.recordShape(report)
	}

	report.Status = StatusPass
	if len(report.Warnings) > 0 {
		report.Status = StatusWarn
	}
	if len(report.Issues) > 0 {
		report.Status = StatusFail
	}
	return report
}

func (v *Validator) recordShape(report *Report) {
	shape := report.Shape
	switch {
	case shape.Reachable && shape.Conforms:
		v.logger.Info("graph conforms to shapes", slog.String("endpoint", shape.Endpoint))
	case shape.Reachable && shape.Error == "":
		report.Issues = append(report.Issues, ValidationIssue{
			Category: "shape",
			Severity: "error",
			Message:  "graph does not conform to the shapes",
			Examples: nonEmpty(shape.Body),
		})
		v.logger.Error("graph does not conform to shapes", slog.String("report", shape.Body))
	default:
		report.Warnings = append(report.Warnings, ValidationIssue{
			Category: "shape",
			Severity: "warning",
			Message:  "shape validation unavailable: " + shape.Error,
			Examples: nonEmpty(shape.Body),
		})
		v.logger.Warn("shape validation unavailable",
			slog.String("endpoint", shape.Endpoint),
			slog.Int("attempts", shape.Attempts),
			slog.String("error", shape.Error))
	}
}

func nonEmpty(value string) []string {
	if value == "" {
		return nil
	}
	return []string{value}
}

// FindDuplicates reports preferred-label literals (value and language)
// asserted by more than one subject, sorted by value.
func FindDuplicates(graph *store.TripleStore) *DuplicateValidation {
	type labelKey struct{ value, language string }

	subjects := make(map[labelKey]map[string]struct{})
	triples := graph.Find("", store.SKOSPrefLabel, "")
	for _, triple := range triples {
		term := store.ParseTerm(triple.Object)
		if !term.IsLiteral() {
			continue
		}
		key := labelKey{term.Value, term.Language}
		if subjects[key] == nil {
			subjects[key] = make(map[string]struct{})
		}
		subjects[key][triple.Subject] = struct{}{}
	}

	result := &DuplicateValidation{LabelsChecked: len(triples)}
	for key, owners := range subjects {
		if len(owners) < 2 {
			continue
		}
		duplicate := DuplicateLabel{Value: key.value, Language: key.language}
		for subject := range owners {
			duplicate.Subjects = append(duplicate.Subjects, subject)
		}
		sort.Strings(duplicate.Subjects)
		result.Duplicates = append(result.Duplicates, duplicate)
	}

	sort.Slice(result.Duplicates, func(i, j int) bool {
		left, right := result.Duplicates[i], result.Duplicates[j]
		if left.Value != right.Value {
			return left.Value < right.Value
		}
		return left.Language < right.Language
	})
	return result
}

// CheckSize counts the distinct concept and concept scheme subjects.
func CheckSize(graph *store.TripleStore, expected int) *SizeValidation {
	actual := len(graph.SubjectsOfType(store.SKOSConcept, store.SKOSConceptScheme))
	return &SizeValidation{Expected: expected, Actual: actual, Match: expected == actual}
}

// ToJSON serializes the report to JSON.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// String returns a human-readable validation report.
func (r *Report) String() string {
	var sb strings.Builder

	sb.WriteString("Validation Report\n")
	sb.WriteString("=================\n")
	sb.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	if r.Source != "" {
		sb.WriteString(fmt.Sprintf("Source: %s\n", r.Source))
	}
	sb.WriteString("\n")

	if r.Duplicates != nil {
		sb.WriteString("Duplicate Labels:\n")
		sb.WriteString(fmt.Sprintf("  Labels checked: %d\n", r.Duplicates.LabelsChecked))
		sb.WriteString(fmt.Sprintf("  Duplicated: %d\n", len(r.Duplicates.Duplicates)))
		for _, duplicate := range r.Duplicates.Duplicates {
			sb.WriteString(fmt.Sprintf("    - %q@%s: %s\n", duplicate.Value, duplicate.Language, strings.Join(duplicate.Subjects, ", ")))
		}
		sb.WriteString("\n")
	}

	if r.Size != nil {
		sb.WriteString("Taxonomy Size:\n")
		sb.WriteString(fmt.Sprintf("  Expected: %d\n", r.Size.Expected))
		sb.WriteString(fmt.Sprintf("  Actual: %d\n", r.Size.Actual))
		sb.WriteString("\n")
	}

	if r.Shape != nil {
		sb.WriteString("Shape Conformance:\n")
		sb.WriteString(fmt.Sprintf("  Endpoint: %s\n", r.Shape.Endpoint))
		sb.WriteString(fmt.Sprintf("  Attempts: %d\n", r.Shape.Attempts))
		if r.Shape.Reachable {
			sb.WriteString(fmt.Sprintf("  Conforms: %v\n", r.Shape.Conforms))
		}
		if r.Shape.Error != "" {
			sb.WriteString(fmt.Sprintf("  Error: %s\n", r.Shape.Error))
		}
		sb.WriteString("\n")
	}

	if len(r.Issues) > 0 {
		sb.WriteString("Issues:\n")
		for _, issue := range r.Issues {
			sb.WriteString(fmt.Sprintf("  [%s] %s: %s\n", issue.Severity, issue.Category, issue.Message))
		}
		sb.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, warning := range r.Warnings {
			sb.WriteString(fmt.Sprintf("  [%s] %s: %s\n", warning.Severity, warning.Category, warning.Message))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Status: %s\n", r.Status))
	return sb.String()
}
