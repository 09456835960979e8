package validate

import (
	"fmt"
	"strings"
)

// ToMarkdown generates a Markdown-formatted validation report suitable for
// GitHub/GitLab rendering, PR comments, and documentation.
func (report *Report) ToMarkdown() string {
	var markdownBuilder strings.Builder

	// Header with status badge
	statusBadge := statusToMarkdownBadge(report.Status)
	markdownBuilder.WriteString(fmt.Sprintf("# Validation Report %s\n\n", statusBadge))

	// Summary table
	markdownBuilder.WriteString("## Summary\n\n")
	markdownBuilder.WriteString("| Metric | Value |\n")
	markdownBuilder.WriteString("|--------|-------|\n")
	markdownBuilder.WriteString(fmt.Sprintf("| **Run** | `%s` |\n", report.RunID))
	markdownBuilder.WriteString(fmt.Sprintf("| **Generated** | %s |\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))
	if report.Source != "" {
		markdownBuilder.WriteString(fmt.Sprintf("| **Source** | %s |\n", escapeMarkdownTableCell(report.Source)))
	}
	if report.Format != "" {
		markdownBuilder.WriteString(fmt.Sprintf("| **Format** | %s |\n", report.Format))
	}
	markdownBuilder.WriteString(fmt.Sprintf("| **Status** | %s %s |\n", statusBadge, report.Status))
	markdownBuilder.WriteString("\n")

	// Duplicate labels
	if report.Duplicates != nil {
		markdownBuilder.WriteString("## Duplicate Labels\n\n")
		markdownBuilder.WriteString(fmt.Sprintf("%d preferred labels checked, %d duplicated.\n\n",
			report.Duplicates.LabelsChecked, len(report.Duplicates.Duplicates)))

		if len(report.Duplicates.Duplicates) > 0 {
			markdownBuilder.WriteString("| Label | Language | Concepts |\n")
			markdownBuilder.WriteString("|-------|----------|----------|\n")
			for _, duplicate := range report.Duplicates.Duplicates {
				markdownBuilder.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
					escapeMarkdownTableCell(duplicate.Value),
					duplicate.Language,
					escapeMarkdownTableCell(strings.Join(duplicate.Subjects, "<br>"))))
			}
			markdownBuilder.WriteString("\n")
		}
	}

	// Size
	if report.Size != nil {
		markdownBuilder.WriteString("## Taxonomy Size\n\n")
		markdownBuilder.WriteString("| Expected | Actual | Match |\n")
		markdownBuilder.WriteString("|----------|--------|-------|\n")
		markdownBuilder.WriteString(fmt.Sprintf("| %d | %d | %s |\n",
			report.Size.Expected, report.Size.Actual, yesNo(report.Size.Match)))
		markdownBuilder.WriteString("\n")
	}

	// Shape conformance
	if report.Shape != nil {
		markdownBuilder.WriteString("## Shape Conformance\n\n")
		markdownBuilder.WriteString("| Metric | Value |\n")
		markdownBuilder.WriteString("|--------|-------|\n")
		markdownBuilder.WriteString(fmt.Sprintf("| Endpoint | %s |\n", escapeMarkdownTableCell(report.Shape.Endpoint)))
		markdownBuilder.WriteString(fmt.Sprintf("| Syntax | %s |\n", report.Shape.ContentSyntax))
		markdownBuilder.WriteString(fmt.Sprintf("| Validation Type | %s |\n", report.Shape.ValidationType))
		markdownBuilder.WriteString(fmt.Sprintf("| Attempts | %d |\n", report.Shape.Attempts))
		if report.Shape.StatusCode != 0 {
			markdownBuilder.WriteString(fmt.Sprintf("| HTTP Status | %d |\n", report.Shape.StatusCode))
		}
		if report.Shape.Reachable {
			markdownBuilder.WriteString(fmt.Sprintf("| Conforms | %s |\n", yesNo(report.Shape.Conforms)))
		}
		markdownBuilder.WriteString("\n")

		if report.Shape.Body != "" {
			markdownBuilder.WriteString("<details><summary>Validator response</summary>\n\n")
			markdownBuilder.WriteString("```\n")
			markdownBuilder.WriteString(report.Shape.Body)
			markdownBuilder.WriteString("\n```\n\n</details>\n\n")
		}
	}

	// Issues
	if len(report.Issues) > 0 {
		markdownBuilder.WriteString("## Issues\n\n")
		markdownBuilder.WriteString("| Severity | Category | Message | Count |\n")
		markdownBuilder.WriteString("|----------|----------|---------|-------|\n")
		for _, issue := range report.Issues {
			countStr := ""
			if issue.Count != 0 {
				countStr = fmt.Sprintf("%d", issue.Count)
			}
			markdownBuilder.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				issue.Severity, issue.Category, escapeMarkdownTableCell(issue.Message), countStr))
		}
		markdownBuilder.WriteString("\n")
	}

	// Warnings
	if len(report.Warnings) > 0 {
		markdownBuilder.WriteString("## Warnings\n\n")
		markdownBuilder.WriteString("| Category | Message |\n")
		markdownBuilder.WriteString("|----------|---------|\n")
		for _, warning := range report.Warnings {
			markdownBuilder.WriteString(fmt.Sprintf("| %s | %s |\n",
				warning.Category, escapeMarkdownTableCell(warning.Message)))
		}
		markdownBuilder.WriteString("\n")
	}

	return markdownBuilder.String()
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// statusToMarkdownBadge converts a ValidationStatus to a text badge for Markdown.
func statusToMarkdownBadge(status ValidationStatus) string {
	switch status {
	case StatusPass:
		return "`PASS`"
	case StatusFail:
		return "`FAIL`"
	case StatusWarn:
		return "`WARN`"
	default:
		return fmt.Sprintf("`%s`", status)
	}
}

// escapeMarkdownTableCell escapes pipe characters and newlines in table cell content.
func escapeMarkdownTableCell(content string) string {
	content = strings.ReplaceAll(content, "|", "\\|")
	return strings.ReplaceAll(content, "\n", " ")
}
