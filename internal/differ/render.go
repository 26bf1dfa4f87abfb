package differ

import (
	"fmt"
	"html/template"
	"strings"

	"webnotifier/internal/models"
)

// RenderHTML creates an inline HTML representation of a diff, suitable for
// an HTML email body. Inserted text is wrapped in <ins>, deleted text in
// <del>, and everything is escaped first.
func RenderHTML(diffs []models.ContentDiff) template.HTML {
	var htmlBuilder strings.Builder
	for _, d := range diffs {
		escapedText := template.HTMLEscapeString(d.Text)

		switch d.Operation {
		case models.DiffInsert:
			htmlBuilder.WriteString(fmt.Sprintf(`<ins style="background:#e6ffe6; text-decoration: none;">%s</ins>`, escapedText))
		case models.DiffDelete:
			htmlBuilder.WriteString(fmt.Sprintf(`<del style="background:#f8d7da; text-decoration: none;">%s</del>`, escapedText))
		case models.DiffEqual:
			htmlBuilder.WriteString(escapedText)
		}
	}
	return template.HTML(htmlBuilder.String())
}

// RenderText creates a unified-diff-style plain text representation.
// Unchanged regions are trimmed to contextLines lines on either side of a
// change, with a "..." marker where lines were elided.
func RenderText(diffs []models.ContentDiff, contextLines int) string {
	if contextLines < 0 {
		contextLines = 0
	}

	var out []string
	for i, d := range diffs {
		lines := splitLines(d.Text)

		switch d.Operation {
		case models.DiffInsert:
			for _, line := range lines {
				out = append(out, "+ "+line)
			}
		case models.DiffDelete:
			for _, line := range lines {
				out = append(out, "- "+line)
			}
		case models.DiffEqual:
			out = append(out, trimContext(lines, contextLines, i == 0, i == len(diffs)-1)...)
		}
	}
	return strings.Join(out, "\n")
}

// Summary creates a one-line text summary of a diff result.
func Summary(result *models.ContentDiffResult) string {
	if result == nil {
		return "No diff available."
	}
	if result.ErrorMessage != "" {
		return result.ErrorMessage
	}
	if result.IsIdentical {
		return "No textual changes detected."
	}
	return fmt.Sprintf("%d lines added (+), %d lines deleted (-).", result.LinesAdded, result.LinesDeleted)
}

func splitLines(text string) []string {
	trimmed := strings.TrimSuffix(text, "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

// trimContext keeps only the lines adjacent to changed segments. The first
// equal block needs no leading context and the last needs no trailing context.
func trimContext(lines []string, contextLines int, isFirst, isLast bool) []string {
	keepHead := contextLines
	keepTail := contextLines
	if isFirst {
		keepHead = 0
	}
	if isLast {
		keepTail = 0
	}

	if len(lines) <= keepHead+keepTail {
		prefixed := make([]string, 0, len(lines))
		for _, line := range lines {
			prefixed = append(prefixed, "  "+line)
		}
		return prefixed
	}

	var out []string
	for _, line := range lines[:keepHead] {
		out = append(out, "  "+line)
	}
	out = append(out, "  ...")
	for _, line := range lines[len(lines)-keepTail:] {
		out = append(out, "  "+line)
	}
	return out
}
