// Package textproc prepares extracted document text for ingestion:
// whitespace normalization and sentence-aware chunking. Both operations
// are pure and never fail; degenerate input degrades to degenerate output.
package textproc

import (
	"regexp"
	"strings"
)

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// Normalize collapses extraction artifacts into canonical text: runs of
// spaces and tabs become a single space, every line is trimmed, runs of
// three or more newlines collapse to two (paragraph breaks survive), and
// the whole text is trimmed. Normalize is idempotent.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaceRun.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	text = newlineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
