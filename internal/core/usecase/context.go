package usecase

import (
	"strings"

	"github.com/budgetbot/backend/internal/core/domain"
)

// NoContextSentinel signals that retrieval produced no usable text. Callers
// fall back to rendering the raw expense batch instead of retrying retrieval.
const NoContextSentinel = "No relevant expense data found for your query."

// formatContext joins the first usable snippet of each match with newlines.
// Pure: metadata keys text, chunk_text and description are tried in order.
func formatContext(matches []domain.Match) string {
	if len(matches) == 0 {
		return NoContextSentinel
	}

	var lines []string
	for _, match := range matches {
		if text := snippetFromMetadata(match.Metadata); text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		return NoContextSentinel
	}
	return strings.Join(lines, "\n")
}

func snippetFromMetadata(metadata map[string]any) string {
	for _, key := range []string{"text", "chunk_text", "description"} {
		if value, ok := metadata[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

// formatExpenses renders the raw batch as fallback context, one line per
// expense.
func formatExpenses(expenses []domain.Expense) string {
	lines := make([]string, 0, len(expenses))
	for _, e := range expenses {
		lines = append(lines, e.ContextLine())
	}
	return strings.Join(lines, "\n")
}
