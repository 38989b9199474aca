package usecase

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/budgetbot/backend/internal/core/domain"
)

func TestFormatContextEmptyMatches(t *testing.T) {
	if got := formatContext(nil); got != NoContextSentinel {
		t.Fatalf("expected sentinel, got %q", got)
	}
}

func TestFormatContextMetadataKeyOrder(t *testing.T) {
	matches := []domain.Match{
		{ID: "1", Metadata: map[string]any{"text": "from text", "description": "ignored"}},
		{ID: "2", Metadata: map[string]any{"chunk_text": "from chunk"}},
		{ID: "3", Metadata: map[string]any{"description": "from description"}},
	}
	got := formatContext(matches)
	want := "from text\nfrom chunk\nfrom description"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatContextSkipsUnusableMatches(t *testing.T) {
	matches := []domain.Match{
		{ID: "1", Metadata: map[string]any{"score": 0.9}},
		{ID: "2", Metadata: map[string]any{"text": ""}},
	}
	if got := formatContext(matches); got != NoContextSentinel {
		t.Fatalf("expected sentinel for matches without text, got %q", got)
	}
}

func TestFormatExpensesOmitsEmptyDescription(t *testing.T) {
	expenses := []domain.Expense{
		{UserID: "u1", Amount: decimal.NewFromInt(100), Category: "Food", Description: "Lunch", Date: "2024-03-01"},
		{UserID: "u1", Amount: decimal.NewFromInt(50), Category: "Transport", Date: "2024-03-02"},
	}
	got := formatExpenses(expenses)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
	}
	if lines[0] != "Date: March 1, 2024, Amount: ₹100.00, Category: Food, Description: Lunch" {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
	if strings.Contains(lines[1], "Description") {
		t.Fatalf("expected empty description omitted: %q", lines[1])
	}
}

func TestBuildPromptEmbedsQuestionAndContext(t *testing.T) {
	prompt := buildPrompt("How much on food?", "Date: March 1, 2024, Amount: ₹100.00")
	if !strings.Contains(prompt, "**Context:**\nDate: March 1, 2024, Amount: ₹100.00") {
		t.Fatalf("expected context section, got %q", prompt)
	}
	if !strings.Contains(prompt, "Question:\nHow much on food?") {
		t.Fatalf("expected question section, got %q", prompt)
	}
	if !strings.Contains(prompt, "- Direct Answer") {
		t.Fatalf("expected answer-shape instructions, got %q", prompt)
	}
}
