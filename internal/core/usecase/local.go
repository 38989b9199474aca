package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/budgetbot/backend/internal/core/domain"
)

// LocalAnalyzer computes deterministic expense statistics and answers a small
// set of question intents without any network access. It is the guaranteed
// fallback when the generative backend degrades.
type LocalAnalyzer struct{}

func NewLocalAnalyzer() *LocalAnalyzer {
	return &LocalAnalyzer{}
}

type expenseStats struct {
	total          decimal.Decimal
	count          int
	categoryTotals map[string]decimal.Decimal
	categoryOrder  []string
	dateTotals     map[string]decimal.Decimal
	biggest        domain.Expense
	topCategory    string
	topTotal       decimal.Decimal
}

func computeStats(expenses []domain.Expense) expenseStats {
	stats := expenseStats{
		total:          decimal.Zero,
		count:          len(expenses),
		categoryTotals: make(map[string]decimal.Decimal),
		dateTotals:     make(map[string]decimal.Decimal),
	}

	for i, e := range expenses {
		stats.total = stats.total.Add(e.Amount)

		if _, seen := stats.categoryTotals[e.Category]; !seen {
			stats.categoryOrder = append(stats.categoryOrder, e.Category)
		}
		stats.categoryTotals[e.Category] = stats.categoryTotals[e.Category].Add(e.Amount)
		stats.dateTotals[e.Date] = stats.dateTotals[e.Date].Add(e.Amount)

		// Ties keep the first occurrence in input order.
		if i == 0 || e.Amount.GreaterThan(stats.biggest.Amount) {
			stats.biggest = e
		}
	}

	for i, cat := range stats.categoryOrder {
		total := stats.categoryTotals[cat]
		if i == 0 || total.GreaterThan(stats.topTotal) {
			stats.topCategory = cat
			stats.topTotal = total
		}
	}
	return stats
}

// Analyze classifies the question by keyword and renders a three-section
// answer from the computed statistics. Pure and deterministic.
func (a *LocalAnalyzer) Analyze(question string, expenses []domain.Expense) string {
	if len(expenses) == 0 {
		return "No expenses found to analyze."
	}

	stats := computeStats(expenses)
	lowered := strings.ToLower(question)

	switch {
	case containsAny(lowered, "biggest", "highest", "largest", "most"):
		return a.biggestAnswer(stats)
	case containsAny(lowered, "total", "sum", "all"):
		return a.totalAnswer(stats)
	case containsAny(lowered, "category", "categories"):
		return a.categoryAnswer(stats)
	case containsAny(lowered, "save", "reduce", "cut", "budget"):
		return a.savingsAnswer(stats)
	default:
		return a.summaryAnswer(stats)
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func (a *LocalAnalyzer) biggestAnswer(stats expenseStats) string {
	var details []string
	if strings.TrimSpace(stats.biggest.Description) != "" {
		details = append(details, "• Description: "+stats.biggest.Description)
	}
	details = append(details, "• Date: "+stats.biggest.DisplayDate())

	return fmt.Sprintf(`Your biggest expense is %s for %s.

Supporting Details:
%s

Actionable Recommendations:
• Review if this expense was necessary
• Consider setting a budget limit for %s category
• Look for ways to reduce similar expenses in the future`,
		domain.Money(stats.biggest.Amount), stats.biggest.Category,
		strings.Join(details, "\n"), stats.biggest.Category)
}

func (a *LocalAnalyzer) totalAnswer(stats expenseStats) string {
	average := stats.total.Div(decimal.NewFromInt(int64(stats.count)))

	return fmt.Sprintf(`Your total expenses are %s.

Supporting Details:
• Number of expenses: %d
• Top spending category: %s (%s)
• Average expense: %s

Actionable Recommendations:
• Track your spending patterns
• Set monthly budget goals
• Focus on reducing expenses in %s category`,
		domain.Money(stats.total), stats.count,
		stats.topCategory, domain.Money(stats.topTotal),
		domain.Money(average), stats.topCategory)
}

func (a *LocalAnalyzer) categoryAnswer(stats expenseStats) string {
	ranked := make([]string, len(stats.categoryOrder))
	copy(ranked, stats.categoryOrder)
	sort.SliceStable(ranked, func(i, j int) bool {
		return stats.categoryTotals[ranked[i]].GreaterThan(stats.categoryTotals[ranked[j]])
	})

	lines := make([]string, 0, len(ranked))
	for _, cat := range ranked {
		lines = append(lines, fmt.Sprintf("• %s: %s", cat, domain.Money(stats.categoryTotals[cat])))
	}

	return fmt.Sprintf(`Your spending by category:

Supporting Details:
%s

Actionable Recommendations:
• Focus on reducing expenses in %s category
• Consider setting category-specific budgets
• Review if all categories are necessary`,
		strings.Join(lines, "\n"), stats.topCategory)
}

func (a *LocalAnalyzer) savingsAnswer(stats expenseStats) string {
	return fmt.Sprintf(`Here are ways to save money based on your spending:

Supporting Details:
• Your biggest expense category: %s (%s)
• Your biggest single expense: %s for %s

Actionable Recommendations:
• Reduce spending in %s category
• Set a daily/weekly budget limit
• Track all expenses to identify patterns
• Consider alternatives for expensive items
• Review recurring expenses regularly`,
		stats.topCategory, domain.Money(stats.topTotal),
		domain.Money(stats.biggest.Amount), stats.biggest.Category,
		stats.topCategory)
}

func (a *LocalAnalyzer) summaryAnswer(stats expenseStats) string {
	return fmt.Sprintf(`Here's a summary of your expenses:

Supporting Details:
• Total spent: %s
• Number of expenses: %d
• Top category: %s (%s)
• Biggest expense: %s for %s

Actionable Recommendations:
• Monitor your spending patterns
• Set realistic budget goals
• Focus on reducing expenses in %s category
• Review expenses regularly to stay on track`,
		domain.Money(stats.total), stats.count,
		stats.topCategory, domain.Money(stats.topTotal),
		domain.Money(stats.biggest.Amount), stats.biggest.Category,
		stats.topCategory)
}
