package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

// Expense is a single spending record supplied by the caller. Batches are
// request-scoped: the core never owns expenses beyond one invocation.
type Expense struct {
	ExpenseID   string          `json:"expense_id,omitempty"`
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

// Validate reports the first missing required field. Amount is not range
// checked: negative values are unexpected but tolerated upstream.
func (e Expense) Validate() error {
	switch {
	case strings.TrimSpace(e.UserID) == "":
		return fmt.Errorf("%w: missing user_id", ErrInvalidInput)
	case strings.TrimSpace(e.Category) == "":
		return fmt.Errorf("%w: missing category", ErrInvalidInput)
	case strings.TrimSpace(e.Date) == "":
		return fmt.Errorf("%w: missing date", ErrInvalidInput)
	}
	return nil
}

// Key returns the stable vector-store identity for the expense: the supplied
// expense_id, or a composite of user, date, amount and category.
func (e Expense) Key() string {
	if e.ExpenseID != "" {
		return e.ExpenseID
	}
	return fmt.Sprintf("%s_%s_%s_%s", e.UserID, e.Date, e.Amount.String(), e.Category)
}

// CurrencySymbol prefixes every rendered amount.
const CurrencySymbol = "₹"

// Money renders an amount with the currency symbol and two decimal places.
func Money(amount decimal.Decimal) string {
	return CurrencySymbol + amount.StringFixed(2)
}

// DocumentText is the text indexed for this expense in the vector store.
func (e Expense) DocumentText() string {
	return fmt.Sprintf("Date: %s, Amount: %s, Category: %s, Description: %s",
		e.Date, Money(e.Amount), e.Category, e.Description)
}

// ContextLine renders the expense for fallback prompt context. Empty
// descriptions are omitted.
func (e Expense) ContextLine() string {
	parts := []string{
		"Date: " + e.DisplayDate(),
		"Amount: " + Money(e.Amount),
		"Category: " + e.Category,
	}
	if strings.TrimSpace(e.Description) != "" {
		parts = append(parts, "Description: "+e.Description)
	}
	return strings.Join(parts, ", ")
}

// DisplayDate renders the expense date as "January 2, 2006" when parseable,
// falling back to the raw value.
func (e Expense) DisplayDate() string {
	t, err := dateparse.ParseAny(strings.TrimSuffix(e.Date, "Z"))
	if err != nil {
		return e.Date
	}
	return t.Format("January 2, 2006")
}

// ValidateBatch checks a request batch: it must be non-empty and every
// expense must be well-formed. The first violation wins.
func ValidateBatch(expenses []Expense) error {
	if len(expenses) == 0 {
		return fmt.Errorf("%w: no expenses provided to analyze", ErrInvalidInput)
	}
	for i, e := range expenses {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("expense at index %d: %w", i, err)
		}
	}
	return nil
}

// BatchUserID returns the single user the batch belongs to. Mixed-user
// batches are rejected before any mutation happens.
func BatchUserID(expenses []Expense) (string, error) {
	if len(expenses) == 0 {
		return "", fmt.Errorf("%w: no expenses provided to analyze", ErrInvalidInput)
	}
	userID := expenses[0].UserID
	for _, e := range expenses {
		if e.UserID != userID {
			return "", fmt.Errorf("%w: all expenses must belong to the same user_id", ErrInvalidInput)
		}
	}
	return userID, nil
}

type BatchStatus string

const (
	BatchPending  BatchStatus = "pending"
	BatchIndexing BatchStatus = "indexing"
	BatchIndexed  BatchStatus = "indexed"
	BatchFailed   BatchStatus = "failed"
)

// ExpenseBatch is a persisted import batch awaiting (or done with) vector
// indexing by the worker.
type ExpenseBatch struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Expenses  []Expense   `json:"expenses"`
	Status    BatchStatus `json:"status"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
