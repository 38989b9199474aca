package ports

import (
	"context"

	"github.com/budgetbot/backend/internal/core/domain"
)

// ExpenseQueryService is the inbound contract for the question-answering
// pipeline. Validation and storage failures come back as typed errors; every
// other degradation is absorbed into the answer itself.
type ExpenseQueryService interface {
	Run(ctx context.Context, question string, expenses []domain.Expense) (*domain.QueryResult, error)
}

// ExpenseImporter is the inbound contract for asynchronous batch import.
type ExpenseImporter interface {
	Import(ctx context.Context, expenses []domain.Expense) (*domain.ExpenseBatch, error)
}

// BatchReader is the inbound read model for import batch state.
type BatchReader interface {
	GetByID(ctx context.Context, id string) (*domain.ExpenseBatch, error)
}

// BatchProcessor is the inbound contract for asynchronous batch indexing.
type BatchProcessor interface {
	ProcessByID(ctx context.Context, batchID string) error
}
