package ports

import (
	"context"

	"github.com/budgetbot/backend/internal/core/domain"
)

// VectorStore indexes expense documents and performs semantic search. The
// store computes embeddings itself: Upsert and Query both carry raw text in
// place of precomputed vectors. An unconfigured store degrades to no-ops and
// empty results instead of failing.
type VectorStore interface {
	Available() bool
	Upsert(ctx context.Context, expenses []domain.Expense) error
	Query(ctx context.Context, text string, topK int, filter domain.FilterSet) ([]domain.Match, error)
}

// FilterExtractor turns a free-text question into retrieval filters. It never
// fails: extraction problems yield an empty contribution.
type FilterExtractor interface {
	Extract(query, userID string) domain.FilterSet
}

// AnswerGenerator sends one prompt to the generative backend and reports a
// structured outcome. It never returns an error: every failure mode maps to
// a Generation failure kind carrying its degraded message.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string) domain.Generation
}

// BatchRepository persists imported expense batches pending vector indexing.
type BatchRepository interface {
	Create(ctx context.Context, batch *domain.ExpenseBatch) error
	GetByID(ctx context.Context, id string) (*domain.ExpenseBatch, error)
	UpdateStatus(ctx context.Context, id string, status domain.BatchStatus, errMessage string) error
}

// MessageQueue publishes/consumes batch import events.
type MessageQueue interface {
	PublishBatchImported(ctx context.Context, batchID string) error
	SubscribeBatchImported(ctx context.Context, handler func(context.Context, string) error) error
}
