package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/budgetbot/backend/internal/core/domain"
	"github.com/budgetbot/backend/internal/core/ports"
)

// ImportExpensesUseCase accepts an expense batch for asynchronous vector
// indexing: validate, persist, publish.
type ImportExpensesUseCase struct {
	repo  ports.BatchRepository
	queue ports.MessageQueue
}

func NewImportExpensesUseCase(repo ports.BatchRepository, queue ports.MessageQueue) *ImportExpensesUseCase {
	return &ImportExpensesUseCase{
		repo:  repo,
		queue: queue,
	}
}

func (uc *ImportExpensesUseCase) Import(ctx context.Context, expenses []domain.Expense) (*domain.ExpenseBatch, error) {
	if err := domain.ValidateBatch(expenses); err != nil {
		return nil, err
	}
	userID, err := domain.BatchUserID(expenses)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	batch := &domain.ExpenseBatch{
		ID:        uuid.NewString(),
		UserID:    userID,
		Expenses:  expenses,
		Status:    domain.BatchPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.repo.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch record: %w", err)
	}

	if err := uc.queue.PublishBatchImported(ctx, batch.ID); err != nil {
		return nil, fmt.Errorf("publish import event: %w", err)
	}

	return batch, nil
}
