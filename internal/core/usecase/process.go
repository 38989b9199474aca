package usecase

import (
	"context"
	"fmt"

	"github.com/budgetbot/backend/internal/core/domain"
	"github.com/budgetbot/backend/internal/core/ports"
)

// ProcessBatchUseCase indexes a persisted import batch into the vector store.
// Driven by the worker off the import queue.
type ProcessBatchUseCase struct {
	repo     ports.BatchRepository
	vectorDB ports.VectorStore
}

func NewProcessBatchUseCase(repo ports.BatchRepository, vectorDB ports.VectorStore) *ProcessBatchUseCase {
	return &ProcessBatchUseCase{
		repo:     repo,
		vectorDB: vectorDB,
	}
}

func (uc *ProcessBatchUseCase) ProcessByID(ctx context.Context, batchID string) error {
	if err := uc.repo.UpdateStatus(ctx, batchID, domain.BatchIndexing, ""); err != nil {
		return fmt.Errorf("set status=indexing: %w", err)
	}

	if err := uc.indexBatch(ctx, batchID); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, batchID, domain.BatchFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, batchID, domain.BatchIndexed, ""); err != nil {
		return fmt.Errorf("set status=indexed: %w", err)
	}
	return nil
}

func (uc *ProcessBatchUseCase) indexBatch(ctx context.Context, batchID string) error {
	batch, err := uc.repo.GetByID(ctx, batchID)
	if err != nil {
		return fmt.Errorf("fetch batch by id: %w", err)
	}

	if _, err := domain.BatchUserID(batch.Expenses); err != nil {
		return err
	}

	if err := uc.vectorDB.Upsert(ctx, batch.Expenses); err != nil {
		return fmt.Errorf("index batch in vector db: %w", err)
	}
	return nil
}
