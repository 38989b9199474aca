package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/budgetbot/backend/internal/core/domain"
	"github.com/budgetbot/backend/internal/core/ports"
)

const retrievalTopK = 5

// QueryUseCase runs the full question-answering pipeline: validate, persist
// the batch to the vector store, extract filters, retrieve and format
// context, prompt the generative backend, and swap in the local analysis when
// generation degrades. It always produces an answer unless validation or the
// upsert fails.
type QueryUseCase struct {
	store     ports.VectorStore
	extractor ports.FilterExtractor
	retriever *Retriever
	generator ports.AnswerGenerator
	analyzer  *LocalAnalyzer
	logger    *slog.Logger
}

func NewQueryUseCase(
	store ports.VectorStore,
	extractor ports.FilterExtractor,
	retriever *Retriever,
	generator ports.AnswerGenerator,
	analyzer *LocalAnalyzer,
	logger *slog.Logger,
) *QueryUseCase {
	return &QueryUseCase{
		store:     store,
		extractor: extractor,
		retriever: retriever,
		generator: generator,
		analyzer:  analyzer,
		logger:    logger,
	}
}

func (uc *QueryUseCase) Run(
	ctx context.Context,
	question string,
	expenses []domain.Expense,
) (*domain.QueryResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question cannot be empty", domain.ErrInvalidInput)
	}
	if err := domain.ValidateBatch(expenses); err != nil {
		return nil, err
	}
	userID, err := domain.BatchUserID(expenses)
	if err != nil {
		return nil, err
	}

	// Write-before-read: a store that just rejected this batch must not be
	// asked to serve context for it.
	if err := uc.store.Upsert(ctx, expenses); err != nil {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "store expenses", err)
	}

	filters := uc.extractor.Extract(question, userID)

	matches := uc.retriever.Retrieve(ctx, userID, question, retrievalTopK)

	contextText := formatContext(matches)
	if contextText == NoContextSentinel {
		uc.logger.Info("no retrieved context, falling back to raw expenses", "user_id", userID)
		contextText = formatExpenses(expenses)
	}

	prompt := buildPrompt(question, contextText)

	answer := uc.generate(ctx, prompt, question, expenses, userID)

	return &domain.QueryResult{
		Answer:      answer,
		ContextUsed: contextText,
		Metadata:    filters,
		NumChunks:   len(matches),
	}, nil
}

// generate calls the backend and substitutes the local analysis for every
// degraded outcome. An answer always comes back.
func (uc *QueryUseCase) generate(
	ctx context.Context,
	prompt, question string,
	expenses []domain.Expense,
	userID string,
) (answer string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			uc.logger.Error("generator panicked, using local analysis", "user_id", userID, "panic", recovered)
			answer = uc.analyzer.Analyze(question, expenses)
		}
	}()

	generation := uc.generator.Generate(ctx, prompt)
	if generation.Failed() {
		uc.logger.Warn("generation degraded, using local analysis",
			"user_id", userID,
			"kind", string(generation.Kind),
			"message", generation.Text,
		)
		return uc.analyzer.Analyze(question, expenses)
	}
	return generation.Text
}
