package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/budgetbot/backend/internal/config"
	"github.com/budgetbot/backend/internal/core/ports"
	"github.com/budgetbot/backend/internal/core/usecase"
	"github.com/budgetbot/backend/internal/infrastructure/llm/huggingface"
	"github.com/budgetbot/backend/internal/infrastructure/nlp"
	"github.com/budgetbot/backend/internal/infrastructure/queue/nats"
	"github.com/budgetbot/backend/internal/infrastructure/repository/postgres"
	"github.com/budgetbot/backend/internal/infrastructure/resilience"
	"github.com/budgetbot/backend/internal/infrastructure/vector/pinecone"
	"github.com/budgetbot/backend/internal/observability/logging"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue   ports.MessageQueue
	Batches ports.BatchRepository
	Store   ports.VectorStore

	TokenConfigured bool

	QueryUC   ports.ExpenseQueryService
	ImportUC  ports.ExpenseImporter
	ProcessUC ports.BatchProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger("budgetbot", cfg.LogLevel)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewBatchRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	store := pinecone.New(cfg.PineconeIndexHost, cfg.PineconeAPIKey, cfg.PineconeNamespace)
	if !store.Available() {
		logger.Warn("vector store not configured, retrieval disabled")
	}

	executor := resilience.NewExecutor(resilience.SingleAttemptConfig())
	generator := huggingface.New(cfg.HFAPIURL, cfg.HFAPIToken, executor)

	extractor := nlp.NewExtractor()
	analyzer := usecase.NewLocalAnalyzer()
	retriever := usecase.NewRetriever(store, extractor, logger,
		cfg.CacheSize, time.Duration(cfg.CacheTTLSeconds)*time.Second)

	queryUC := usecase.NewQueryUseCase(store, extractor, retriever, generator, analyzer, logger)
	importUC := usecase.NewImportExpensesUseCase(repo, queue)
	processUC := usecase.NewProcessBatchUseCase(repo, store)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:   queue,
		Batches: repo,
		Store:   store,

		TokenConfigured: generator.TokenConfigured(),

		QueryUC:   queryUC,
		ImportUC:  importUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
