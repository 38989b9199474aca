package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/budgetbot/backend/internal/bootstrap"
	"github.com/budgetbot/backend/internal/config"
	"github.com/budgetbot/backend/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	m := metrics.NewWorkerMetrics("budgetbot")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		log.Printf("worker metrics listening on :%s", cfg.WorkerMetricsPort)
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			log.Printf("worker metrics server error: %v", err)
		}
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeBatchImported(ctx, func(handlerCtx context.Context, batchID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		if batch, err := app.Batches.GetByID(processCtx, batchID); err == nil {
			m.ObserveQueueLag("budgetbot", time.Since(batch.CreatedAt))
		}

		m.StartBatch()
		start := time.Now()
		processErr := app.ProcessUC.ProcessByID(processCtx, batchID)
		m.FinishBatch("budgetbot", time.Since(start), processErr)
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
