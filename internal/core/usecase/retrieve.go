package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/budgetbot/backend/internal/core/domain"
	"github.com/budgetbot/backend/internal/core/ports"
)

const (
	defaultCacheSize = 100
	defaultCacheTTL  = 300 * time.Second
)

// Retriever queries the vector store for question context, memoizing results
// by exact (user_id, query, top_k) for the cache window. It never fails: an
// unavailable store or a store error degrades to an empty result.
type Retriever struct {
	store     ports.VectorStore
	extractor ports.FilterExtractor
	logger    *slog.Logger
	cache     *expirable.LRU[string, []domain.Match]
}

func NewRetriever(
	store ports.VectorStore,
	extractor ports.FilterExtractor,
	logger *slog.Logger,
	cacheSize int,
	cacheTTL time.Duration,
) *Retriever {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &Retriever{
		store:     store,
		extractor: extractor,
		logger:    logger,
		cache:     expirable.NewLRU[string, []domain.Match](cacheSize, nil, cacheTTL),
	}
}

func (r *Retriever) Retrieve(ctx context.Context, userID, query string, topK int) []domain.Match {
	if topK <= 0 {
		topK = 5
	}

	key := fmt.Sprintf("%s\x00%s\x00%d", userID, query, topK)
	if matches, ok := r.cache.Get(key); ok {
		return matches
	}

	if r.store == nil || !r.store.Available() {
		r.logger.Warn("vector store not available, returning empty results")
		return nil
	}

	filters := r.extractor.Extract(query, userID)

	// Keywords bias the semantic ranking through the query text; they are
	// not a hard filter.
	queryText := query
	if len(filters.Keywords) > 0 {
		queryText = query + " " + strings.Join(filters.Keywords, " ")
	}

	matches, err := r.store.Query(ctx, queryText, topK, filters)
	if err != nil {
		r.logger.Error("vector store query failed", "user_id", userID, "error", err)
		return nil
	}

	r.cache.Add(key, matches)
	return matches
}
