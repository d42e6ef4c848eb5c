package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/formbricks/storefront/internal/observability"
)

// EmbeddingEnqueuer enqueues product_embedding jobs on the embeddings queue.
type EmbeddingEnqueuer struct {
	inserter    EmbeddingJobInserter
	queueName   string
	maxAttempts int
	metrics     observability.EmbeddingMetrics
}

// NewEmbeddingEnqueuer creates an enqueuer. metrics may be nil when metrics are disabled.
func NewEmbeddingEnqueuer(
	inserter EmbeddingJobInserter, queueName string, maxAttempts int, metrics observability.EmbeddingMetrics,
) *EmbeddingEnqueuer {
	return &EmbeddingEnqueuer{
		inserter:    inserter,
		queueName:   queueName,
		maxAttempts: maxAttempts,
		metrics:     metrics,
	}
}

func (e *EmbeddingEnqueuer) insertOpts() *river.InsertOpts {
	return &river.InsertOpts{
		Queue:       e.queueName,
		MaxAttempts: e.maxAttempts,
		UniqueOpts:  river.UniqueOpts{ByArgs: true},
	}
}

// Enqueue inserts one job for productID.
func (e *EmbeddingEnqueuer) Enqueue(ctx context.Context, productID uuid.UUID) error {
	res, err := e.inserter.Insert(ctx, ProductEmbeddingArgs{ProductID: productID}, e.insertOpts())
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordEnqueueError(ctx)
		}

		return fmt.Errorf("enqueue product embedding: %w", err)
	}

	if res != nil && res.UniqueSkippedAsDuplicate {
		slog.Debug("embedding: job already pending", "product_id", productID)

		return nil
	}

	if e.metrics != nil {
		e.metrics.RecordJobsEnqueued(ctx, 1)
	}

	slog.Debug("embedding: job enqueued", "product_id", productID)

	return nil
}

// EnqueueMany inserts one job per product ID in a single batch and returns how many were inserted.
func (e *EmbeddingEnqueuer) EnqueueMany(ctx context.Context, productIDs []uuid.UUID) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}

	opts := e.insertOpts()
	params := make([]river.InsertManyParams, 0, len(productIDs))

	for _, id := range productIDs {
		params = append(params, river.InsertManyParams{Args: ProductEmbeddingArgs{ProductID: id}, InsertOpts: opts})
	}

	results, err := e.inserter.InsertMany(ctx, params)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordEnqueueError(ctx)
		}

		return 0, fmt.Errorf("enqueue product embeddings: %w", err)
	}

	inserted := 0

	for _, r := range results {
		if r != nil && !r.UniqueSkippedAsDuplicate {
			inserted++
		}
	}

	if e.metrics != nil && inserted > 0 {
		e.metrics.RecordJobsEnqueued(ctx, int64(inserted))
	}

	return inserted, nil
}
