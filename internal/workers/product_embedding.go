// Package workers provides River job workers.
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/formbricks/storefront/internal/apperrors"
	"github.com/formbricks/storefront/internal/models"
	"github.com/formbricks/storefront/internal/observability"
	"github.com/formbricks/storefront/internal/service"
	"github.com/formbricks/storefront/pkg/embeddings"
)

var errInvalidEmbedding = errors.New("embedding has wrong dimension")

// ProductEmbeddingWorker recomputes and stores the embedding of a product.
type ProductEmbeddingWorker struct {
	river.WorkerDefaults[service.ProductEmbeddingArgs]

	store   productEmbeddingStore
	client  service.EmbeddingClient
	metrics observability.EmbeddingMetrics
}

// productEmbeddingStore is the minimal interface needed by the worker.
type productEmbeddingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}

// NewProductEmbeddingWorker creates the worker. metrics may be nil when metrics are disabled.
func NewProductEmbeddingWorker(
	store productEmbeddingStore,
	client service.EmbeddingClient,
	metrics observability.EmbeddingMetrics,
) *ProductEmbeddingWorker {
	return &ProductEmbeddingWorker{
		store:   store,
		client:  client,
		metrics: metrics,
	}
}

const productEmbeddingTimeout = 30 * time.Second

// Timeout limits how long a single embedding job can run.
func (w *ProductEmbeddingWorker) Timeout(*river.Job[service.ProductEmbeddingArgs]) time.Duration {
	return productEmbeddingTimeout
}

// Work loads the product, embeds its text and persists the vector.
func (w *ProductEmbeddingWorker) Work(ctx context.Context, job *river.Job[service.ProductEmbeddingArgs]) error {
	productID := job.Args.ProductID
	start := time.Now()

	product, err := w.store.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			w.record(ctx, start, "product_not_found", "skipped")
			slog.Info("embedding: product gone, skipping", "product_id", productID)

			return nil
		}

		return w.retryable(ctx, job, start, "get_product_failed", fmt.Errorf("get product: %w", err))
	}

	text := embeddings.ProductText(product.Name, product.Description, product.Category, product.Tags)

	embedding, err := w.client.CreateEmbedding(ctx, text)
	if err != nil {
		return w.retryable(ctx, job, start, "embed_failed", fmt.Errorf("create embedding: %w", err))
	}

	if len(embedding) != embeddings.Dimensions {
		w.record(ctx, start, "invalid_embedding", "failed")
		slog.Error("embedding: invalid vector", "product_id", productID, "dimensions", len(embedding))

		return river.JobCancel(fmt.Errorf("%w: got %d", errInvalidEmbedding, len(embedding)))
	}

	err = w.store.SetEmbedding(ctx, productID, embedding)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			w.record(ctx, start, "product_not_found", "skipped")

			return nil
		}

		return w.retryable(ctx, job, start, "update_failed", fmt.Errorf("set product embedding: %w", err))
	}

	slog.Info("embedding: stored", "product_id", productID)

	w.record(ctx, start, "", "success")

	return nil
}

// retryable returns err so River retries, or logs and drops the job on its final attempt.
func (w *ProductEmbeddingWorker) retryable(
	ctx context.Context, job *river.Job[service.ProductEmbeddingArgs], start time.Time, reason string, err error,
) error {
	if job.Attempt >= job.MaxAttempts {
		w.record(ctx, start, reason, "failed")
		slog.Error("embedding: failed (final attempt)", "product_id", job.Args.ProductID, "reason", reason, "error", err)

		return nil
	}

	w.record(ctx, start, reason, "retry")

	return err
}

func (w *ProductEmbeddingWorker) record(ctx context.Context, start time.Time, reason, status string) {
	if w.metrics == nil {
		return
	}

	if reason != "" {
		w.metrics.RecordWorkerError(ctx, reason)
	}

	w.metrics.RecordEmbeddingOutcome(ctx, status)
	w.metrics.RecordEmbeddingDuration(ctx, time.Since(start), status)
}
