package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

const (
	productEmbeddingKind = "product_embedding"
	// EmbeddingsQueueName is the River queue used for product embedding jobs.
	EmbeddingsQueueName = "embeddings"
)

// EmbeddingJobInserter inserts embedding jobs (the River client, or RetryingInserter around it).
type EmbeddingJobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
	InsertMany(ctx context.Context, params []river.InsertManyParams) ([]*rivertype.JobInsertResult, error)
}

// ProductEmbeddingArgs is the job payload that recomputes and stores the embedding of one product.
// Unique by ProductID so that repeated edits while a job is pending collapse into one job.
type ProductEmbeddingArgs struct {
	ProductID uuid.UUID `json:"product_id" river:"unique"`
}

// Kind returns the River job kind.
func (ProductEmbeddingArgs) Kind() string { return productEmbeddingKind }

var _ river.JobArgs = ProductEmbeddingArgs{}
