package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockInserter struct {
	insertFunc     func(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
	insertManyFunc func(ctx context.Context, params []river.InsertManyParams) ([]*rivertype.JobInsertResult, error)
	insertCalls    int
	insertManyArgs [][]river.InsertManyParams
}

func (m *mockInserter) Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	m.insertCalls++

	if m.insertFunc != nil {
		return m.insertFunc(ctx, args, opts)
	}

	return &rivertype.JobInsertResult{}, nil
}

func (m *mockInserter) InsertMany(ctx context.Context, params []river.InsertManyParams) ([]*rivertype.JobInsertResult, error) {
	m.insertManyArgs = append(m.insertManyArgs, params)

	if m.insertManyFunc != nil {
		return m.insertManyFunc(ctx, params)
	}

	results := make([]*rivertype.JobInsertResult, len(params))
	for i := range params {
		results[i] = &rivertype.JobInsertResult{}
	}

	return results, nil
}

type recordingEmbeddingMetrics struct {
	enqueued      int64
	enqueueErrors int
	outcomes      []string
	workerErrors  []string
}

func (m *recordingEmbeddingMetrics) RecordJobsEnqueued(_ context.Context, count int64) { m.enqueued += count }
func (m *recordingEmbeddingMetrics) RecordEnqueueError(context.Context) { m.enqueueErrors++ }
func (m *recordingEmbeddingMetrics) RecordEmbeddingOutcome(_ context.Context, status string) {
	m.outcomes = append(m.outcomes, status)
}

func (m *recordingEmbeddingMetrics) RecordWorkerError(_ context.Context, reason string) {
	m.workerErrors = append(m.workerErrors, reason)
}

func (m *recordingEmbeddingMetrics) RecordEmbeddingDuration(context.Context, time.Duration, string) {}

func TestEmbeddingEnqueuer_Enqueue(t *testing.T) {
	id := uuid.New()

	t.Run("inserts unique job on embeddings queue", func(t *testing.T) {
		metrics := &recordingEmbeddingMetrics{}
		inserter := &mockInserter{
			insertFunc: func(_ context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error) {
				assert.Equal(t, ProductEmbeddingArgs{ProductID: id}, args)
				assert.Equal(t, EmbeddingsQueueName, opts.Queue)
				assert.Equal(t, 3, opts.MaxAttempts)
				assert.True(t, opts.UniqueOpts.ByArgs)

				return &rivertype.JobInsertResult{}, nil
			},
		}

		err := NewEmbeddingEnqueuer(inserter, EmbeddingsQueueName, 3, metrics).Enqueue(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), metrics.enqueued)
	})

	t.Run("duplicate is not counted", func(t *testing.T) {
		metrics := &recordingEmbeddingMetrics{}
		inserter := &mockInserter{
			insertFunc: func(context.Context, river.JobArgs, *river.InsertOpts) (*rivertype.JobInsertResult, error) {
				return &rivertype.JobInsertResult{UniqueSkippedAsDuplicate: true}, nil
			},
		}

		require.NoError(t, NewEmbeddingEnqueuer(inserter, EmbeddingsQueueName, 3, metrics).Enqueue(context.Background(), id))
		assert.Equal(t, int64(0), metrics.enqueued)
	})

	t.Run("insert error is returned and counted", func(t *testing.T) {
		metrics := &recordingEmbeddingMetrics{}
		inserter := &mockInserter{
			insertFunc: func(context.Context, river.JobArgs, *river.InsertOpts) (*rivertype.JobInsertResult, error) {
				return nil, errors.New("db down")
			},
		}

		err := NewEmbeddingEnqueuer(inserter, EmbeddingsQueueName, 3, metrics).Enqueue(context.Background(), id)
		require.Error(t, err)
		assert.Equal(t, 1, metrics.enqueueErrors)
	})

	t.Run("nil metrics", func(t *testing.T) {
		require.NoError(t, NewEmbeddingEnqueuer(&mockInserter{}, EmbeddingsQueueName, 3, nil).Enqueue(context.Background(), id))
	})
}

func TestEmbeddingEnqueuer_EnqueueMany(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	t.Run("empty", func(t *testing.T) {
		inserter := &mockInserter{}

		n, err := NewEmbeddingEnqueuer(inserter, EmbeddingsQueueName, 3, nil).EnqueueMany(context.Background(), nil)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, inserter.insertManyArgs)
	})

	t.Run("counts inserted jobs", func(t *testing.T) {
		metrics := &recordingEmbeddingMetrics{}
		inserter := &mockInserter{
			insertManyFunc: func(_ context.Context, params []river.InsertManyParams) ([]*rivertype.JobInsertResult, error) {
				require.Len(t, params, 3)
				assert.Equal(t, ProductEmbeddingArgs{ProductID: ids[1]}, params[1].Args)

				return []*rivertype.JobInsertResult{{}, {UniqueSkippedAsDuplicate: true}, {}}, nil
			},
		}

		n, err := NewEmbeddingEnqueuer(inserter, EmbeddingsQueueName, 3, metrics).EnqueueMany(context.Background(), ids)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, int64(2), metrics.enqueued)
	})
}

func TestRetryingInserter(t *testing.T) {
	noSleep := func(context.Context, time.Duration) error { return nil }

	t.Run("succeeds after transient failures", func(t *testing.T) {
		failures := 2
		inner := &mockInserter{
			insertFunc: func(context.Context, river.JobArgs, *river.InsertOpts) (*rivertype.JobInsertResult, error) {
				if failures > 0 {
					failures--

					return nil, errors.New("transient")
				}

				return &rivertype.JobInsertResult{}, nil
			},
		}

		r := NewRetryingInserter(inner, RetryingInserterConfig{MaxRetries: 3})
		r.sleepFn = noSleep

		_, err := r.Insert(context.Background(), ProductEmbeddingArgs{}, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, inner.insertCalls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		inner := &mockInserter{
			insertFunc: func(context.Context, river.JobArgs, *river.InsertOpts) (*rivertype.JobInsertResult, error) {
				return nil, errors.New("permanent")
			},
		}

		r := NewRetryingInserter(inner, RetryingInserterConfig{MaxRetries: 2})
		r.sleepFn = noSleep

		_, err := r.Insert(context.Background(), ProductEmbeddingArgs{}, nil)
		require.EqualError(t, err, "permanent")
		assert.Equal(t, 3, inner.insertCalls)
	})

	t.Run("cancelled context stops backoff", func(t *testing.T) {
		inner := &mockInserter{
			insertManyFunc: func(context.Context, []river.InsertManyParams) ([]*rivertype.JobInsertResult, error) {
				return nil, errors.New("transient")
			},
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r := NewRetryingInserter(inner, RetryingInserterConfig{MaxRetries: 5, InitialBackoff: time.Hour})

		_, err := r.InsertMany(ctx, []river.InsertManyParams{{Args: ProductEmbeddingArgs{}}})
		require.ErrorIs(t, err, context.Canceled)
		assert.Len(t, inner.insertManyArgs, 1)
	})
}

func TestJitter(t *testing.T) {
	for range 100 {
		d := jitter(time.Second)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.Less(t, d, time.Second)
	}

	assert.Equal(t, time.Duration(1), jitter(1))
}
