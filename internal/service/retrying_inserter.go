package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

const (
	defaultInitialBackoff = 500 * time.Millisecond
	backoffMultiplier     = 2
)

// RetryingInserter wraps an EmbeddingJobInserter and retries failed inserts
// with exponential backoff and jitter.
type RetryingInserter struct {
	inner          EmbeddingJobInserter
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	sleepFn        func(ctx context.Context, d time.Duration) error
}

// RetryingInserterConfig holds configuration for the retrying inserter.
type RetryingInserterConfig struct {
	MaxRetries     int           // Retries after the first attempt (total attempts = 1 + MaxRetries).
	InitialBackoff time.Duration // Backoff after the first failure; doubles each attempt.
	MaxBackoff     time.Duration // Upper bound on backoff between attempts.
}

// NewRetryingInserter returns an inserter that retries inner on error.
func NewRetryingInserter(inner EmbeddingJobInserter, cfg RetryingInserterConfig) *RetryingInserter {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}

	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}

	return &RetryingInserter{
		inner:          inner,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		sleepFn:        sleepCtx,
	}
}

// Insert calls the inner Insert, retrying on error.
func (r *RetryingInserter) Insert(
	ctx context.Context, args river.JobArgs, opts *river.InsertOpts,
) (*rivertype.JobInsertResult, error) {
	return retry(ctx, r, "insert", func() (*rivertype.JobInsertResult, error) {
		return r.inner.Insert(ctx, args, opts)
	})
}

// InsertMany calls the inner InsertMany, retrying on error.
func (r *RetryingInserter) InsertMany(
	ctx context.Context, params []river.InsertManyParams,
) ([]*rivertype.JobInsertResult, error) {
	return retry(ctx, r, "insert_many", func() ([]*rivertype.JobInsertResult, error) {
		return r.inner.InsertMany(ctx, params)
	})
}

func retry[T any](ctx context.Context, r *RetryingInserter, op string, fn func() (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)

	backoff := r.initialBackoff

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if attempt == r.maxRetries {
			break
		}

		wait := jitter(backoff)
		slog.WarnContext(ctx, "embedding enqueue failed, retrying after backoff",
			"op", op,
			"attempt", attempt+1,
			"max_attempts", r.maxRetries+1,
			"backoff", wait,
			"error", err,
		)

		if err := r.sleepFn(ctx, wait); err != nil {
			return zero, err
		}

		backoff = min(backoff*backoffMultiplier, r.maxBackoff)
	}

	return zero, lastErr
}

// jitter returns a duration between 50% and 100% of d.
func jitter(d time.Duration) time.Duration {
	half := d / 2
	if half <= 0 {
		return d
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return half
	}

	//nolint:gosec // G115: modulo result is in [0, half), fits in int64
	return half + time.Duration(binary.BigEndian.Uint64(buf[:])%uint64(half))
}

// sleepCtx blocks for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

var _ EmbeddingJobInserter = (*RetryingInserter)(nil)
