package observability

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"
)

// QueueMetrics exposes the River embedding queue depth as a gauge.
type QueueMetrics interface {
	SetRiverQueueDepth(depth int)
}

type queueMetrics struct {
	depth atomic.Int64
}

// NewQueueMetrics registers the queue depth gauge. Returns (nil, nil) when meter is nil (metrics disabled).
func NewQueueMetrics(meter metric.Meter) (QueueMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	q := &queueMetrics{}

	_, err := meter.Int64ObservableGauge(
		MetricNameRiverQueueDepth,
		metric.WithDescription("River jobs waiting in the embeddings queue (available, retryable, scheduled)"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(q.depth.Load())

			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create river queue depth gauge: %w", err)
	}

	return q, nil
}

func (q *queueMetrics) SetRiverQueueDepth(depth int) {
	q.depth.Store(int64(depth))
}
