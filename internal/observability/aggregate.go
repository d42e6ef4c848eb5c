package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds every storefront metric collector. When metrics are disabled
// NewMetrics returns nil and components receive nil interfaces.
type Metrics struct {
	HTTP       HTTPMetrics
	API        APIMetrics
	Search     SearchMetrics
	Embeddings EmbeddingMetrics
	Cache      CacheMetrics
	Queue      QueueMetrics
}

// NewMetrics creates all collectors from meter. Returns (nil, nil) when meter is nil.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	httpMetrics, err := NewHTTPMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}

	api, err := NewAPIMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("api metrics: %w", err)
	}

	search, err := NewSearchMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("search metrics: %w", err)
	}

	embeddings, err := NewEmbeddingMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("embedding metrics: %w", err)
	}

	cache, err := NewCacheMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}

	queue, err := NewQueueMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("queue metrics: %w", err)
	}

	return &Metrics{
		HTTP:       httpMetrics,
		API:        api,
		Search:     search,
		Embeddings: embeddings,
		Cache:      cache,
		Queue:      queue,
	}, nil
}
