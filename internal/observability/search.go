package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SearchMetrics records hybrid search latency, result sizes and strategy failures.
type SearchMetrics interface {
	RecordSearch(ctx context.Context, duration time.Duration, resultCount int)
	RecordStrategyResults(ctx context.Context, strategy string, count int)
	RecordStrategyError(ctx context.Context, strategy string)
	RecordUnavailable(ctx context.Context)
}

type searchMetrics struct {
	duration       metric.Float64Histogram
	results        metric.Int64Histogram
	strategyErrors metric.Int64Counter
	unavailable    metric.Int64Counter
}

// NewSearchMetrics creates SearchMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewSearchMetrics(meter metric.Meter) (SearchMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	duration, err := meter.Float64Histogram(
		MetricNameSearchDuration,
		metric.WithDescription("Hybrid search duration in seconds, all strategies and merge"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create search duration histogram: %w", err)
	}

	results, err := meter.Int64Histogram(
		MetricNameSearchResults,
		metric.WithDescription("Candidates per strategy and merged results per search"),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 20, 30, 50),
	)
	if err != nil {
		return nil, fmt.Errorf("create search results histogram: %w", err)
	}

	strategyErrors, err := meter.Int64Counter(
		MetricNameSearchStrategyErrors,
		metric.WithDescription("Search strategy failures (strategy contributes no candidates)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create search strategy errors counter: %w", err)
	}

	unavailable, err := meter.Int64Counter(
		MetricNameSearchUnavailable,
		metric.WithDescription("Searches where every strategy failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("create search unavailable counter: %w", err)
	}

	return &searchMetrics{
		duration:       duration,
		results:        results,
		strategyErrors: strategyErrors,
		unavailable:    unavailable,
	}, nil
}

func attrStrategy(strategy string) attribute.KeyValue {
	return attribute.String(AttrStrategy, NormalizeReason(strategy, AllowedStrategies))
}

func (s *searchMetrics) RecordSearch(ctx context.Context, duration time.Duration, resultCount int) {
	s.duration.Record(ctx, duration.Seconds())
	s.results.Record(ctx, int64(resultCount), metric.WithAttributes(attrStrategy(StrategyMerged)))
}

func (s *searchMetrics) RecordStrategyResults(ctx context.Context, strategy string, count int) {
	s.results.Record(ctx, int64(count), metric.WithAttributes(attrStrategy(strategy)))
}

func (s *searchMetrics) RecordStrategyError(ctx context.Context, strategy string) {
	s.strategyErrors.Add(ctx, 1, metric.WithAttributes(attrStrategy(strategy)))
}

func (s *searchMetrics) RecordUnavailable(ctx context.Context) {
	s.unavailable.Add(ctx, 1)
}
