// Package observability provides OpenTelemetry metrics and tracing for the storefront API.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameRequestCount          = "storefront_http_requests_total"
	MetricNameRequestDuration       = "storefront_http_request_duration_seconds"
	MetricNameRequestBodyTooLarge   = "storefront_request_body_too_large_total"
	MetricNameRateLimited           = "storefront_rate_limited_total"
	MetricNameSearchDuration        = "storefront_search_duration_seconds"
	MetricNameSearchResults         = "storefront_search_results"
	MetricNameSearchStrategyErrors  = "storefront_search_strategy_errors_total"
	MetricNameSearchUnavailable     = "storefront_search_unavailable_total"
	MetricNameEmbeddingJobsEnqueued = "storefront_embedding_jobs_enqueued_total"
	MetricNameEmbeddingEnqueueErrs  = "storefront_embedding_enqueue_errors_total"
	MetricNameEmbeddingOutcomes     = "storefront_embedding_outcomes_total"
	MetricNameEmbeddingWorkerErrors = "storefront_embedding_worker_errors_total"
	MetricNameEmbeddingDuration     = "storefront_embedding_duration_seconds"
	MetricNameCacheHits             = "storefront_cache_hits_total"
	MetricNameCacheMisses           = "storefront_cache_misses_total"
	MetricNameRiverQueueDepth       = "storefront_river_queue_depth"
)

// Attribute keys.
const (
	AttrReason      = "reason"
	AttrStatus      = "status"
	AttrStrategy    = "strategy"
	AttrMethod      = "method"
	AttrRoute       = "route"
	AttrStatusClass = "status_class"
	AttrCache       = "cache"
)

// Search strategies reported on storefront_search_strategy_errors_total and storefront_search_results.
const (
	StrategyVector = "vector"
	StrategyText   = "text"
	StrategyFuzzy  = "fuzzy"
	StrategyMerged = "merged"
)

// AllowedStrategies bounds the strategy attribute.
var AllowedStrategies = map[string]bool{
	StrategyVector: true,
	StrategyText:   true,
	StrategyFuzzy:  true,
	StrategyMerged: true,
}

// AllowedEmbeddingWorkerReasons for storefront_embedding_worker_errors_total.
var AllowedEmbeddingWorkerReasons = map[string]bool{
	"get_product_failed": true,
	"embed_failed":       true,
	"update_failed":      true,
	"product_not_found":  true,
	"invalid_embedding":  true,
}

// AllowedEmbeddingStatuses for storefront_embedding_outcomes_total and the duration histogram.
var AllowedEmbeddingStatuses = map[string]bool{
	"success": true,
	"retry":   true,
	"failed":  true,
	"skipped": true,
}

// AllowedCacheNames bounds the cache attribute.
var AllowedCacheNames = map[string]bool{
	"filter_options": true,
}

// NormalizeReason returns reason if in allowed, otherwise "other".
func NormalizeReason(reason string, allowed map[string]bool) string {
	if allowed[reason] {
		return reason
	}

	return "other"
}

// NormalizeCacheName returns name if it is a known cache, otherwise "other".
func NormalizeCacheName(name string) string {
	return NormalizeReason(name, AllowedCacheNames)
}
