// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the module.
const (
	// Assistant metrics.
	MetricAnalyses        = "chessassist_analyses_total"
	MetricAnalysisErrors  = "chessassist_analysis_errors_total"
	MetricAnalysisSeconds = "chessassist_analysis_seconds"
	MetricEngineSearches  = "chessassist_engine_searches_total"
	MetricVisionCalls     = "chessassist_vision_calls_total"
	MetricResultCacheHits = "chessassist_result_cache_hits_total"

	// Book metrics.
	MetricBookLookups  = "chessassist_book_lookups_total"
	MetricBookHits     = "chessassist_book_hits_total"
	MetricBookMisses   = "chessassist_book_misses_total"
	MetricShardFetches = "chessassist_shard_fetches_total"

	// Shard cache metrics.
	MetricCacheHits   = "chessassist_cache_hits_total"
	MetricCacheMisses = "chessassist_cache_misses_total"
	MetricCacheSize   = "chessassist_cache_size"

	// Server metrics.
	MetricRequests       = "chessassist_http_requests_total"
	MetricSocketSessions = "chessassist_ws_sessions"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
