package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	UploadRequests     atomic.Int64
	ExtractionFailures atomic.Int64
	SearchRequests     atomic.Int64
	ProviderRequests   atomic.Int64
	ProviderErrors     atomic.Int64
	DegradedProviders  atomic.Int64
	EnrichCalls        atomic.Int64
	EnrichErrors       atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"upload_requests":     metrics.UploadRequests.Load(),
		"extraction_failures": metrics.ExtractionFailures.Load(),
		"search_requests":     metrics.SearchRequests.Load(),
		"provider_requests":   metrics.ProviderRequests.Load(),
		"provider_errors":     metrics.ProviderErrors.Load(),
		"degraded_providers":  metrics.DegradedProviders.Load(),
		"enrich_calls":        metrics.EnrichCalls.Load(),
		"enrich_errors":       metrics.EnrichErrors.Load(),
		"cache_hits":          hits,
		"cache_misses":        misses,
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	keys := []string{
		"upload_requests", "extraction_failures", "search_requests",
		"provider_requests", "provider_errors", "degraded_providers",
		"enrich_calls", "enrich_errors",
		"cache_hits", "cache_misses",
	}
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the serving layer and sub-packages.
func IncrUploadRequests()     { metrics.UploadRequests.Add(1) }
func IncrExtractionFailures() { metrics.ExtractionFailures.Add(1) }
func IncrSearchRequests()     { metrics.SearchRequests.Add(1) }
func IncrProviderRequests()   { metrics.ProviderRequests.Add(1) }
func IncrProviderErrors()     { metrics.ProviderErrors.Add(1) }
func IncrDegradedProviders()  { metrics.DegradedProviders.Add(1) }
func IncrEnrichCalls()        { metrics.EnrichCalls.Add(1) }
func IncrEnrichErrors()       { metrics.EnrichErrors.Add(1) }
