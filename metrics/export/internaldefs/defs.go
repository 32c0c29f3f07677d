package internaldefs

import (
	authgate "github.com/hollowaylabs/authgate"
)

// CounterDef binds an engine counter to its exported name and help text.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name and help text.
type HistogramDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the validation engine.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricValidateSuccess, Name: "authgate_validate_success_total", Help: "Successful validations."},
	{ID: authgate.MetricValidateRejected, Name: "authgate_validate_rejected_total", Help: "Rejected validations."},
	{ID: authgate.MetricCombinedCacheHit, Name: "authgate_combined_cache_hit_total", Help: "Validations served by the combined cache tier."},
	{ID: authgate.MetricNegativeCacheHit, Name: "authgate_negative_cache_hit_total", Help: "Validations rejected by a cached invalid verdict."},
	{ID: authgate.MetricIndividualCacheHit, Name: "authgate_individual_cache_hit_total", Help: "Validations served by the individual cache tiers."},
	{ID: authgate.MetricStoreFallback, Name: "authgate_store_fallback_total", Help: "Validations that fell back to the system of record."},
	{ID: authgate.MetricCacheError, Name: "authgate_cache_error_total", Help: "Cache operations that failed and degraded to misses."},
	{ID: authgate.MetricStoreError, Name: "authgate_store_error_total", Help: "Failed reads against the system of record."},
	{ID: authgate.MetricAccessDenied, Name: "authgate_access_denied_total", Help: "Requests denied by account access policy."},
	{ID: authgate.MetricSessionInvalidated, Name: "authgate_session_invalidated_total", Help: "Session cache invalidation operations."},
	{ID: authgate.MetricUserInvalidated, Name: "authgate_user_invalidated_total", Help: "User snapshot cache invalidation operations."},
	{ID: authgate.MetricFullInvalidation, Name: "authgate_full_invalidation_total", Help: "Full per-user cache invalidation operations."},
}

// HistogramDefs is an exported constant or variable used by the validation engine.
var HistogramDefs = []HistogramDef{
	{ID: authgate.MetricValidateLatency, Name: "authgate_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the validation engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// the Prometheus exposition format requires.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
