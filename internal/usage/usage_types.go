package usage

import "time"

// UsageData is the root structure stored in persistence.
type UsageData struct {
	Version   string           `json:"version"`
	SavedAt   time.Time        `json:"saved_at"`
	Counters  Counters         `json:"counters"`
	Latencies []int64          `json:"latencies_ms,omitempty"` // rolling window
	Errors    map[string]int64 `json:"errors_by_component,omitempty"`
}

// Counters are the monotonically increasing request counters.
type Counters struct {
	QueriesProcessed     int64 `json:"queries_processed"`
	ProjectsCreated      int64 `json:"projects_created"`
	PredictionsGenerated int64 `json:"predictions_generated"`
	CacheHits            int64 `json:"cache_hits"`
	CacheMisses          int64 `json:"cache_misses"`
	ErrorCount           int64 `json:"error_count"` // requests that finished degraded
}
