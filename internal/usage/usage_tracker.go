// Package usage keeps request counters, the rolling latency window and the
// composite system health score.
package usage

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"canvasmind/internal/logging"
	"canvasmind/internal/types"
)

const dataVersion = "1.0"

// AvailabilityFunc reports how many pluggable modules loaded for real.
type AvailabilityFunc func() (available, total int)

// Tracker records statistics. Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	data     UsageData
	filePath string
	window   int
	slow     time.Duration

	availability AvailabilityFunc
	now          func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithAvailability supplies module availability for the health score.
func WithAvailability(fn AvailabilityFunc) Option {
	return func(t *Tracker) { t.availability = fn }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithFile persists statistics at path on Save and reads them on creation.
func WithFile(path string) Option {
	return func(t *Tracker) { t.filePath = path }
}

// NewTracker creates a tracker. window is the latency sample limit (trimmed
// to its last half once exceeded); slow is the latency at which the speed
// factor reaches zero.
func NewTracker(window int, slow time.Duration, opts ...Option) *Tracker {
	if window <= 1 {
		window = 100
	}
	if slow <= 0 {
		slow = 5 * time.Second
	}
	t := &Tracker{
		data:   UsageData{Version: dataVersion, Errors: make(map[string]int64)},
		window: window,
		slow:   slow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.filePath != "" {
		if err := t.Load(); err != nil {
			logging.UsageWarn("Ignoring unreadable statistics file %s: %v", t.filePath, err)
		}
	}
	return t
}

// =============================================================================
// RECORDING
// =============================================================================

// QueryStarted counts an incoming request.
func (t *Tracker) QueryStarted() {
	t.mu.Lock()
	t.data.Counters.QueriesProcessed++
	t.mu.Unlock()
}

// CacheHit counts a request served from the result cache.
func (t *Tracker) CacheHit() {
	t.mu.Lock()
	t.data.Counters.CacheHits++
	t.mu.Unlock()
}

// CacheMiss counts a request that had to be computed.
func (t *Tracker) CacheMiss() {
	t.mu.Lock()
	t.data.Counters.CacheMisses++
	t.mu.Unlock()
}

// ProjectCreated counts a newly created project.
func (t *Tracker) ProjectCreated() {
	t.mu.Lock()
	t.data.Counters.ProjectsCreated++
	t.mu.Unlock()
}

// PredictionsGenerated adds n predictions.
func (t *Tracker) PredictionsGenerated(n int) {
	t.mu.Lock()
	t.data.Counters.PredictionsGenerated += int64(n)
	t.mu.Unlock()
}

// ComponentFailed counts one failure of a named component.
func (t *Tracker) ComponentFailed(component string) {
	t.mu.Lock()
	t.data.Errors[component]++
	t.mu.Unlock()
}

// RecordLatency adds a response time sample. failed marks a request that
// finished degraded.
func (t *Tracker) RecordLatency(d time.Duration, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data.Latencies = append(t.data.Latencies, d.Milliseconds())
	if len(t.data.Latencies) > t.window {
		keep := t.window / 2
		t.data.Latencies = append([]int64(nil), t.data.Latencies[len(t.data.Latencies)-keep:]...)
	}
	if failed {
		t.data.Counters.ErrorCount++
	}
	if d >= t.slow {
		logging.UsageWarn("Slow request: %v", d)
	}
}

// =============================================================================
// READING
// =============================================================================

// Snapshot returns the statistics side-channel view.
func (t *Tracker) Snapshot() types.Stats {
	t.mu.Lock()
	c := t.data.Counters
	avg := t.averageLocked()
	t.mu.Unlock()

	return types.Stats{
		QueriesProcessed:     c.QueriesProcessed,
		ProjectsCreated:      c.ProjectsCreated,
		PredictionsGenerated: c.PredictionsGenerated,
		CacheHits:            c.CacheHits,
		CacheMisses:          c.CacheMisses,
		ErrorCount:           c.ErrorCount,
		AverageResponseMs:    int64(math.Round(avg)),
		SystemHealth:         t.health(c, avg),
	}
}

// ComponentErrors returns a copy of the per-component failure counts.
func (t *Tracker) ComponentErrors() map[string]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int64, len(t.data.Errors))
	for k, v := range t.data.Errors {
		out[k] = v
	}
	return out
}

func (t *Tracker) averageLocked() float64 {
	if len(t.data.Latencies) == 0 {
		return 0
	}
	var sum int64
	for _, ms := range t.data.Latencies {
		sum += ms
	}
	return float64(sum) / float64(len(t.data.Latencies))
}

// health = (1 - errorRate) * speedFactor * availability * 100.
func (t *Tracker) health(c Counters, avgMS float64) int {
	errorRate := 0.0
	if c.QueriesProcessed > 0 {
		errorRate = math.Min(1, float64(c.ErrorCount)/float64(c.QueriesProcessed))
	}
	speed := math.Max(0, 1-avgMS/float64(t.slow.Milliseconds()))

	availability := 1.0
	if t.availability != nil {
		if available, total := t.availability(); total > 0 {
			availability = 0.5 + 0.5*float64(available)/float64(total)
		}
	}
	return int(math.Round((1 - errorRate) * speed * availability * 100))
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Load reads statistics from the tracker's file. A missing file is not an error.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var loaded UsageData
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse statistics: %w", err)
	}
	if loaded.Errors == nil {
		loaded.Errors = make(map[string]int64)
	}
	if len(loaded.Latencies) > t.window {
		loaded.Latencies = loaded.Latencies[len(loaded.Latencies)-t.window/2:]
	}
	t.data = loaded
	logging.UsageDebug("Loaded statistics from %s (%d queries)", t.filePath, loaded.Counters.QueriesProcessed)
	return nil
}

// Save writes statistics to the tracker's file.
func (t *Tracker) Save() error {
	if t.filePath == "" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data.Version = dataVersion
	t.data.SavedAt = t.now()
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(t.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create statistics dir: %w", err)
	}
	return os.WriteFile(t.filePath, data, 0644)
}
