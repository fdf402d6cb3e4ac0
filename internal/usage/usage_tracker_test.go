package usage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestTracker_CountersAndAverage(t *testing.T) {
	tracker := NewTracker(100, 5*time.Second)

	tracker.QueryStarted()
	tracker.CacheMiss()
	tracker.ProjectCreated()
	tracker.PredictionsGenerated(3)
	tracker.RecordLatency(100*time.Millisecond, false)

	tracker.QueryStarted()
	tracker.CacheHit()
	tracker.RecordLatency(300*time.Millisecond, false)

	stats := tracker.Snapshot()
	if stats.QueriesProcessed != 2 || stats.CacheHits != 1 || stats.CacheMisses != 1 {
		t.Fatalf("counters=%+v", stats)
	}
	if stats.ProjectsCreated != 1 || stats.PredictionsGenerated != 3 {
		t.Fatalf("counters=%+v", stats)
	}
	if stats.AverageResponseMs != 200 {
		t.Fatalf("AverageResponseMs=%d, want 200", stats.AverageResponseMs)
	}
	// speed factor 1 - 200/5000 = 0.96
	if stats.SystemHealth != 96 {
		t.Fatalf("SystemHealth=%d, want 96", stats.SystemHealth)
	}
}

func TestTracker_HealthStartsFull(t *testing.T) {
	if got := NewTracker(100, 5*time.Second).Snapshot().SystemHealth; got != 100 {
		t.Fatalf("SystemHealth=%d, want 100", got)
	}
}

func TestTracker_ErrorRateLowersHealth(t *testing.T) {
	tracker := NewTracker(100, 5*time.Second)
	for i := 0; i < 4; i++ {
		tracker.QueryStarted()
		tracker.RecordLatency(0, i == 0)
	}
	tracker.ComponentFailed("classifier")

	stats := tracker.Snapshot()
	if stats.ErrorCount != 1 {
		t.Fatalf("ErrorCount=%d, want 1", stats.ErrorCount)
	}
	if stats.SystemHealth != 75 {
		t.Fatalf("SystemHealth=%d, want 75", stats.SystemHealth)
	}
	if got := tracker.ComponentErrors()["classifier"]; got != 1 {
		t.Fatalf("ComponentErrors[classifier]=%d, want 1", got)
	}
}

func TestTracker_SlowRequestsZeroHealth(t *testing.T) {
	tracker := NewTracker(100, 5*time.Second)
	tracker.QueryStarted()
	tracker.RecordLatency(6*time.Second, false)
	if got := tracker.Snapshot().SystemHealth; got != 0 {
		t.Fatalf("SystemHealth=%d, want 0", got)
	}
}

func TestTracker_AvailabilityLowersHealth(t *testing.T) {
	full := NewTracker(100, 5*time.Second, WithAvailability(func() (int, int) { return 4, 4 }))
	degraded := NewTracker(100, 5*time.Second, WithAvailability(func() (int, int) { return 3, 4 }))

	a, b := full.Snapshot().SystemHealth, degraded.Snapshot().SystemHealth
	if a != 100 {
		t.Fatalf("full health=%d, want 100", a)
	}
	// 0.5 + 0.5*3/4 = 0.875
	if b != 88 {
		t.Fatalf("degraded health=%d, want 88", b)
	}
}

func TestTracker_LatencyWindowTrims(t *testing.T) {
	tracker := NewTracker(100, 5*time.Second)
	for i := 0; i < 100; i++ {
		tracker.RecordLatency(10*time.Millisecond, false)
	}
	if len(tracker.data.Latencies) != 100 {
		t.Fatalf("window=%d, want 100", len(tracker.data.Latencies))
	}
	tracker.RecordLatency(1010*time.Millisecond, false)
	if len(tracker.data.Latencies) != 50 {
		t.Fatalf("window=%d, want 50 after trim", len(tracker.data.Latencies))
	}
	// 49 samples of 10ms and the newest 1010ms.
	if got := tracker.Snapshot().AverageResponseMs; got != 30 {
		t.Fatalf("AverageResponseMs=%d, want 30", got)
	}
}

func TestTracker_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats", "usage.json")
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tracker := NewTracker(100, 5*time.Second, WithFile(path), WithClock(func() time.Time { return now }))
	tracker.QueryStarted()
	tracker.CacheMiss()
	tracker.RecordLatency(40*time.Millisecond, false)
	tracker.ComponentFailed("predictor")
	if err := tracker.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var persisted UsageData
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if persisted.Counters.QueriesProcessed != 1 || !persisted.SavedAt.Equal(now) {
		t.Fatalf("persisted=%+v", persisted)
	}

	reloaded := NewTracker(100, 5*time.Second, WithFile(path))
	stats := reloaded.Snapshot()
	if stats.QueriesProcessed != 1 || stats.CacheMisses != 1 || stats.AverageResponseMs != 40 {
		t.Fatalf("reloaded=%+v", stats)
	}
	if reloaded.ComponentErrors()["predictor"] != 1 {
		t.Fatalf("component errors not restored")
	}
}

func TestTracker_LoadCorruptFileKeepsEmptyStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	tracker := NewTracker(100, 5*time.Second, WithFile(path))
	if got := tracker.Snapshot().QueriesProcessed; got != 0 {
		t.Fatalf("QueriesProcessed=%d, want 0", got)
	}
	if err := tracker.Load(); err == nil {
		t.Fatalf("Load on corrupt file should fail")
	}
}

func TestTracker_SaveWithoutFileIsNoop(t *testing.T) {
	if err := NewTracker(100, 5*time.Second).Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := NewTracker(100, 5*time.Second)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.QueryStarted()
			tracker.CacheMiss()
			tracker.RecordLatency(time.Millisecond, false)
			_ = tracker.Snapshot()
		}()
	}
	wg.Wait()
	if got := tracker.Snapshot().QueriesProcessed; got != 50 {
		t.Fatalf("QueriesProcessed=%d, want 50", got)
	}
}
