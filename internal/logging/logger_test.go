package logging

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level, cats map[string]bool) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	Use(zap.New(core), cats)
	t.Cleanup(func() { Use(zap.NewNop(), nil) })
	return logs
}

func TestCategoryLoggersAreNamed(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, nil)

	for _, cat := range AllCategories {
		Get(cat).Info("hello %s", cat)
	}

	entries := logs.All()
	require.Len(t, entries, len(AllCategories))
	for i, cat := range AllCategories {
		assert.Equal(t, string(cat), entries[i].LoggerName)
		assert.Equal(t, "hello "+string(cat), entries[i].Message)
	}
}

func TestDisabledCategoryIsSilent(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, map[string]bool{"cache": false, "store": true})

	CacheDebug("dropped")
	Store("kept")
	Perception("kept too")

	assert.False(t, IsCategoryEnabled(CategoryCache))
	assert.True(t, IsCategoryEnabled(CategoryPerception))
	assert.Equal(t, 2, logs.Len())
}

func TestLevelFiltering(t *testing.T) {
	logs := observe(t, zapcore.WarnLevel, nil)

	PerceptionDebug("debug")
	Perception("info")
	PerceptionWarn("warn")
	OrchestratorError("error")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[1].Level)
}

func TestRequestLoggerCarriesFields(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, nil)

	WithRequestID(CategoryOrchestrator, "req-1").WithField("session", "s1").Info("analyzed")

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", ctx["req"])
	assert.Equal(t, "s1", ctx["session"])
}

func TestStructuredLog(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, nil)

	Get(CategoryUsage).StructuredLog("warn", "slow request", map[string]interface{}{"ms": 6000})

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.EqualValues(t, 6000, logs.All()[0].ContextMap()["ms"])
}

func TestTimerThreshold(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, nil)

	timer := StartTimer(CategoryOrchestrator, "analyze")
	timer.start = time.Now().Add(-time.Second)
	elapsed := timer.StopWithThreshold(10 * time.Millisecond)

	assert.GreaterOrEqual(t, elapsed, time.Second)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"DEBUG":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestInitializeWritesFile(t *testing.T) {
	t.Cleanup(func() { Use(zap.NewNop(), nil) })
	path := filepath.Join(t.TempDir(), "canvasmind.log")

	require.NoError(t, Initialize(Options{Level: "debug", Format: "json", File: path}))
	Store("opened %s", "db")
	Sync()

	assert.FileExists(t, path)
}

func TestConcurrentGet(t *testing.T) {
	observe(t, zapcore.InfoLevel, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, cat := range AllCategories {
				Get(cat).Info("concurrent")
			}
		}()
	}
	wg.Wait()
}

func TestNopBeforeInitialize(t *testing.T) {
	Use(zap.NewNop(), nil)
	assert.NotPanics(t, func() {
		Boot("nothing")
		WithRequestID(CategoryBoot, "x").Error("nothing")
		StartTimer(CategoryBoot, "noop").Stop()
	})
}
