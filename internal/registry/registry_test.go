package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvasmind/internal/types"
)

type greeter interface{ Greet() string }

type realGreeter struct{}

func (realGreeter) Greet() string { return "real" }

type fallbackGreeter struct{}

func (fallbackGreeter) Greet() string { return "fallback" }

func ok() (any, error) { return realGreeter{}, nil }

func TestLoadAndResolve(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("greeter", RoleClassifier, ok, fallbackGreeter{}))
	r.Load()

	g, err := Resolve[greeter](r, "greeter")
	require.NoError(t, err)
	assert.Equal(t, "real", g.Greet())

	health := r.Health()
	require.Len(t, health, 1)
	assert.Equal(t, types.ModuleHealth{Name: "greeter", Role: RoleClassifier, Available: true}, health[0])
}

func TestFailedBuildUsesFallback(t *testing.T) {
	builders := map[string]BuilderFunc{
		"errors": func() (any, error) { return nil, errors.New("boom") },
		"panics": func() (any, error) { panic("kaboom") },
		"nil":    func() (any, error) { return nil, nil },
	}
	for name, b := range builders {
		t.Run(name, func(t *testing.T) {
			r := New()
			require.NoError(t, r.Register(name, RoleEnricher, b, fallbackGreeter{}))
			r.Load()

			g, err := Resolve[greeter](r, name)
			require.NoError(t, err)
			assert.Equal(t, "fallback", g.Greet())

			h := r.Health()[0]
			assert.False(t, h.Available)
			assert.True(t, h.IsFallback)
			assert.Contains(t, h.Reason, types.ErrModuleUnavailable.Error())
		})
	}
}

func TestDisabledModuleIsNeverBuilt(t *testing.T) {
	built := false
	r := New("greeter")
	require.NoError(t, r.Register("greeter", RoleClassifier, func() (any, error) {
		built = true
		return realGreeter{}, nil
	}, fallbackGreeter{}))
	r.Load()

	g, err := Resolve[greeter](r, "greeter")
	require.NoError(t, err)
	assert.Equal(t, "fallback", g.Greet())
	assert.False(t, built)
	assert.Contains(t, r.Health()[0].Reason, "disabled")
}

func TestFailureIsPermanent(t *testing.T) {
	calls := 0
	r := New()
	require.NoError(t, r.Register("flaky", RoleEnricher, func() (any, error) {
		calls++
		return nil, errors.New("not yet")
	}, fallbackGreeter{}))
	r.Load()
	r.Load()
	_, _ = Resolve[greeter](r, "flaky")
	assert.Equal(t, 1, calls)
}

func TestRegisterValidation(t *testing.T) {
	r := New()
	assert.Error(t, r.Register("", RoleEnricher, ok, fallbackGreeter{}))
	assert.Error(t, r.Register("x", RoleEnricher, nil, fallbackGreeter{}))
	assert.Error(t, r.Register("x", RoleEnricher, ok, nil))
	require.NoError(t, r.Register("x", RoleEnricher, ok, fallbackGreeter{}))
	assert.Error(t, r.Register("x", RoleEnricher, ok, fallbackGreeter{}))
}

func TestResolveErrors(t *testing.T) {
	r := New()
	_, err := Resolve[greeter](r, "missing")
	assert.ErrorIs(t, err, types.ErrModuleUnavailable)

	require.NoError(t, r.Register("num", RoleEnricher, func() (any, error) { return 42, nil }, 0))
	_, err = Resolve[greeter](r, "num")
	assert.Error(t, err)
}

func TestResolveLoadsLazily(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("late", RoleIntents, ok, fallbackGreeter{}))
	assert.Empty(t, r.Health())

	_, err := Resolve[greeter](r, "late")
	require.NoError(t, err)
	assert.Len(t, r.Health(), 1)
}

type stubEnricher struct{ name string }

func (s stubEnricher) Name() string { return s.name }

func (s stubEnricher) Analyze(context.Context, string, types.RequestContext) (types.PartialResult, error) {
	return types.PartialResult{Module: s.name, Confidence: 0.5}, nil
}

func TestLoadEnrichers(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("clues", RoleEnricher, func() (any, error) {
		return stubEnricher{name: "clues"}, nil
	}, stubEnricher{name: "clues-fallback"}))

	unknown := func(name string) types.Enricher { return stubEnricher{name: name + "-fallback"} }
	enrichers := r.LoadEnrichers([]string{"clues", "quantum"}, unknown)

	require.Len(t, enrichers, 2)
	assert.Equal(t, "clues", enrichers[0].Name())
	assert.Equal(t, "quantum-fallback", enrichers[1].Name())

	health := r.Health()
	require.Len(t, health, 2)
	assert.True(t, health[0].Available)
	assert.True(t, health[1].IsFallback)
	assert.Equal(t, RoleEnricher, health[1].Role)
}

func TestAvailability(t *testing.T) {
	r := New("b")
	require.NoError(t, r.Register("a", RoleClassifier, ok, fallbackGreeter{}))
	require.NoError(t, r.Register("b", RoleIntents, ok, fallbackGreeter{}))
	r.Load()

	available, total := r.Availability()
	assert.Equal(t, 1, available)
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{"a", "b"}, r.Names())
}

func TestConcurrentResolve(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("g", RoleClassifier, ok, fallbackGreeter{}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := Resolve[greeter](r, "g")
			assert.NoError(t, err)
			assert.Equal(t, "real", g.Greet())
		}()
	}
	wg.Wait()
	assert.Len(t, r.Health(), 1)
}
