// Package registry loads pluggable analysis modules and substitutes a
// fallback for every module that fails to load.
//
// A module is registered under a unique name with a role, a builder and a
// fallback. Load runs every builder once; failures are permanent for the
// lifetime of the registry and are only visible through Health.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"canvasmind/internal/logging"
	"canvasmind/internal/types"
)

// Module roles.
const (
	RoleClassifier = "classifier"
	RoleIntents    = "intents"
	RolePredictor  = "predictor"
	RoleEnricher   = "enricher"
)

// BuilderFunc constructs a module.
type BuilderFunc func() (any, error)

type entry struct {
	name     string
	role     string
	builder  BuilderFunc
	fallback any

	module any
	health types.ModuleHealth
	loaded bool
}

// Registry maps module names to their builders and loaded instances.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	order    []string
	disabled map[string]bool
}

// New creates a registry. Modules named in disabled are never built and
// always resolve to their fallback.
func New(disabled ...string) *Registry {
	r := &Registry{
		entries:  make(map[string]*entry),
		disabled: make(map[string]bool, len(disabled)),
	}
	for _, name := range disabled {
		r.disabled[name] = true
	}
	return r
}

// Register adds a module. Name must be unique.
func (r *Registry) Register(name, role string, builder BuilderFunc, fallback any) error {
	if name == "" || builder == nil || fallback == nil {
		return fmt.Errorf("register %q: name, builder and fallback are required", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("module %q already registered", name)
	}
	r.entries[name] = &entry{name: name, role: role, builder: builder, fallback: fallback}
	r.order = append(r.order, name)
	return nil
}

// Has reports whether a module is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Names returns module names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Load builds every registered module that has not been loaded yet. A
// builder that errors or panics is replaced by its fallback.
func (r *Registry) Load() {
	timer := logging.StartTimer(logging.CategoryRegistry, "Load")
	defer timer.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range r.order {
		e := r.entries[name]
		if e.loaded {
			continue
		}
		r.loadLocked(e)
	}
}

func (r *Registry) loadLocked(e *entry) {
	e.loaded = true
	e.health = types.ModuleHealth{Name: e.name, Role: e.role}

	if r.disabled[e.name] {
		r.useFallbackLocked(e, fmt.Errorf("%w: disabled by configuration", types.ErrModuleUnavailable))
		return
	}

	module, err := build(e.builder)
	if err == nil && module == nil {
		err = errors.New("builder returned nil module")
	}
	if err != nil {
		r.useFallbackLocked(e, fmt.Errorf("%w: %v", types.ErrModuleUnavailable, err))
		return
	}
	e.module = module
	e.health.Available = true
	logging.RegistryDebug("Loaded module %s (%s)", e.name, e.role)
}

func (r *Registry) useFallbackLocked(e *entry, reason error) {
	e.module = e.fallback
	e.health.Available = false
	e.health.IsFallback = true
	e.health.Reason = reason.Error()
	logging.RegistryWarn("Module %s unavailable, using fallback: %v", e.name, reason)
}

// build runs a builder and converts a panic into an error.
func build(b BuilderFunc) (module any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			module, err = nil, fmt.Errorf("builder panicked: %v", rec)
		}
	}()
	return b()
}

// Resolve returns the loaded module (or its fallback) as T. Modules that
// were registered after the last Load are loaded on first resolve.
func Resolve[T any](r *Registry, name string) (T, error) {
	var zero T
	r.mu.Lock()
	e, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return zero, fmt.Errorf("%w: unknown module %q", types.ErrModuleUnavailable, name)
	}
	if !e.loaded {
		r.loadLocked(e)
	}
	module := e.module
	r.mu.Unlock()

	typed, ok := module.(T)
	if !ok {
		return zero, fmt.Errorf("module %q is %T, not the requested type", name, module)
	}
	return typed, nil
}

// LoadEnrichers resolves the named enrichers in order. A name that is not
// registered gets the fallback built by unknown and is recorded as such.
func (r *Registry) LoadEnrichers(names []string, unknown func(name string) types.Enricher) []types.Enricher {
	out := make([]types.Enricher, 0, len(names))
	for _, name := range names {
		if !r.Has(name) && unknown != nil {
			fb := unknown(name)
			_ = r.Register(name, RoleEnricher, func() (any, error) {
				return nil, errors.New("module not found")
			}, fb)
		}
		en, err := Resolve[types.Enricher](r, name)
		if err != nil {
			logging.RegistryWarn("Skipping enricher %s: %v", name, err)
			continue
		}
		out = append(out, en)
	}
	logging.Registry("Loaded %d enrichers", len(out))
	return out
}

// Health returns the status of every loaded module in registration order.
func (r *Registry) Health() []types.ModuleHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.ModuleHealth, 0, len(r.order))
	for _, name := range r.order {
		if e := r.entries[name]; e.loaded {
			out = append(out, e.health)
		}
	}
	return out
}

// Availability counts loaded modules and how many of them are real.
func (r *Registry) Availability() (available, total int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if !e.loaded {
			continue
		}
		total++
		if e.health.Available {
			available++
		}
	}
	return available, total
}
