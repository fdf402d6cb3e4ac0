// Package orchestrator runs the request analysis pipeline.
//
// The Engine owns every stateful collaborator (result cache, project
// manager, statistics) and resolves the pluggable analysis modules through
// the registry once at construction. It is the only place where component
// failures are absorbed: everything else reports errors to it.
package orchestrator

import (
	"fmt"
	"time"

	"canvasmind/internal/cache"
	"canvasmind/internal/config"
	"canvasmind/internal/logging"
	"canvasmind/internal/perception"
	"canvasmind/internal/prediction"
	"canvasmind/internal/project"
	"canvasmind/internal/registry"
	"canvasmind/internal/types"
	"canvasmind/internal/usage"
)

// Core module names.
const (
	ModuleClassifier = "semantic_classifier"
	ModuleIntents    = "intent_matcher"
	ModulePredictor  = "next_step_predictor"
)

// DefaultSessionID is used when a request carries no session.
const DefaultSessionID = "default"

// Engine analyzes creative requests.
type Engine struct {
	cfg      *config.Config
	cache    *cache.Cache[*types.AnalysisResult]
	registry *registry.Registry
	projects *project.Manager
	tracker  *usage.Tracker

	classifier types.Classifier
	intents    types.IntentMatcher
	predictor  types.Predictor
	enrichers  []types.Enricher

	// Optional capabilities of the real predictor.
	outlook *prediction.Predictor

	now func() time.Time
}

type options struct {
	persistence types.ProjectPersistence
	now         func() time.Time
	newID       func() string
	builders    map[string]registry.BuilderFunc
	extra       []extraModule
}

type extraModule struct {
	name    string
	builder registry.BuilderFunc
}

// Option configures an Engine.
type Option func(*options)

// WithPersistence sets the project persistence collaborator.
func WithPersistence(p types.ProjectPersistence) Option {
	return func(o *options) { o.persistence = p }
}

// WithClock injects the time source shared by every component.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator sets the project ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) { o.newID = gen }
}

// WithBuilder replaces the builder of a core module or built-in enricher.
func WithBuilder(name string, b registry.BuilderFunc) Option {
	return func(o *options) { o.builders[name] = b }
}

// WithEnricher registers an additional enricher module. It is loaded only
// when its name is listed in the modules configuration.
func WithEnricher(name string, b registry.BuilderFunc) Option {
	return func(o *options) {
		o.extra = append(o.extra, extraModule{name: name, builder: b})
	}
}

// New builds an engine from configuration. Module load failures never fail
// construction; they are substituted and reported by ModuleHealth.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "orchestrator.New")
	defer timer.Stop()

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := &options{now: time.Now, builders: make(map[string]registry.BuilderFunc)}
	for _, opt := range opts {
		opt(o)
	}
	if o.persistence == nil {
		o.persistence = project.NewMemoryStore()
	}

	e := &Engine{
		cfg:      cfg,
		cache:    cache.New[*types.AnalysisResult](cfg.Cache.Capacity, cfg.GetCacheTTL(), cache.WithClock[*types.AnalysisResult](o.now)),
		registry: registry.New(cfg.Modules.Disabled...),
		now:      o.now,
	}

	managerOpts := []project.Option{project.WithClock(o.now), project.WithSessionTTL(cfg.GetSessionTTL())}
	if o.newID != nil {
		managerOpts = append(managerOpts, project.WithIDGenerator(o.newID))
	}
	e.projects = project.NewManager(o.persistence, managerOpts...)

	if err := e.registerModules(o); err != nil {
		return nil, err
	}
	e.registry.Load()
	if err := e.resolveModules(); err != nil {
		return nil, err
	}

	e.tracker = usage.NewTracker(
		cfg.Usage.Window,
		time.Duration(cfg.Usage.SlowMS)*time.Millisecond,
		usage.WithAvailability(e.registry.Availability),
		usage.WithClock(o.now),
		usage.WithFile(cfg.Usage.Path),
	)

	logging.Boot("Engine ready: %d enrichers, %d modules", len(e.enrichers), len(e.registry.Names()))
	return e, nil
}

func (e *Engine) registerModules(o *options) error {
	weights := perception.ClassifierWeights{
		Core:                 e.cfg.Classifier.CoreWeight,
		Related:              e.cfg.Classifier.RelatedWeight,
		ConfidenceMultiplier: e.cfg.Classifier.ConfidenceMultiplier,
	}
	builder := func(name string, def registry.BuilderFunc) registry.BuilderFunc {
		if b, ok := o.builders[name]; ok {
			return b
		}
		return def
	}

	core := []struct {
		name, role string
		build      registry.BuilderFunc
		fallback   any
	}{
		{ModuleClassifier, registry.RoleClassifier, func() (any, error) {
			return perception.NewClassifier(nil, weights), nil
		}, perception.FallbackClassifier{}},
		{ModuleIntents, registry.RoleIntents, func() (any, error) {
			return perception.NewIntentMatcher(nil), nil
		}, perception.FallbackIntentMatcher{}},
		{ModulePredictor, registry.RolePredictor, func() (any, error) {
			return prediction.New(e.cfg.Prediction, prediction.WithClock(o.now))
		}, prediction.FallbackPredictor{}},
	}
	for _, m := range core {
		if err := e.registry.Register(m.name, m.role, builder(m.name, m.build), m.fallback); err != nil {
			return err
		}
	}

	// Only configured enrichers are registered. Unknown names are left to
	// LoadEnrichers, which records them as unavailable.
	available := make(map[string]registry.BuilderFunc)
	for name, en := range perception.BuiltinEnrichers() {
		en := en
		available[name] = builder(name, func() (any, error) { return en, nil })
	}
	for _, m := range o.extra {
		available[m.name] = m.builder
	}
	for _, name := range e.cfg.Modules.Enrichers {
		b, ok := available[name]
		if !ok || e.registry.Has(name) {
			continue
		}
		if err := e.registry.Register(name, registry.RoleEnricher, b, perception.FallbackEnricher{Module: name}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) resolveModules() error {
	var err error
	if e.classifier, err = registry.Resolve[types.Classifier](e.registry, ModuleClassifier); err != nil {
		return err
	}
	if e.intents, err = registry.Resolve[types.IntentMatcher](e.registry, ModuleIntents); err != nil {
		return err
	}
	if e.predictor, err = registry.Resolve[types.Predictor](e.registry, ModulePredictor); err != nil {
		return err
	}
	e.outlook, _ = e.predictor.(*prediction.Predictor)

	e.enrichers = e.registry.LoadEnrichers(e.cfg.Modules.Enrichers, func(name string) types.Enricher {
		return perception.FallbackEnricher{Module: name}
	})
	return nil
}

// Close flushes statistics.
func (e *Engine) Close() error {
	return e.tracker.Save()
}
