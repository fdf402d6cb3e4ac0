package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"canvasmind/internal/cache"
	"canvasmind/internal/logging"
	"canvasmind/internal/perception"
	"canvasmind/internal/types"
)

// Component names used in failure records.
const (
	componentClassifier = "classifier"
	componentIntents    = "intent_matcher"
	componentProjects   = "project_store"
	componentPredictor  = "predictor"
)

// newProjectConfidence is the project-context confidence of a fresh project.
const newProjectConfidence = 0.5

// AnalyzeRequest runs the full pipeline for one request. Only input
// validation errors are returned; component failures produce a degraded
// result with Fallback set.
func (e *Engine) AnalyzeRequest(ctx context.Context, query, sessionID string, reqCtx map[string]interface{}) (*types.AnalysisResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, types.InvalidInput("query must not be empty")
	}
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	start := e.now()
	e.tracker.QueryStarted()
	key := cache.Key(query, sessionID, reqCtx)
	log := logging.WithRequestID(logging.CategoryOrchestrator, key[:12]).WithField("session", sessionID)
	log.Debug("analyzing %q", shortQuery(query))

	if cached, ok := e.cache.Get(key); ok {
		e.tracker.CacheHit()
		e.tracker.RecordLatency(e.now().Sub(start), false)
		log.Debug("served from cache")
		out := cached.Clone()
		out.FromCache = true
		return out, nil
	}
	e.tracker.CacheMiss()

	rc := types.ParseRequestContext(reqCtx).WithQuery(query)
	res := &types.AnalysisResult{Query: query, SessionID: sessionID}

	// Classification and intents.
	cluster, err := guard(componentClassifier, func() (*types.ClusterMatch, error) {
		return e.classifier.Classify(query)
	})
	if err != nil {
		e.recordFailure(res, err)
	}
	res.Cluster = cluster

	intents, err := guard(componentIntents, func() ([]types.Intent, error) {
		return e.intents.MatchIntents(query)
	})
	if err != nil {
		e.recordFailure(res, err)
	}
	res.Intents = intents

	// Project routing and compatibility.
	proj, isNew := e.routeProject(ctx, res, query, sessionID, cluster, intents)
	projectConfidence := 0.0
	if proj != nil {
		res.Project = proj.Snapshot(isNew)
		if isNew {
			e.tracker.ProjectCreated()
			projectConfidence = newProjectConfidence
		} else {
			compat := perception.AssessCompatibility(cluster, intents, perception.BuildChains(query, rc), proj)
			res.Compatibility = compat.Score
			projectConfidence = float64(compat.Score) / 100
		}
	}

	// Plug-in enrichers run concurrently.
	res.Enrichments = e.runEnrichers(ctx, res, query, rc)

	// Prediction.
	if proj != nil {
		preds, err := guard(componentPredictor, func() ([]types.Prediction, error) {
			return e.predictor.Predict(proj, rc)
		})
		if err != nil {
			e.recordFailure(res, err)
		}
		res.Predictions = preds
		e.tracker.PredictionsGenerated(len(preds))
	}

	res.Confidence = Fuse(e.cfg.Fusion, cluster, intents, proj != nil, projectConfidence)
	res.ModuleHealth = e.registry.Health()
	res.Recommendations = buildRecommendations(res, proj)
	res.ProcessingTime = e.now().Sub(start)

	if !res.Fallback {
		e.cache.Set(key, res.Clone())
	}
	e.tracker.RecordLatency(res.ProcessingTime, res.Fallback)

	log.Debug("analyzed: cluster=%s intents=%d confidence=%d fallback=%v",
		clusterName(cluster), len(intents), res.Confidence, res.Fallback)
	return res, nil
}

func (e *Engine) routeProject(ctx context.Context, res *types.AnalysisResult, query, sessionID string, cluster *types.ClusterMatch, intents []types.Intent) (*types.Project, bool) {
	concept := ""
	if cluster != nil {
		concept = cluster.ClusterName
	}
	startNew := types.HasIntent(intents, types.IntentCreateNew)

	var isNew bool
	proj, err := guard(componentProjects, func() (*types.Project, error) {
		p, created, err := e.projects.GetOrCreateProject(ctx, sessionID, query, concept, startNew)
		isNew = created
		return p, err
	})
	if err != nil {
		// A failed save still yields a usable project.
		e.recordFailure(res, err)
	}
	return proj, isNew && proj != nil
}

func (e *Engine) runEnrichers(ctx context.Context, res *types.AnalysisResult, query string, rc types.RequestContext) []types.PartialResult {
	if len(e.enrichers) == 0 {
		return nil
	}
	results := make([]types.PartialResult, len(e.enrichers))
	errs := make([]error, len(e.enrichers))

	var g errgroup.Group
	for i, en := range e.enrichers {
		i, en := i, en
		g.Go(func() error {
			name := en.Name()
			pr, err := guard(name, func() (types.PartialResult, error) {
				return en.Analyze(ctx, query, rc)
			})
			if err != nil {
				errs[i] = err
				results[i] = types.PartialResult{Module: name, Fallback: true, Error: err.Error()}
				return nil
			}
			if pr.Module == "" {
				pr.Module = name
			}
			results[i] = pr
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			e.recordFailure(res, err)
		}
	}
	return results
}

// recordFailure converts a component error into a degraded entry.
func (e *Engine) recordFailure(res *types.AnalysisResult, err error) {
	component := "unknown"
	var af *types.AnalysisFailure
	if errors.As(err, &af) {
		component = af.Component
	}
	logging.OrchestratorWarn("Component %s degraded: %v", component, err)
	e.tracker.ComponentFailed(component)
	res.Fallback = true
	res.Failures = append(res.Failures, types.ComponentFailure{Component: component, Error: err.Error()})
}

// guard runs fn and wraps its error or panic as an AnalysisFailure. The
// value returned by fn is kept even when it also returns an error.
func guard[T any](component string, fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &types.AnalysisFailure{Component: component, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	out, err = fn()
	if err != nil {
		err = &types.AnalysisFailure{Component: component, Err: err}
	}
	return out, err
}

func clusterName(c *types.ClusterMatch) string {
	if c == nil {
		return "none"
	}
	return c.ClusterName
}

func shortQuery(q string) string {
	r := []rune(q)
	if len(r) > 40 {
		return string(r[:40]) + "..."
	}
	return q
}
