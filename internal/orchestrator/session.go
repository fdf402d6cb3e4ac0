package orchestrator

import (
	"context"
	"fmt"

	"canvasmind/internal/logging"
	"canvasmind/internal/prediction"
	"canvasmind/internal/project"
	"canvasmind/internal/types"
)

// =============================================================================
// SESSION OPERATIONS
// =============================================================================

const (
	suggestionThreshold   = 0.6
	suggestionsConsidered = 2
	suggestionPrompts     = 2
	maxSuggestions        = 3
)

// Suggestion is a proactive hint for the session's current project.
type Suggestion struct {
	Type       string   `json:"type"`
	Message    string   `json:"message"`
	Action     string   `json:"action"`
	Confidence float64  `json:"confidence"`
	Prompts    []string `json:"prompts,omitempty"`
}

// Outlook is the long-range view of the current project.
type Outlook struct {
	Project *types.ProjectSnapshot `json:"project"`
	Goals   []prediction.Goal      `json:"goals,omitempty"`
	Trends  prediction.Trends      `json:"trends"`
}

// AddArtifact appends an artifact to the session's current project. Cached
// results are dropped because the project's phase may have changed.
func (e *Engine) AddArtifact(ctx context.Context, sessionID string, artifact types.Artifact) (*types.ProjectSnapshot, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	if artifact.Type == "" {
		return nil, types.InvalidInput("artifact type must not be empty")
	}

	p, err := e.projects.AddArtifactToCurrent(ctx, sessionID, artifact)
	if p == nil {
		return nil, err
	}
	if err != nil {
		logging.OrchestratorWarn("Artifact stored in memory only for %s: %v", p.ID, err)
	}
	e.cache.Clear()
	logging.Orchestrator("Session %s: %s artifact added to %s (phase=%s)", sessionID, artifact.Type, p.ID, p.Phase())
	return p.Snapshot(false), err
}

// ProactiveSuggestions returns up to three suggestions built from the top
// two predictions whose probability exceeds 0.6.
func (e *Engine) ProactiveSuggestions(ctx context.Context, sessionID string, reqCtx map[string]interface{}) ([]Suggestion, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	current, err := e.projects.CurrentProject(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	preds, err := guard(componentPredictor, func() ([]types.Prediction, error) {
		return e.predictor.Predict(current, types.ParseRequestContext(reqCtx))
	})
	if err != nil {
		e.tracker.ComponentFailed(componentPredictor)
		logging.OrchestratorWarn("Suggestions unavailable: %v", err)
		return nil, nil
	}

	if len(preds) > suggestionsConsidered {
		preds = preds[:suggestionsConsidered]
	}
	var out []Suggestion
	for _, p := range preds {
		if p.Probability <= suggestionThreshold {
			continue
		}
		prompts := p.SuggestedPrompts
		if len(prompts) > suggestionPrompts {
			prompts = prompts[:suggestionPrompts]
		}
		out = append(out, Suggestion{
			Type:       "prediction",
			Message:    p.Description,
			Action:     p.Action,
			Confidence: p.Probability,
			Prompts:    prompts,
		})
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out, nil
}

// ProjectOutlook returns long-term goals and usage trends of the current
// project. Without the rule-based predictor only the project is reported.
func (e *Engine) ProjectOutlook(ctx context.Context, sessionID string, reqCtx map[string]interface{}) (*Outlook, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	current, err := e.projects.CurrentProject(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, project.ErrProjectNotFound)
	}

	out := &Outlook{Project: current.Snapshot(false), Trends: prediction.Trends{Satisfaction: prediction.SatisfactionUnknown}}
	if e.outlook != nil {
		rc := types.ParseRequestContext(reqCtx)
		out.Goals = e.outlook.LongTermGoals(current)
		out.Trends = e.outlook.UsageTrends(current, rc)
	}
	return out, nil
}

// SessionSummary summarizes the session's projects.
func (e *Engine) SessionSummary(ctx context.Context, sessionID string) (project.Summary, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	return e.projects.SessionSummary(ctx, sessionID)
}

// Statistics returns the statistics side-channel.
func (e *Engine) Statistics() types.Stats {
	return e.tracker.Snapshot()
}

// ModuleHealth returns the load status of every pluggable module.
func (e *Engine) ModuleHealth() []types.ModuleHealth {
	return e.registry.Health()
}

// EvictIdleSessions drops idle sessions from the in-memory working set.
func (e *Engine) EvictIdleSessions() int {
	return e.projects.EvictIdle()
}
