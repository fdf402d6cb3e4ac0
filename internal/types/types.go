// Package types provides shared type definitions used across canvasmind packages.
// This package exists to break import cycles between perception, prediction,
// project and orchestrator. Types in this package should be foundational data
// structures with no complex dependencies.
package types

import "time"

// =============================================================================
// CLASSIFICATION TYPES
// =============================================================================

// SemanticCluster is a static catalog entry describing one creative domain.
type SemanticCluster struct {
	Name             string
	Core             []string // weighted 10 per hit
	Related          []string // weighted 5 per hit
	Implications     []string // implied technical requirements
	TypicalNextSteps []string // ordered
}

// ClusterMatch is the winning cluster for a single request.
type ClusterMatch struct {
	ClusterName         string   `json:"cluster_name"`
	Score               int      `json:"score"`
	Confidence          float64  `json:"confidence"` // 0-100
	MatchedCoreTerms    []string `json:"matched_core_terms,omitempty"`
	MatchedRelatedTerms []string `json:"matched_related_terms,omitempty"`
	TypicalNextSteps    []string `json:"typical_next_steps,omitempty"`
}

// IntentType is the kind of action a request implies.
type IntentType string

const (
	IntentModifyExisting   IntentType = "modify_existing"
	IntentCreateNew        IntentType = "create_new"
	IntentEnhanceExisting  IntentType = "enhance_existing"
	IntentCreateVariation  IntentType = "create_variation"
	IntentFormatConversion IntentType = "format_conversion"
)

// Intent is one matched entry of the intent pattern table.
type Intent struct {
	Name            string     `json:"name"`
	Type            IntentType `json:"type"`
	Confidence      float64    `json:"confidence"` // 0-1
	MatchedPatterns []string   `json:"matched_patterns,omitempty"`
}

// HasIntent reports whether any intent in the list has the given type.
func HasIntent(intents []Intent, t IntentType) bool {
	for _, in := range intents {
		if in.Type == t {
			return true
		}
	}
	return false
}

// =============================================================================
// PREDICTION TYPES
// =============================================================================

// PredictionSource distinguishes rule-table predictions from behavioral ones.
type PredictionSource string

const (
	SourceRule       PredictionSource = "rule"
	SourceBehavioral PredictionSource = "behavioral"
)

// Prediction is a ranked guess at the user's next action.
type Prediction struct {
	Action           string           `json:"action"`
	Description      string           `json:"description"`
	Probability      float64          `json:"probability"`
	Confidence       float64          `json:"confidence"`
	Benefits         string           `json:"benefits,omitempty"`
	SuggestedPrompts []string         `json:"suggested_prompts,omitempty"`
	Source           PredictionSource `json:"source"`
	ProjectID        string           `json:"project_id,omitempty"`
}

// =============================================================================
// ENRICHER TYPES
// =============================================================================

// Finding is one observation produced by a plug-in enricher.
type Finding struct {
	Kind       string  `json:"kind"` // e.g. business_context, usage_hint, requirement, chain
	Detail     string  `json:"detail"`
	Action     string  `json:"action,omitempty"`
	Importance string  `json:"importance,omitempty"` // critical, high, medium, low
	Confidence float64 `json:"confidence,omitempty"`
}

// PartialResult is what a plug-in enricher contributes to an analysis.
type PartialResult struct {
	Module     string    `json:"module"`
	Confidence float64   `json:"confidence"`
	Findings   []Finding `json:"findings,omitempty"`
	Fallback   bool      `json:"fallback,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// =============================================================================
// HEALTH / RESULT TYPES
// =============================================================================

// ModuleHealth is the load status of a pluggable component.
type ModuleHealth struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Available  bool   `json:"available"`
	IsFallback bool   `json:"is_fallback"`
	Reason     string `json:"reason,omitempty"`
}

// ComponentFailure records a component that failed during one request.
type ComponentFailure struct {
	Component string `json:"component"`
	Error     string `json:"error"`
}

// Recommendation is a short system-level hint attached to a result.
type Recommendation struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Action   string `json:"action,omitempty"`
	Priority string `json:"priority"`
}

// ProjectSnapshot is the immutable view of a project embedded in a result.
type ProjectSnapshot struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Concept        string    `json:"concept"`
	Phase          Phase     `json:"phase"`
	ArtifactsCount int       `json:"artifacts_count"`
	IsNew          bool      `json:"is_new"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AnalysisResult is the top-level output of the orchestrator.
type AnalysisResult struct {
	Query           string             `json:"query"`
	SessionID       string             `json:"session_id"`
	Cluster         *ClusterMatch      `json:"cluster,omitempty"`
	Intents         []Intent           `json:"intents,omitempty"`
	Project         *ProjectSnapshot   `json:"project,omitempty"`
	Compatibility   int                `json:"compatibility"`
	Predictions     []Prediction       `json:"predictions,omitempty"`
	Enrichments     []PartialResult    `json:"enrichments,omitempty"`
	Confidence      int                `json:"confidence"` // 0-100
	Recommendations []Recommendation   `json:"recommendations,omitempty"`
	Fallback        bool               `json:"fallback"`
	Failures        []ComponentFailure `json:"failures,omitempty"`
	ModuleHealth    []ModuleHealth     `json:"module_health,omitempty"`
	ProcessingTime  time.Duration      `json:"processing_time"`
	FromCache       bool               `json:"from_cache"`
}

// Stats is the statistics side-channel exposed to callers.
type Stats struct {
	QueriesProcessed     int64 `json:"queries_processed"`
	ProjectsCreated      int64 `json:"projects_created"`
	PredictionsGenerated int64 `json:"predictions_generated"`
	CacheHits            int64 `json:"cache_hits"`
	CacheMisses          int64 `json:"cache_misses"`
	ErrorCount           int64 `json:"error_count"`
	AverageResponseMs    int64 `json:"average_response_time_ms"`
	SystemHealth         int   `json:"system_health"`
}

// Clone returns a deep copy. Cached results are handed out as clones so a
// caller editing its result cannot change what later requests see.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Cluster != nil {
		c := *r.Cluster
		c.MatchedCoreTerms = cloneStrings(c.MatchedCoreTerms)
		c.MatchedRelatedTerms = cloneStrings(c.MatchedRelatedTerms)
		c.TypicalNextSteps = cloneStrings(c.TypicalNextSteps)
		cp.Cluster = &c
	}
	if r.Project != nil {
		p := *r.Project
		cp.Project = &p
	}
	if r.Intents != nil {
		cp.Intents = make([]Intent, len(r.Intents))
		for i, in := range r.Intents {
			in.MatchedPatterns = cloneStrings(in.MatchedPatterns)
			cp.Intents[i] = in
		}
	}
	if r.Predictions != nil {
		cp.Predictions = make([]Prediction, len(r.Predictions))
		for i, p := range r.Predictions {
			p.SuggestedPrompts = cloneStrings(p.SuggestedPrompts)
			cp.Predictions[i] = p
		}
	}
	if r.Enrichments != nil {
		cp.Enrichments = make([]PartialResult, len(r.Enrichments))
		for i, part := range r.Enrichments {
			if part.Findings != nil {
				part.Findings = append([]Finding(nil), part.Findings...)
			}
			cp.Enrichments[i] = part
		}
	}
	if r.Recommendations != nil {
		cp.Recommendations = append([]Recommendation(nil), r.Recommendations...)
	}
	if r.Failures != nil {
		cp.Failures = append([]ComponentFailure(nil), r.Failures...)
	}
	if r.ModuleHealth != nil {
		cp.ModuleHealth = append([]ModuleHealth(nil), r.ModuleHealth...)
	}
	return &cp
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
