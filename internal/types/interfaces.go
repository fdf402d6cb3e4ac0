package types

import "context"

// Classifier scores request text against the semantic cluster catalog.
// A nil match with a nil error means no cluster scored above zero.
type Classifier interface {
	Classify(text string) (*ClusterMatch, error)
}

// IntentMatcher classifies request text into ranked action intents.
type IntentMatcher interface {
	MatchIntents(text string) ([]Intent, error)
}

// Predictor ranks likely next actions for a project.
type Predictor interface {
	Predict(project *Project, rc RequestContext) ([]Prediction, error)
}

// Enricher is the uniform plug-in analyzer contract.
type Enricher interface {
	Name() string
	Analyze(ctx context.Context, text string, rc RequestContext) (PartialResult, error)
}

// ProjectPersistence is the storage collaborator for projects.
// SaveProject may be called concurrently for one project; a snapshot whose
// Revision is lower than the stored one must be ignored without error.
type ProjectPersistence interface {
	LoadProjects(ctx context.Context, sessionID string) ([]*Project, error)
	SaveProject(ctx context.Context, project *Project) error
}
