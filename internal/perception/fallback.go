package perception

import (
	"context"

	"canvasmind/internal/types"
)

// =============================================================================
// FALLBACKS
// =============================================================================
// One canonical stand-in per role. They keep the call contract and report
// no signal, so the pipeline degrades instead of failing.

// GeneralCluster names the catch-all domain reported by FallbackClassifier.
const GeneralCluster = "general"

// FallbackClusterConfidence is the fixed low confidence (0-100) of the
// fallback cluster match.
const FallbackClusterConfidence = 30

// FallbackClassifier always reports the general cluster at low confidence.
type FallbackClassifier struct{}

func (FallbackClassifier) Classify(string) (*types.ClusterMatch, error) {
	return &types.ClusterMatch{
		ClusterName: GeneralCluster,
		Confidence:  FallbackClusterConfidence,
	}, nil
}

// FallbackIntentMatcher never matches an intent.
type FallbackIntentMatcher struct{}

func (FallbackIntentMatcher) MatchIntents(string) ([]types.Intent, error) {
	return nil, nil
}

// FallbackConfidence is the placeholder confidence of a fallback enricher.
const FallbackConfidence = 0.3

// FallbackEnricher stands in for an enricher that could not be loaded.
type FallbackEnricher struct {
	Module string
}

func (f FallbackEnricher) Name() string { return f.Module }

func (f FallbackEnricher) Analyze(context.Context, string, types.RequestContext) (types.PartialResult, error) {
	return types.PartialResult{
		Module:     f.Module,
		Confidence: FallbackConfidence,
		Fallback:   true,
	}, nil
}
