package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalysisResultCloneIsDeep(t *testing.T) {
	orig := &AnalysisResult{
		Query:   "логотип",
		Cluster: &ClusterMatch{ClusterName: "branding", MatchedCoreTerms: []string{"логотип"}},
		Intents: []Intent{{Type: IntentCreateNew, MatchedPatterns: []string{"создай"}}},
		Project: &ProjectSnapshot{ID: "p1", Title: "Логотип"},
		Predictions: []Prediction{
			{Action: "vectorize", SuggestedPrompts: []string{"Векторизуй"}},
		},
		Enrichments:     []PartialResult{{Module: "context_clues", Findings: []Finding{{Detail: "кофейня"}}}},
		Recommendations: []Recommendation{{Type: "next_step", Message: "m"}},
		Failures:        []ComponentFailure{{Component: "classifier"}},
		ModuleHealth:    []ModuleHealth{{Name: "semantic_classifier", Available: true}},
	}
	cp := orig.Clone()
	assert.Equal(t, orig, cp)

	cp.Cluster.MatchedCoreTerms[0] = "x"
	cp.Intents[0].MatchedPatterns[0] = "x"
	cp.Project.Title = "x"
	cp.Predictions[0].Action = "x"
	cp.Predictions[0].SuggestedPrompts[0] = "x"
	cp.Enrichments[0].Findings[0].Detail = "x"
	cp.Recommendations[0].Message = "x"
	cp.Failures[0].Component = "x"
	cp.ModuleHealth[0].Available = false

	assert.Equal(t, "логотип", orig.Cluster.MatchedCoreTerms[0])
	assert.Equal(t, "создай", orig.Intents[0].MatchedPatterns[0])
	assert.Equal(t, "Логотип", orig.Project.Title)
	assert.Equal(t, "vectorize", orig.Predictions[0].Action)
	assert.Equal(t, "Векторизуй", orig.Predictions[0].SuggestedPrompts[0])
	assert.Equal(t, "кофейня", orig.Enrichments[0].Findings[0].Detail)
	assert.Equal(t, "m", orig.Recommendations[0].Message)
	assert.Equal(t, "classifier", orig.Failures[0].Component)
	assert.True(t, orig.ModuleHealth[0].Available)

	var nilResult *AnalysisResult
	assert.Nil(t, nilResult.Clone())
}
