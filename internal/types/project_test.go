package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func artifacts(kinds ...ArtifactType) []Artifact {
	out := make([]Artifact, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, Artifact{Type: k})
	}
	return out
}

func TestDetectPhase(t *testing.T) {
	tests := []struct {
		name      string
		artifacts []Artifact
		want      Phase
	}{
		{"empty", nil, PhaseInitial},
		{"single image", artifacts(ArtifactImage), PhaseAfterImageCreation},
		{"single vector", artifacts(ArtifactVector), PhaseAfterVectorization},
		{"single mockup", artifacts(ArtifactMockup), PhaseDevelopment},
		{"image then vector", artifacts(ArtifactImage, ArtifactVector), PhaseAfterVectorization},
		{"vector wins over count", artifacts(ArtifactImage, ArtifactImage, ArtifactVector, ArtifactImage), PhaseAfterVectorization},
		{"two images", artifacts(ArtifactImage, ArtifactImage), PhaseDevelopment},
		{"three without vector", artifacts(ArtifactImage, ArtifactEmbroidery, ArtifactMockup), PhaseMature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPhase(tt.artifacts))
			assert.True(t, ValidPhase(tt.want))
		})
	}
	assert.False(t, ValidPhase("launched"))
}

func TestPhaseIgnoresUpdatedAt(t *testing.T) {
	p := &Project{Artifacts: artifacts(ArtifactImage)}
	before := p.Phase()
	for _, ts := range []time.Time{{}, time.Now(), time.Now().Add(-72 * time.Hour)} {
		p.UpdatedAt = ts
		assert.Equal(t, before, p.Phase())
	}
}

func TestProjectHelpers(t *testing.T) {
	p := &Project{
		ID:    "p1",
		Title: "Логотип",
		Artifacts: []Artifact{
			{Type: ArtifactImage, Description: "Первый вариант"},
			{Type: ArtifactImage, Description: "Детали упрощены"},
		},
	}
	assert.True(t, p.HasArtifactType(ArtifactImage))
	assert.False(t, p.HasArtifactType(ArtifactVector))
	assert.True(t, p.LatestDescriptionContains("УПРОЩЕН"))
	assert.False(t, p.LatestDescriptionContains("первый"))
	require.NotNil(t, p.LatestArtifact())

	empty := &Project{}
	assert.Nil(t, empty.LatestArtifact())
	assert.False(t, empty.LatestDescriptionContains("x"))
}

func TestCloneIsDeep(t *testing.T) {
	p := &Project{ID: "p1", Artifacts: artifacts(ArtifactImage)}
	cp := p.Clone()
	cp.Artifacts[0].Type = ArtifactVector
	cp.Artifacts = append(cp.Artifacts, Artifact{Type: ArtifactMockup})

	assert.Equal(t, ArtifactImage, p.Artifacts[0].Type)
	assert.Len(t, p.Artifacts, 1)

	var nilProject *Project
	assert.Nil(t, nilProject.Clone())
	assert.Nil(t, nilProject.Snapshot(true))
}

func TestSnapshot(t *testing.T) {
	p := &Project{ID: "p1", Title: "T", Concept: "branding", Artifacts: artifacts(ArtifactImage, ArtifactVector)}
	s := p.Snapshot(true)
	assert.Equal(t, PhaseAfterVectorization, s.Phase)
	assert.Equal(t, 2, s.ArtifactsCount)
	assert.True(t, s.IsNew)
}

func TestErrors(t *testing.T) {
	err := InvalidInput("query must not be empty")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "query must not be empty")

	cause := errors.New("boom")
	var failure error = &AnalysisFailure{Component: "predictor", Err: cause}
	assert.ErrorIs(t, failure, cause)
	assert.Equal(t, "predictor failed: boom", failure.Error())

	var af *AnalysisFailure
	require.ErrorAs(t, failure, &af)
	assert.Equal(t, "predictor", af.Component)
}

func TestHasIntent(t *testing.T) {
	intents := []Intent{{Type: IntentEnhanceExisting}}
	assert.True(t, HasIntent(intents, IntentEnhanceExisting))
	assert.False(t, HasIntent(intents, IntentCreateNew))
	assert.False(t, HasIntent(nil, IntentCreateNew))
}
