package prediction

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canvasmind/internal/config"
	"canvasmind/internal/types"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestPredictor(t *testing.T, mutate ...func(*config.PredictionConfig)) *Predictor {
	t.Helper()
	cfg := config.DefaultPredictionConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	p, err := New(cfg, WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return p
}

func project(concept string, idle time.Duration, artifacts ...types.ArtifactType) *types.Project {
	p := &types.Project{
		ID:        "p1",
		SessionID: "s1",
		Title:     "Логотип кофейни",
		Concept:   concept,
		CreatedAt: testNow.Add(-idle - time.Minute),
		UpdatedAt: testNow.Add(-idle),
	}
	for _, a := range artifacts {
		p.Artifacts = append(p.Artifacts, types.Artifact{Type: a, CreatedAt: p.UpdatedAt})
	}
	return p
}

func actions(preds []types.Prediction) []string {
	out := make([]string, len(preds))
	for i, p := range preds {
		out[i] = p.Action
	}
	return out
}

func TestVectorizeFirstThenNeverAgain(t *testing.T) {
	p := newTestPredictor(t)
	proj := project("branding", 0, types.ArtifactImage)
	rc := types.RequestContext{RecentQueries: []string{"векторизуй"}}

	preds, err := p.Predict(proj, rc)
	require.NoError(t, err)
	require.NotEmpty(t, preds)
	assert.Equal(t, "vectorize", preds[0].Action)
	assert.GreaterOrEqual(t, preds[0].Probability, 0.85)
	assert.InDelta(t, 0.95, preds[0].Probability, 1e-9)

	proj.Artifacts = append(proj.Artifacts, types.Artifact{Type: types.ArtifactVector, CreatedAt: testNow})
	require.Equal(t, types.PhaseAfterVectorization, proj.Phase())

	for i := 0; i < 3; i++ {
		preds, err = p.Predict(proj, rc)
		require.NoError(t, err)
		assert.NotContains(t, actions(preds), "vectorize")
	}
	assert.Equal(t, []string{"business_card_design", "letterhead_design"}, actions(preds))
}

func TestRuleOrderingAndProbabilities(t *testing.T) {
	p := newTestPredictor(t, func(c *config.PredictionConfig) { c.Behavioral = false })

	preds, err := p.Predict(project("embroidery_design", 0, types.ArtifactImage), types.RequestContext{})
	require.NoError(t, err)

	want := []types.Prediction{
		{Action: "convert_to_dst", Probability: 0.95},
		{Action: "simplify_details", Probability: 0.90},
		{Action: "reduce_colors", Probability: 0.85},
	}
	opts := cmp.Options{
		cmpopts.IgnoreFields(types.Prediction{}, "Description", "Confidence", "Benefits", "SuggestedPrompts", "Source", "ProjectID"),
		cmpopts.EquateApprox(0, 1e-9),
	}
	if diff := cmp.Diff(want, preds, opts); diff != "" {
		t.Errorf("predictions mismatch (-want +got):\n%s", diff)
	}
}

func TestTiesKeepDeclarationOrder(t *testing.T) {
	table, err := ParseRuleTable([]byte(`
rules:
  general:
    after_image_creation:
      - {action: b_first, description: first, probability: 0.5}
      - {action: a_second, description: second, probability: 0.5}
      - {action: c_higher, description: third, probability: 0.6}
`))
	require.NoError(t, err)
	cfg := config.DefaultPredictionConfig()
	p, err := New(cfg, WithRuleTable(table), WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)

	preds, err := p.Predict(project("general", 0, types.ArtifactImage), types.RequestContext{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c_higher", "b_first", "a_second"}, actions(preds))
}

func TestDecay(t *testing.T) {
	p := newTestPredictor(t, func(c *config.PredictionConfig) { c.Behavioral = false })

	tests := []struct {
		name string
		idle time.Duration
		want float64
	}{
		{"fresh", 30 * time.Minute, 0.85},
		{"exactly two hours", 2 * time.Hour, 0.85},
		{"stale", 3 * time.Hour, 0.85 * 0.9},
		{"dormant", 25 * time.Hour, 0.85 * 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preds, err := p.Predict(project("логотип", tt.idle, types.ArtifactImage), types.RequestContext{})
			require.NoError(t, err)
			require.Equal(t, "vectorize", preds[0].Action)
			assert.InDelta(t, tt.want, preds[0].Probability, 1e-9)
		})
	}
}

func TestKeywordBoostIsClamped(t *testing.T) {
	p := newTestPredictor(t)
	rc := types.RequestContext{RecentQueries: []string{"svg вектор", "масштаб для печати"}}
	preds, err := p.Predict(project("branding", 0, types.ArtifactImage), rc)
	require.NoError(t, err)
	assert.InDelta(t, 0.95, preds[0].Probability, 1e-9)
	for _, pr := range preds {
		assert.LessOrEqual(t, pr.Probability, 0.95)
		assert.LessOrEqual(t, pr.Confidence, 0.95)
	}
}

func TestConfidence(t *testing.T) {
	p := newTestPredictor(t, func(c *config.PredictionConfig) { c.Behavioral = false })

	// Old project, no context: rule probability plus the artifacts bonus.
	old := project("general", 0, types.ArtifactImage)
	old.CreatedAt = testNow.Add(-48 * time.Hour)
	preds, err := p.Predict(old, types.RequestContext{})
	require.NoError(t, err)
	require.Equal(t, "determine_usage", preds[0].Action)
	assert.InDelta(t, 0.65, preds[0].Confidence, 1e-9)

	// Young project with context gets every bonus.
	preds, err = p.Predict(project("general", 0, types.ArtifactImage), types.RequestContext{RecentQueries: []string{"x"}})
	require.NoError(t, err)
	assert.InDelta(t, 0.80, preds[0].Confidence, 1e-9)
}

func TestInitialPhase(t *testing.T) {
	p := newTestPredictor(t)
	preds, err := p.Predict(project("character_design", 0), types.RequestContext{})
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "create_initial_design", preds[0].Action)
	assert.InDelta(t, 0.8, preds[0].Probability, 1e-9)
}

func TestDoneWhenLatestDescription(t *testing.T) {
	p := newTestPredictor(t, func(c *config.PredictionConfig) { c.Behavioral = false })
	proj := project("вышивка", 0, types.ArtifactImage)
	proj.Artifacts[0].Description = "Детали упрощены"

	preds, err := p.Predict(proj, types.RequestContext{})
	require.NoError(t, err)
	assert.Equal(t, []string{"convert_to_dst", "reduce_colors"}, actions(preds))
}

func TestSuggestedPrompts(t *testing.T) {
	p := newTestPredictor(t)
	preds, err := p.Predict(project("branding", 0, types.ArtifactImage), types.RequestContext{})
	require.NoError(t, err)

	byAction := make(map[string][]string)
	for _, pr := range preds {
		byAction[pr.Action] = pr.SuggestedPrompts
	}
	assert.Equal(t, []string{
		"Векторизуй логотип кофейни",
		"Сделай SVG версию логотип кофейни",
		"Преобразуй в векторный формат",
	}, byAction["vectorize"])
	assert.Equal(t, []string{
		"создать монохромную версию логотипа",
		"Доработай логотип кофейни",
		"Улучши проект",
	}, byAction["create_monochrome_version"])
}

func TestBehavioralTail(t *testing.T) {
	p := newTestPredictor(t)
	rc := types.RequestContext{RecentQueries: []string{"попробуй другие варианты"}}

	// Two rule predictions leave room for the behavioral one at the end.
	preds, err := p.Predict(project("branding", 0, types.ArtifactImage, types.ArtifactVector), rc)
	require.NoError(t, err)
	assert.Equal(t, []string{"business_card_design", "letterhead_design", "try_variations"}, actions(preds))
	assert.Equal(t, types.SourceBehavioral, preds[2].Source)

	// A full rule list pushes it out.
	preds, err = p.Predict(project("branding", 0, types.ArtifactImage), rc)
	require.NoError(t, err)
	assert.Len(t, preds, 3)
	assert.NotContains(t, actions(preds), "try_variations")
}

func TestIdentifyBehavior(t *testing.T) {
	table, err := DefaultRuleTable()
	require.NoError(t, err)

	assert.Equal(t, "", table.IdentifyBehavior(nil))
	assert.Equal(t, "perfectionist", table.IdentifyBehavior([]string{"Измени цвет", "сделай лучше"}))
	assert.Equal(t, "efficient", table.IdentifyBehavior([]string{"готово, быстро"}))
	// Tie goes to the earlier archetype.
	assert.Equal(t, "perfectionist", table.IdentifyBehavior([]string{"улучши и попробуй"}))
}

func TestPredictRequiresProject(t *testing.T) {
	_, err := newTestPredictor(t).Predict(nil, types.RequestContext{})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestFallbackPredictor(t *testing.T) {
	preds, err := FallbackPredictor{}.Predict(project("branding", 0), types.RequestContext{})
	assert.NoError(t, err)
	assert.Empty(t, preds)
}
