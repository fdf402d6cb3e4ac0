package prediction

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"canvasmind/internal/types"
)

func TestLongTermGoals(t *testing.T) {
	p := newTestPredictor(t)

	got := p.LongTermGoals(&types.Project{Concept: "логотип"})
	want := []Goal{
		{Goal: "Создание полного фирменного стиля", Probability: 0.6, Timeframe: "2-4 недели"},
		{Goal: "Разработка брендбука", Probability: 0.5, Timeframe: "4-8 недели"},
		{Goal: "Применение на всех носителях", Probability: 0.4, Timeframe: "6-12 недели"},
	}
	approx := cmp.Comparer(func(a, b float64) bool { d := a - b; return d < 1e-9 && d > -1e-9 })
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("goals mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, p.LongTermGoals(&types.Project{Concept: "signage_design"}))
	assert.Nil(t, p.LongTermGoals(nil))
}

func TestUsageTrends(t *testing.T) {
	p := newTestPredictor(t)

	t.Run("no data", func(t *testing.T) {
		got := p.UsageTrends(&types.Project{}, types.RequestContext{})
		assert.Equal(t, Trends{Satisfaction: SatisfactionUnknown}, got)
	})

	t.Run("growing complexity and new format", func(t *testing.T) {
		proj := &types.Project{Artifacts: []types.Artifact{
			{Type: types.ArtifactImage, Description: "эскиз"},
			{Type: types.ArtifactImage, Description: "эскиз 2"},
			{Type: types.ArtifactVector, Description: "векторная версия с подробными слоями"},
			{Type: types.ArtifactMockup, Description: "мокап на футболке с логотипом"},
		}}
		got := p.UsageTrends(proj, types.RequestContext{RecentQueries: []string{"Отлично, нравится"}})
		assert.True(t, got.IncreasingComplexity)
		assert.Equal(t, FocusShiftNewFormat, got.FocusShift)
		assert.Equal(t, SatisfactionSatisfied, got.Satisfaction)
	})

	t.Run("same type has no shift", func(t *testing.T) {
		proj := &types.Project{Artifacts: []types.Artifact{
			{Type: types.ArtifactImage, Description: "длинное описание"},
			{Type: types.ArtifactImage, Description: "коротко"},
		}}
		got := p.UsageTrends(proj, types.RequestContext{RecentQueries: []string{"плохо, переделай"}})
		assert.False(t, got.IncreasingComplexity)
		assert.Empty(t, got.FocusShift)
		assert.Equal(t, SatisfactionDissatisfied, got.Satisfaction)
	})

	t.Run("neutral", func(t *testing.T) {
		got := p.UsageTrends(nil, types.RequestContext{RecentQueries: []string{"сделай логотип"}})
		assert.Equal(t, SatisfactionNeutral, got.Satisfaction)
	})
}
