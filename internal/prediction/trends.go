package prediction

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"canvasmind/internal/types"
)

// Goal is a long-term objective for a project's line of work.
type Goal struct {
	Goal        string  `json:"goal"`
	Probability float64 `json:"probability"`
	Timeframe   string  `json:"timeframe"`
}

// LongTermGoals lists the goals of the project's concept type. The i-th goal
// has probability 0.6-0.1*i and a timeframe of 2(i+1)-4(i+1) weeks.
func (p *Predictor) LongTermGoals(project *types.Project) []Goal {
	if project == nil {
		return nil
	}
	names := p.table.Goals[p.table.ConceptType(project.Concept)]
	goals := make([]Goal, 0, len(names))
	for i, name := range names {
		goals = append(goals, Goal{
			Goal:        name,
			Probability: 0.6 - float64(i)*0.1,
			Timeframe:   fmt.Sprintf("%d-%d недели", (i+1)*2, (i+1)*4),
		})
	}
	return goals
}

// Satisfaction levels inferred from recent queries.
const (
	SatisfactionUnknown      = "unknown"
	SatisfactionSatisfied    = "satisfied"
	SatisfactionDissatisfied = "dissatisfied"
	SatisfactionNeutral      = "neutral"
)

// FocusShiftNewFormat means the latest artifacts use types not seen before.
const FocusShiftNewFormat = "shift_to_new_format"

var (
	satisfiedWords    = []string{"отлично", "хорошо", "подходит", "нравится", "супер"}
	dissatisfiedWords = []string{"не то", "плохо", "не нравится", "переделай", "по-другому"}
)

// Trends summarizes how a project is evolving.
type Trends struct {
	IncreasingComplexity bool   `json:"increasing_complexity"`
	FocusShift           string `json:"focus_shift,omitempty"`
	Satisfaction         string `json:"user_satisfaction"`
}

// UsageTrends inspects artifact history and recent queries.
func (p *Predictor) UsageTrends(project *types.Project, rc types.RequestContext) Trends {
	trends := Trends{Satisfaction: SatisfactionUnknown}
	if project != nil && len(project.Artifacts) > 1 {
		trends.IncreasingComplexity = complexityTrend(project.Artifacts) > 0
		trends.FocusShift = focusShift(project.Artifacts)
	}
	if len(rc.RecentQueries) > 0 {
		trends.Satisfaction = satisfaction(rc.RecentText())
	}
	return trends
}

// complexityTrend compares mean description length of the second half of
// the artifacts against the first half.
func complexityTrend(artifacts []types.Artifact) float64 {
	if len(artifacts) < 2 {
		return 0
	}
	mid := len(artifacts) / 2
	return meanDescriptionLen(artifacts[mid:]) - meanDescriptionLen(artifacts[:mid])
}

func meanDescriptionLen(artifacts []types.Artifact) float64 {
	total := 0
	for _, a := range artifacts {
		total += utf8.RuneCountInString(a.Description)
	}
	return float64(total) / float64(len(artifacts))
}

func focusShift(artifacts []types.Artifact) string {
	unique := make(map[types.ArtifactType]bool)
	for _, a := range artifacts {
		unique[a.Type] = true
	}
	if len(unique) == 1 {
		return ""
	}

	split := len(artifacts) - 2
	if split < 0 {
		split = 0
	}
	earlier := make(map[types.ArtifactType]bool)
	for _, a := range artifacts[:split] {
		earlier[a.Type] = true
	}
	for _, a := range artifacts[split:] {
		if earlier[a.Type] {
			return ""
		}
	}
	return FocusShiftNewFormat
}

func satisfaction(text string) string {
	sat, dis := 0, 0
	for _, w := range satisfiedWords {
		if strings.Contains(text, w) {
			sat++
		}
	}
	for _, w := range dissatisfiedWords {
		if strings.Contains(text, w) {
			dis++
		}
	}
	switch {
	case sat > dis:
		return SatisfactionSatisfied
	case dis > sat:
		return SatisfactionDissatisfied
	default:
		return SatisfactionNeutral
	}
}
