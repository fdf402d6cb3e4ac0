package prediction

import (
	"strings"

	"canvasmind/internal/logging"
	"canvasmind/internal/types"
)

// IdentifyBehavior scores recent queries against the behavior indicators and
// returns the archetype with the most hits. Ties go to the earlier archetype;
// no hits returns "".
func (t *RuleTable) IdentifyBehavior(queries []string) string {
	best, bestScore := "", 0
	for _, b := range t.Behaviors {
		score := 0
		for _, q := range queries {
			text := strings.ToLower(q)
			for _, ind := range b.Indicators {
				if strings.Contains(text, strings.ToLower(ind)) {
					score++
				}
			}
		}
		if score > bestScore {
			best, bestScore = b.Name, score
		}
	}
	return best
}

func (t *RuleTable) behavior(name string) *Behavior {
	for i := range t.Behaviors {
		if t.Behaviors[i].Name == name {
			return &t.Behaviors[i]
		}
	}
	return nil
}

// behavioral returns the archetype prediction for the recent queries, if any.
func (p *Predictor) behavioral(project *types.Project, rc types.RequestContext) *types.Prediction {
	name := p.table.IdentifyBehavior(rc.RecentQueries)
	if name == "" {
		return nil
	}
	b := p.table.behavior(name)
	if b == nil || b.Prediction == nil {
		return nil
	}
	logging.PredictionDebug("Behavior archetype %s for project %s", name, project.ID)
	return &types.Prediction{
		Action:      b.Prediction.Action,
		Description: b.Prediction.Description,
		Probability: b.Prediction.Probability,
		Confidence:  b.Prediction.Confidence,
		Source:      types.SourceBehavioral,
		ProjectID:   project.ID,
	}
}
