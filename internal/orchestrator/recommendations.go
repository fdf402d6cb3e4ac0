package orchestrator

import (
	"strings"

	"canvasmind/internal/types"
)

const (
	maxRecommendations = 3
	nextStepThreshold  = 0.8
)

// Recommendation types.
const (
	RecCriticalRequirement = "critical_requirement"
	RecNextStep            = "next_step"
	RecProjectStart        = "project_start"
	RecDegradedMode        = "degraded_mode"
)

func buildRecommendations(res *types.AnalysisResult, proj *types.Project) []types.Recommendation {
	var recs []types.Recommendation

	if f := firstCritical(res.Enrichments); f != nil {
		recs = append(recs, types.Recommendation{
			Type:     RecCriticalRequirement,
			Message:  "Критически важно: " + f.Detail,
			Action:   f.Action,
			Priority: "high",
		})
	}

	if len(res.Predictions) > 0 && res.Predictions[0].Probability > nextStepThreshold {
		top := res.Predictions[0]
		recs = append(recs, types.Recommendation{
			Type:     RecNextStep,
			Message:  "Рекомендуется: " + top.Description,
			Action:   top.Action,
			Priority: "medium",
		})
	}

	if proj != nil && len(proj.Artifacts) == 0 {
		recs = append(recs, types.Recommendation{
			Type:     RecProjectStart,
			Message:  "Начинаем новый проект, рассмотрите долгосрочные цели",
			Priority: "low",
		})
	}

	if degraded := degradedModules(res); len(degraded) > 0 {
		recs = append(recs, types.Recommendation{
			Type:     RecDegradedMode,
			Message:  "Работа в ограниченном режиме: " + strings.Join(degraded, ", "),
			Priority: "low",
		})
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func firstCritical(parts []types.PartialResult) *types.Finding {
	for _, p := range parts {
		for i := range p.Findings {
			if p.Findings[i].Importance == "critical" {
				return &p.Findings[i]
			}
		}
	}
	return nil
}

// degradedModules lists request failures followed by modules on fallback.
func degradedModules(res *types.AnalysisResult) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, f := range res.Failures {
		add(f.Component)
	}
	for _, h := range res.ModuleHealth {
		if h.IsFallback {
			add(h.Name)
		}
	}
	return out
}
