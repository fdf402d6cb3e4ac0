package perception

import (
	"strings"

	"canvasmind/internal/types"
)

// Requirement is a technical need implied but not stated by the request.
type Requirement struct {
	Type            string `json:"type"`
	Description     string `json:"description"`
	Importance      string `json:"importance"` // critical, high, medium
	SuggestedAction string `json:"suggested_action"`
}

type requirementRule struct {
	triggers     []string // any of these substrings
	requirements []Requirement
}

var requirementRules = []requirementRule{
	{
		triggers: []string{"логотип"},
		requirements: []Requirement{
			{Type: "scalability", Description: "Логотип должен масштабироваться без потери качества", Importance: "high", SuggestedAction: "векторизация"},
			{Type: "simplicity", Description: "Логотип должен быть простым и запоминающимся", Importance: "medium", SuggestedAction: "упрощение деталей"},
		},
	},
	{
		triggers: []string{"печать", "принт"},
		requirements: []Requirement{
			{Type: "print_quality", Description: "Изображение должно хорошо печататься", Importance: "high", SuggestedAction: "высокое разрешение и контрастность"},
			{Type: "color_mode", Description: "Цвета должны быть адаптированы для печати", Importance: "medium", SuggestedAction: "конвертация в CMYK"},
		},
	},
	{
		triggers: []string{"вышивка"},
		requirements: []Requirement{
			{Type: "thread_limitation", Description: "Ограничение количества цветов нитей", Importance: "critical", SuggestedAction: "сокращение палитры до 8-12 цветов"},
			{Type: "detail_simplification", Description: "Мелкие детали не подходят для вышивки", Importance: "high", SuggestedAction: "упрощение и укрупнение элементов"},
		},
	},
}

// ImplicitRequirements lists the requirements implied by keywords in text.
func ImplicitRequirements(text string) []Requirement {
	lower := strings.ToLower(text)
	var out []Requirement
	for _, rule := range requirementRules {
		for _, trigger := range rule.triggers {
			if strings.Contains(lower, trigger) {
				out = append(out, rule.requirements...)
				break
			}
		}
	}
	return out
}

// ImportanceConfidence maps an importance level onto a 0-1 confidence.
func ImportanceConfidence(importance string) float64 {
	switch importance {
	case "critical":
		return 0.9
	case "high":
		return 0.7
	case "medium":
		return 0.5
	default:
		return 0.3
	}
}

// RequirementFindings renders requirements as enricher findings.
func RequirementFindings(reqs []Requirement) []types.Finding {
	findings := make([]types.Finding, 0, len(reqs))
	for _, r := range reqs {
		findings = append(findings, types.Finding{
			Kind:       "requirement:" + r.Type,
			Detail:     r.Description,
			Action:     r.SuggestedAction,
			Importance: r.Importance,
			Confidence: ImportanceConfidence(r.Importance),
		})
	}
	return findings
}
