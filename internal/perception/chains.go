package perception

import (
	"strings"

	"canvasmind/internal/types"
)

// Chain is an expected multi-step path between two concepts.
type Chain struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Steps      []string `json:"steps"`
	Kind       string   `json:"kind"` // direct_chain, contextual_chain
	Confidence float64  `json:"confidence"`
}

var directChains = []Chain{
	{From: "логотип", To: "печать", Steps: []string{"векторизация", "цветовая оптимизация", "масштабирование"}},
	{From: "персонаж", To: "вышивка", Steps: []string{"упрощение деталей", "сокращение цветов", "увеличение толщины линий"}},
	{From: "принт", To: "футболка", Steps: []string{"адаптация размера", "центрирование", "учет ткани"}},
	{From: "эмблема", To: "вывеска", Steps: []string{"увеличение контрастности", "упрощение мелких деталей", "читаемость"}},
}

// BuildChains finds direct chains whose endpoints both occur in text, plus
// the image-to-vector chain when the session has recent images.
func BuildChains(text string, rc types.RequestContext) []Chain {
	lower := strings.ToLower(text)
	var chains []Chain

	for _, c := range directChains {
		if strings.Contains(lower, c.From) && strings.Contains(lower, c.To) {
			c.Kind = "direct_chain"
			c.Confidence = 0.9
			c.Steps = append([]string(nil), c.Steps...)
			chains = append(chains, c)
		}
	}

	if rc.HasRecentImages && strings.Contains(lower, "вектор") {
		chains = append(chains, Chain{
			From:       "existing_image",
			To:         "vector_format",
			Steps:      []string{"анализ изображения", "извлечение контуров", "векторизация"},
			Kind:       "contextual_chain",
			Confidence: 0.85,
		})
	}
	return chains
}

// AppliesTo reports whether the chain starts from something the project
// already has: an artifact type named in From, or a description that
// mentions From.
func (c Chain) AppliesTo(project *types.Project) bool {
	if project == nil {
		return false
	}
	for _, a := range project.Artifacts {
		if a.Type != "" && strings.Contains(c.From, string(a.Type)) {
			return true
		}
		if strings.Contains(strings.ToLower(a.Description), c.From) {
			return true
		}
	}
	return false
}

// ChainFindings renders chains as enricher findings.
func ChainFindings(chains []Chain) []types.Finding {
	findings := make([]types.Finding, 0, len(chains))
	for _, c := range chains {
		findings = append(findings, types.Finding{
			Kind:       c.Kind,
			Detail:     c.From + " -> " + c.To,
			Action:     strings.Join(c.Steps, ", "),
			Confidence: c.Confidence,
		})
	}
	return findings
}
