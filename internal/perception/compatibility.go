package perception

import (
	"fmt"

	"canvasmind/internal/types"
)

// Compatibility scores how well a request continues an existing project.
type Compatibility struct {
	Score      int      `json:"score"` // 0-100
	Compatible bool     `json:"compatible"`
	Reasons    []string `json:"reasons,omitempty"`
}

// CompatibleThreshold is the score at which a request counts as continuing the project.
const CompatibleThreshold = 50

// AssessCompatibility scores a request against project: +40 for a compatible
// concept, +30 for a modify or enhance intent, +20 per chain applicable to
// the project's artifacts. Capped at 100.
func AssessCompatibility(cluster *types.ClusterMatch, intents []types.Intent, chains []Chain, project *types.Project) Compatibility {
	var c Compatibility
	if project == nil {
		return c
	}

	if cluster != nil && ConceptsCompatible(cluster.ClusterName, project.Concept) {
		c.Score += 40
		c.Reasons = append(c.Reasons, fmt.Sprintf("compatible concepts: %s and %s", cluster.ClusterName, project.Concept))
	}

	if types.HasIntent(intents, types.IntentModifyExisting) || types.HasIntent(intents, types.IntentEnhanceExisting) {
		c.Score += 30
		c.Reasons = append(c.Reasons, "modification intent")
	}

	for _, chain := range chains {
		if chain.AppliesTo(project) {
			c.Score += 20
			c.Reasons = append(c.Reasons, fmt.Sprintf("chain %s -> %s applies", chain.From, chain.To))
		}
	}

	c.Compatible = c.Score >= CompatibleThreshold
	if c.Score > 100 {
		c.Score = 100
	}
	return c
}
