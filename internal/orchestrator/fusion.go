package orchestrator

import (
	"math"

	"canvasmind/internal/config"
	"canvasmind/internal/perception"
	"canvasmind/internal/types"
)

// Fuse combines the available signals into an overall 0-100 confidence.
// Each weighted factor counts only when positive, and the sum is divided by
// the number of counted factors:
//
//	cluster confidence            * ClusterWeight
//	best intent confidence * 100  * IntentWeight
//	project confidence * 100      * ProjectWeight
//	ProjectBonus                  * BonusWeight   (when a project exists)
func Fuse(w config.FusionConfig, cluster *types.ClusterMatch, intents []types.Intent, hasProject bool, projectConfidence float64) int {
	sum, factors := 0.0, 0

	if cluster != nil && cluster.Confidence > 0 {
		sum += cluster.Confidence * w.ClusterWeight
		factors++
	}
	if best := perception.BestIntentConfidence(intents); best > 0 {
		sum += best * 100 * w.IntentWeight
		factors++
	}
	if projectConfidence > 0 {
		sum += projectConfidence * 100 * w.ProjectWeight
		factors++
	}
	if hasProject {
		sum += w.ProjectBonus * w.BonusWeight
		factors++
	}

	if factors == 0 {
		return 0
	}
	v := int(math.Round(sum / float64(factors)))
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
