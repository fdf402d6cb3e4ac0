package perception

import (
	"strings"

	"canvasmind/internal/logging"
	"canvasmind/internal/types"
)

// ClassifierWeights are the scoring constants of cluster classification.
type ClassifierWeights struct {
	Core                 int // points per core keyword hit
	Related              int // points per related keyword hit
	ConfidenceMultiplier int // confidence = min(score*multiplier, 100)
}

// DefaultClassifierWeights returns 10/5/8.
func DefaultClassifierWeights() ClassifierWeights {
	return ClassifierWeights{Core: 10, Related: 5, ConfidenceMultiplier: 8}
}

// Classifier scores text against a cluster catalog by keyword containment.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	clusters []types.SemanticCluster
	weights  ClassifierWeights
}

// NewClassifier creates a classifier. A nil catalog means DefaultClusters.
func NewClassifier(clusters []types.SemanticCluster, weights ClassifierWeights) *Classifier {
	if clusters == nil {
		clusters = DefaultClusters()
	}
	return &Classifier{clusters: clusters, weights: weights}
}

// Clusters returns the catalog in declaration order.
func (c *Classifier) Clusters() []types.SemanticCluster {
	return c.clusters
}

// Classify returns the best scoring cluster, or nil when nothing matched.
// Ties keep the cluster declared first.
func (c *Classifier) Classify(text string) (*types.ClusterMatch, error) {
	lower := strings.ToLower(text)

	var best *types.ClusterMatch
	for _, cluster := range c.clusters {
		score := 0
		var core, related []string
		for _, kw := range cluster.Core {
			if strings.Contains(lower, kw) {
				score += c.weights.Core
				core = append(core, kw)
			}
		}
		for _, kw := range cluster.Related {
			if strings.Contains(lower, kw) {
				score += c.weights.Related
				related = append(related, kw)
			}
		}
		if score <= 0 {
			continue
		}

		logging.PerceptionDebug("cluster %s: score=%d core=%d related=%d", cluster.Name, score, len(core), len(related))

		if best == nil || score > best.Score {
			best = &types.ClusterMatch{
				ClusterName:         cluster.Name,
				Score:               score,
				Confidence:          clusterConfidence(score, c.weights.ConfidenceMultiplier),
				MatchedCoreTerms:    core,
				MatchedRelatedTerms: related,
				TypicalNextSteps:    append([]string(nil), cluster.TypicalNextSteps...),
			}
		}
	}

	if best == nil {
		logging.PerceptionDebug("no semantic cluster for %q", lower)
		return nil, nil
	}
	logging.Perception("cluster %s (confidence %.0f%%)", best.ClusterName, best.Confidence)
	return best, nil
}

func clusterConfidence(score, multiplier int) float64 {
	conf := score * multiplier
	if conf > 100 {
		conf = 100
	}
	return float64(conf)
}
