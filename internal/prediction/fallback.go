package prediction

import "canvasmind/internal/types"

// FallbackPredictor stands in when the rule table cannot be loaded.
type FallbackPredictor struct{}

// Predict returns no predictions.
func (FallbackPredictor) Predict(*types.Project, types.RequestContext) ([]types.Prediction, error) {
	return nil, nil
}
