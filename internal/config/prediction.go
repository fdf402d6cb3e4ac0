package config

import (
	"fmt"
	"time"
)

// PredictionConfig configures the next-step predictor.
type PredictionConfig struct {
	// Optional YAML file replacing the embedded rule table.
	RulesPath string `yaml:"rules_path"`

	TopN           int     `yaml:"top_n"`
	KeywordBoost   float64 `yaml:"keyword_boost"`
	MaxProbability float64 `yaml:"max_probability"`

	// Inactivity decay.
	StaleAfter    string  `yaml:"stale_after"`
	StaleFactor   float64 `yaml:"stale_factor"`
	DormantAfter  string  `yaml:"dormant_after"`
	DormantFactor float64 `yaml:"dormant_factor"`

	// Append behavior-pattern predictions after the rule-based ones.
	Behavioral bool `yaml:"behavioral"`
}

// DefaultPredictionConfig returns the predictor defaults.
func DefaultPredictionConfig() PredictionConfig {
	return PredictionConfig{
		TopN:           3,
		KeywordBoost:   0.1,
		MaxProbability: 0.95,
		StaleAfter:     "2h",
		StaleFactor:    0.9,
		DormantAfter:   "24h",
		DormantFactor:  0.7,
		Behavioral:     true,
	}
}

// GetStaleAfter returns the short inactivity threshold.
func (c PredictionConfig) GetStaleAfter() time.Duration {
	return parseDuration(c.StaleAfter, 2*time.Hour)
}

// GetDormantAfter returns the long inactivity threshold.
func (c PredictionConfig) GetDormantAfter() time.Duration {
	return parseDuration(c.DormantAfter, 24*time.Hour)
}

// Validate checks ranges of the predictor settings.
func (c PredictionConfig) Validate() error {
	if c.TopN <= 0 {
		return fmt.Errorf("prediction.top_n must be positive, got %d", c.TopN)
	}
	if c.MaxProbability <= 0 || c.MaxProbability > 1 {
		return fmt.Errorf("prediction.max_probability must be within (0,1], got %v", c.MaxProbability)
	}
	if c.KeywordBoost < 0 {
		return fmt.Errorf("prediction.keyword_boost must not be negative")
	}
	for name, f := range map[string]float64{"stale_factor": c.StaleFactor, "dormant_factor": c.DormantFactor} {
		if f <= 0 || f > 1 {
			return fmt.Errorf("prediction.%s must be within (0,1], got %v", name, f)
		}
	}
	if c.GetDormantAfter() < c.GetStaleAfter() {
		return fmt.Errorf("prediction.dormant_after must not be shorter than stale_after")
	}
	return nil
}
