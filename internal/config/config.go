package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all canvasmind configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Cache      CacheConfig      `yaml:"cache"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Prediction PredictionConfig `yaml:"prediction"`
	Fusion     FusionConfig     `yaml:"fusion"`
	Projects   ProjectsConfig   `yaml:"projects"`
	Modules    ModulesConfig    `yaml:"modules"`
	Usage      UsageConfig      `yaml:"usage"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// CacheConfig configures the analysis result cache.
type CacheConfig struct {
	TTL      string `yaml:"ttl"`
	Capacity int    `yaml:"capacity"`
}

// ClassifierConfig configures semantic cluster scoring.
type ClassifierConfig struct {
	CoreWeight           int `yaml:"core_weight"`
	RelatedWeight        int `yaml:"related_weight"`
	ConfidenceMultiplier int `yaml:"confidence_multiplier"`
}

// FusionConfig holds the weights of the overall confidence blend.
type FusionConfig struct {
	ClusterWeight float64 `yaml:"cluster_weight"`
	IntentWeight  float64 `yaml:"intent_weight"`
	ProjectWeight float64 `yaml:"project_weight"`
	BonusWeight   float64 `yaml:"bonus_weight"`
	ProjectBonus  float64 `yaml:"project_bonus"` // points credited when a project exists
}

// ProjectsConfig configures the project working set and its persistence.
type ProjectsConfig struct {
	// Idle sessions are dropped from memory after this long (still persisted).
	SessionTTL   string `yaml:"session_ttl"`
	DatabasePath string `yaml:"database_path"` // empty = in-memory only
}

// UsageConfig configures performance metrics.
type UsageConfig struct {
	Window int    `yaml:"window"`  // latency samples kept before trimming
	SlowMS int64  `yaml:"slow_ms"` // average latency at which health reaches zero
	Path   string `yaml:"path"`    // optional JSON snapshot of statistics
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "canvasmind",
		Version: "0.3.0",

		Cache: CacheConfig{
			TTL:      "5m",
			Capacity: 100,
		},

		Classifier: ClassifierConfig{
			CoreWeight:           10,
			RelatedWeight:        5,
			ConfidenceMultiplier: 8,
		},

		Prediction: DefaultPredictionConfig(),

		Fusion: FusionConfig{
			ClusterWeight: 0.30,
			IntentWeight:  0.25,
			ProjectWeight: 0.25,
			BonusWeight:   0.20,
			ProjectBonus:  70,
		},

		Projects: ProjectsConfig{
			SessionTTL: "24h",
		},

		Modules: DefaultModulesConfig(),

		Usage: UsageConfig{
			Window: 100,
			SlowMS: 5000,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("CANVASMIND_DB"); path != "" {
		c.Projects.DatabasePath = path
	}
	if level := os.Getenv("CANVASMIND_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if path := os.Getenv("CANVASMIND_RULES"); path != "" {
		c.Prediction.RulesPath = path
	}
}

// GetCacheTTL returns the result cache TTL as a duration.
func (c *Config) GetCacheTTL() time.Duration {
	return parseDuration(c.Cache.TTL, 5*time.Minute)
}

// GetSessionTTL returns the session TTL as a duration.
func (c *Config) GetSessionTTL() time.Duration {
	return parseDuration(c.Projects.SessionTTL, 24*time.Hour)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if d, err := time.ParseDuration(c.Cache.TTL); err != nil || d <= 0 {
		return fmt.Errorf("cache.ttl must be a positive duration, got %q", c.Cache.TTL)
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Classifier.CoreWeight <= 0 || c.Classifier.RelatedWeight <= 0 || c.Classifier.ConfidenceMultiplier <= 0 {
		return fmt.Errorf("classifier weights must be positive")
	}
	for name, w := range map[string]float64{
		"cluster_weight": c.Fusion.ClusterWeight,
		"intent_weight":  c.Fusion.IntentWeight,
		"project_weight": c.Fusion.ProjectWeight,
		"bonus_weight":   c.Fusion.BonusWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("fusion.%s must be within [0,1], got %v", name, w)
		}
	}
	if c.Fusion.ProjectBonus < 0 || c.Fusion.ProjectBonus > 100 {
		return fmt.Errorf("fusion.project_bonus must be within [0,100], got %v", c.Fusion.ProjectBonus)
	}
	if c.Usage.Window <= 0 {
		return fmt.Errorf("usage.window must be positive, got %d", c.Usage.Window)
	}
	if c.Usage.SlowMS <= 0 {
		return fmt.Errorf("usage.slow_ms must be positive, got %d", c.Usage.SlowMS)
	}
	if err := c.Prediction.Validate(); err != nil {
		return err
	}
	return nil
}
