package config

// ModulesConfig selects pluggable analysis modules.
type ModulesConfig struct {
	// Enrichers to load, in order. Unknown names are recorded as unavailable.
	Enrichers []string `yaml:"enrichers"`

	// Names of core roles or enrichers forced to their fallback.
	Disabled []string `yaml:"disabled"`
}

// DefaultModulesConfig loads every built-in enricher.
func DefaultModulesConfig() ModulesConfig {
	return ModulesConfig{
		Enrichers: []string{"context_clues", "implicit_requirements", "logical_chains"},
	}
}

// IsDisabled reports whether name is forced to fallback.
func (c ModulesConfig) IsDisabled(name string) bool {
	for _, d := range c.Disabled {
		if d == name {
			return true
		}
	}
	return false
}
