// Package prediction ranks likely next actions for a project.
//
// The rule table is data: a mapping from concept type and phase to an ordered
// list of rule records. The default table is embedded in the binary and can
// be replaced by a YAML file of the same shape.
package prediction

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"canvasmind/internal/logging"
	"canvasmind/internal/types"
)

//go:embed rules.yaml
var embeddedRules []byte

// Concept types of the rule table.
const (
	TypeBranding   = "branding"
	TypeApparel    = "apparel"
	TypeEmbroidery = "embroidery"
	TypeCharacter  = "character"
	TypeGeneral    = "general"
)

var knownTypes = map[string]bool{
	TypeBranding:   true,
	TypeApparel:    true,
	TypeEmbroidery: true,
	TypeCharacter:  true,
	TypeGeneral:    true,
}

// DoneWhen describes project state in which a rule's action is already done.
type DoneWhen struct {
	HasArtifact               types.ArtifactType `yaml:"has_artifact"`
	LatestDescriptionContains string             `yaml:"latest_description_contains"`
}

// Satisfied reports whether the project state already covers the action.
func (d *DoneWhen) Satisfied(p *types.Project) bool {
	if d == nil || p == nil {
		return false
	}
	if d.HasArtifact != "" && p.HasArtifactType(d.HasArtifact) {
		return true
	}
	if d.LatestDescriptionContains != "" && p.LatestDescriptionContains(d.LatestDescriptionContains) {
		return true
	}
	return false
}

// Rule is one next-step record.
type Rule struct {
	Action      string    `yaml:"action"`
	Description string    `yaml:"description"`
	Probability float64   `yaml:"probability"`
	Keywords    []string  `yaml:"keywords"`
	Benefits    string    `yaml:"benefits"`
	DoneWhen    *DoneWhen `yaml:"done_when"`
}

// BehaviorPrediction is what a behavior archetype contributes.
type BehaviorPrediction struct {
	Action      string  `yaml:"action"`
	Description string  `yaml:"description"`
	Probability float64 `yaml:"probability"`
	Confidence  float64 `yaml:"confidence"`
}

// Behavior is a user archetype recognized by indicator phrases.
type Behavior struct {
	Name       string              `yaml:"name"`
	Indicators []string            `yaml:"indicators"`
	Prediction *BehaviorPrediction `yaml:"prediction"`
}

// RuleTable is the parsed rule file.
type RuleTable struct {
	Concepts  map[string][]string               `yaml:"concepts"`
	Rules     map[string]map[types.Phase][]Rule `yaml:"rules"`
	Shared    map[types.Phase][]Rule            `yaml:"shared"`
	Prompts   map[string][]string               `yaml:"prompts"`
	Goals     map[string][]string               `yaml:"goals"`
	Behaviors []Behavior                        `yaml:"behaviors"`

	conceptIndex map[string]string
}

// DefaultRuleTable parses the embedded rule table.
func DefaultRuleTable() (*RuleTable, error) {
	return ParseRuleTable(embeddedRules)
}

// LoadRuleTable reads a rule table from disk.
func LoadRuleTable(path string) (*RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	table, err := ParseRuleTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.Prediction("Loaded rule table from %s", path)
	return table, nil
}

// ParseRuleTable decodes and validates a rule table.
func ParseRuleTable(data []byte) (*RuleTable, error) {
	var table RuleTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	table.index()
	return &table, nil
}

// Validate rejects tables that would silently never match.
func (t *RuleTable) Validate() error {
	if len(t.Rules) == 0 && len(t.Shared) == 0 {
		return fmt.Errorf("rule table has no rules")
	}
	for typ, phases := range t.Rules {
		if !knownTypes[typ] {
			return fmt.Errorf("unknown concept type %q", typ)
		}
		for phase, rules := range phases {
			if err := validateRules(typ, phase, rules); err != nil {
				return err
			}
		}
	}
	for phase, rules := range t.Shared {
		if err := validateRules("shared", phase, rules); err != nil {
			return err
		}
	}
	for typ := range t.Concepts {
		if !knownTypes[typ] {
			return fmt.Errorf("concepts: unknown concept type %q", typ)
		}
	}
	for typ := range t.Goals {
		if !knownTypes[typ] {
			return fmt.Errorf("goals: unknown concept type %q", typ)
		}
	}
	for i, b := range t.Behaviors {
		if b.Name == "" {
			return fmt.Errorf("behaviors[%d]: missing name", i)
		}
		if len(b.Indicators) == 0 {
			return fmt.Errorf("behavior %s: no indicators", b.Name)
		}
		if p := b.Prediction; p != nil {
			if p.Action == "" {
				return fmt.Errorf("behavior %s: prediction without action", b.Name)
			}
			if p.Probability <= 0 || p.Probability > 1 {
				return fmt.Errorf("behavior %s: probability %v outside (0,1]", b.Name, p.Probability)
			}
		}
	}
	return nil
}

func validateRules(typ string, phase types.Phase, rules []Rule) error {
	if !types.ValidPhase(phase) {
		return fmt.Errorf("%s: unknown phase %q", typ, phase)
	}
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		where := fmt.Sprintf("%s/%s[%d]", typ, phase, i)
		switch {
		case r.Action == "":
			return fmt.Errorf("%s: missing action", where)
		case r.Description == "":
			return fmt.Errorf("%s (%s): missing description", where, r.Action)
		case r.Probability <= 0 || r.Probability > 1:
			return fmt.Errorf("%s (%s): probability %v outside (0,1]", where, r.Action, r.Probability)
		case seen[r.Action]:
			return fmt.Errorf("%s: duplicate action %q", where, r.Action)
		}
		if r.DoneWhen != nil && r.DoneWhen.HasArtifact == "" && r.DoneWhen.LatestDescriptionContains == "" {
			return fmt.Errorf("%s (%s): empty done_when", where, r.Action)
		}
		seen[r.Action] = true
	}
	return nil
}

func (t *RuleTable) index() {
	t.conceptIndex = make(map[string]string)
	for typ, names := range t.Concepts {
		for _, name := range names {
			t.conceptIndex[strings.ToLower(name)] = typ
		}
	}
}

// ConceptType maps a project concept to its rule-table type.
func (t *RuleTable) ConceptType(concept string) string {
	if typ, ok := t.conceptIndex[strings.ToLower(strings.TrimSpace(concept))]; ok {
		return typ
	}
	return TypeGeneral
}

// RulesFor returns the type's rules for phase followed by the shared ones.
func (t *RuleTable) RulesFor(typ string, phase types.Phase) []Rule {
	own := t.Rules[typ][phase]
	shared := t.Shared[phase]
	out := make([]Rule, 0, len(own)+len(shared))
	out = append(out, own...)
	return append(out, shared...)
}

// PromptTemplates returns the templates for an action or the default set.
func (t *RuleTable) PromptTemplates(action string) []string {
	if p, ok := t.Prompts[action]; ok && len(p) > 0 {
		return p
	}
	return t.Prompts["default"]
}
