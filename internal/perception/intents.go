package perception

import (
	"sort"
	"strings"

	"canvasmind/internal/logging"
	"canvasmind/internal/types"
)

// IntentPattern is one row of the intent table.
type IntentPattern struct {
	Name     string
	Type     types.IntentType
	Base     float64 // confidence when every pattern matches
	Patterns []string
}

// DefaultIntentPatterns returns the built-in intent table in declaration order.
func DefaultIntentPatterns() []IntentPattern {
	return []IntentPattern{
		{
			Name:     "continuation",
			Type:     types.IntentModifyExisting,
			Base:     0.9,
			Patterns: []string{"теперь", "а теперь", "сделай его", "измени его", "добавь к нему", "и еще"},
		},
		{
			Name:     "new_project",
			Type:     types.IntentCreateNew,
			Base:     0.85,
			Patterns: []string{"создай новый", "другой", "еще один", "давай сделаем", "хочу создать"},
		},
		{
			Name:     "improvement",
			Type:     types.IntentEnhanceExisting,
			Base:     0.8,
			Patterns: []string{"улучши", "сделай лучше", "доработай", "оптимизируй", "исправь"},
		},
		{
			Name:     "variation",
			Type:     types.IntentCreateVariation,
			Base:     0.75,
			Patterns: []string{"вариант", "версия", "альтернатива", "по-другому", "в другом стиле"},
		},
		{
			Name:     "format_conversion",
			Type:     types.IntentFormatConversion,
			Base:     0.95,
			Patterns: []string{"векторизуй", "в svg", "для печати", "для вышивки", "конвертируй"},
		},
	}
}

// IntentMatcher ranks intents by the share of their patterns found in text.
type IntentMatcher struct {
	patterns []IntentPattern
}

// NewIntentMatcher creates a matcher. A nil table means DefaultIntentPatterns.
func NewIntentMatcher(patterns []IntentPattern) *IntentMatcher {
	if patterns == nil {
		patterns = DefaultIntentPatterns()
	}
	return &IntentMatcher{patterns: patterns}
}

// MatchIntents returns every intent with at least one matched pattern,
// sorted by confidence descending. Ties keep declaration order.
func (m *IntentMatcher) MatchIntents(text string) ([]types.Intent, error) {
	lower := strings.ToLower(text)

	var intents []types.Intent
	for _, p := range m.patterns {
		if len(p.Patterns) == 0 {
			continue
		}
		var matched []string
		for _, pattern := range p.Patterns {
			if strings.Contains(lower, pattern) {
				matched = append(matched, pattern)
			}
		}
		if len(matched) == 0 {
			continue
		}
		intents = append(intents, types.Intent{
			Name:            p.Name,
			Type:            p.Type,
			Confidence:      p.Base * float64(len(matched)) / float64(len(p.Patterns)),
			MatchedPatterns: matched,
		})
	}

	sort.SliceStable(intents, func(i, j int) bool {
		return intents[i].Confidence > intents[j].Confidence
	})

	logging.PerceptionDebug("matched %d intents", len(intents))
	return intents, nil
}

// BestIntentConfidence returns the highest confidence, or 0 for no intents.
func BestIntentConfidence(intents []types.Intent) float64 {
	best := 0.0
	for _, in := range intents {
		if in.Confidence > best {
			best = in.Confidence
		}
	}
	return best
}
