package perception

import (
	"strings"

	"canvasmind/internal/types"
)

// =============================================================================
// CONTEXT CLUES
// =============================================================================

// BusinessProfile describes visual conventions of a business type.
type BusinessProfile struct {
	Type     string   `json:"type"`
	Colors   []string `json:"colors"`
	Elements []string `json:"elements"`
	Styles   []string `json:"styles"`
}

// UsageHint is a target medium implied by a keyword in the request.
type UsageHint struct {
	Keyword      string   `json:"keyword"`
	Medium       string   `json:"medium"`
	Requirements []string `json:"requirements"`
}

// Clues aggregates everything ExtractContextClues detected.
type Clues struct {
	Business   *BusinessProfile `json:"business,omitempty"`
	ColorHints []string         `json:"color_hints,omitempty"`
	StyleHints []string         `json:"style_hints,omitempty"`
	UsageHints []UsageHint      `json:"usage_hints,omitempty"`
}

// Empty reports whether no clue was found.
func (c Clues) Empty() bool {
	return c.Business == nil && len(c.UsageHints) == 0
}

var businessProfiles = []BusinessProfile{
	{
		Type:     "кофейня",
		Colors:   []string{"коричневый", "бежевый", "темно-зеленый", "кремовый"},
		Elements: []string{"зерна кофе", "чашка", "пар", "листья"},
		Styles:   []string{"уютный", "теплый", "натуральный"},
	},
	{
		Type:     "пиццерия",
		Colors:   []string{"красный", "зеленый", "белый", "желтый"},
		Elements: []string{"пицца", "итальянский флаг", "повар", "печь"},
		Styles:   []string{"итальянский", "традиционный", "аппетитный"},
	},
	{
		Type:     "магазин",
		Colors:   []string{"синий", "красный", "зеленый", "оранжевый"},
		Elements: []string{"корзина", "сумка", "тележка", "здание"},
		Styles:   []string{"доступный", "дружелюбный", "современный"},
	},
}

var usageHints = []UsageHint{
	{Keyword: "печать", Medium: "print", Requirements: []string{"высокое разрешение", "CMYK цвета"}},
	{Keyword: "веб", Medium: "digital", Requirements: []string{"RGB цвета", "оптимизация размера"}},
	{Keyword: "вывеска", Medium: "large_format", Requirements: []string{"высокий контраст", "простые формы"}},
	{Keyword: "вышивка", Medium: "embroidery", Requirements: []string{"упрощение деталей", "ограничение цветов"}},
}

// ExtractContextClues detects business type and usage medium in text.
// When several business types match, the last one wins the profile slot
// while all of them contribute color and style hints.
func ExtractContextClues(text string) Clues {
	lower := strings.ToLower(text)
	var clues Clues

	for i := range businessProfiles {
		profile := businessProfiles[i]
		if !strings.Contains(lower, profile.Type) {
			continue
		}
		clues.Business = &profile
		clues.ColorHints = append(clues.ColorHints, profile.Colors...)
		clues.StyleHints = append(clues.StyleHints, profile.Styles...)
	}

	for _, hint := range usageHints {
		if strings.Contains(lower, hint.Keyword) {
			clues.UsageHints = append(clues.UsageHints, hint)
		}
	}
	return clues
}

// Findings renders clues as enricher findings.
func (c Clues) Findings() []types.Finding {
	var findings []types.Finding
	if c.Business != nil {
		colors := c.Business.Colors
		if len(colors) > 3 {
			colors = colors[:3]
		}
		findings = append(findings, types.Finding{
			Kind:       "business_context",
			Detail:     "Подходящие цвета для " + c.Business.Type,
			Action:     "использовать цвета: " + strings.Join(colors, ", "),
			Importance: "medium",
			Confidence: 0.6,
		})
	}
	for _, hint := range c.UsageHints {
		findings = append(findings, types.Finding{
			Kind:       "usage_hint",
			Detail:     hint.Medium,
			Action:     strings.Join(hint.Requirements, ", "),
			Importance: "medium",
			Confidence: 0.5,
		})
	}
	return findings
}
