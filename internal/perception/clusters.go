package perception

import "canvasmind/internal/types"

// =============================================================================
// SEMANTIC CLUSTER CATALOG
// =============================================================================
// Declaration order matters: it breaks score ties in Classify.

// DefaultClusters returns the built-in cluster catalog.
func DefaultClusters() []types.SemanticCluster {
	return []types.SemanticCluster{
		{
			Name:             "branding",
			Core:             []string{"логотип", "бренд", "фирменный стиль", "айдентика"},
			Related:          []string{"визитка", "фирменные цвета", "шрифт", "слоган", "эмблема"},
			Implications:     []string{"масштабируемость", "узнаваемость", "профессионализм"},
			TypicalNextSteps: []string{"векторизация", "цветовые варианты", "монохромная версия", "применение на носителях"},
		},
		{
			Name:             "image_creation",
			Core:             []string{"изображение", "картинка", "рисунок", "панда", "кибер", "персонаж", "создай", "нарисуй"},
			Related:          []string{"фото", "иллюстрация", "арт", "дизайн", "животное", "робот", "техно", "футуристический"},
			Implications:     []string{"визуализация", "творчество", "стилизация"},
			TypicalNextSteps: []string{"выбор стиля", "детализация", "цветокоррекция", "оптимизация"},
		},
		{
			Name:             "apparel_design",
			Core:             []string{"принт", "футболка", "одежда", "тишарт"},
			Related:          []string{"печать", "ткань", "краски", "размер", "позиционирование"},
			Implications:     []string{"читаемость на расстоянии", "долговечность печати", "простота форм"},
			TypicalNextSteps: []string{"оптимизация для печати", "адаптация размеров", "цветокоррекция"},
		},
		{
			Name:             "embroidery_design",
			Core:             []string{"вышивка", "машинная вышивка", "dst", "pes", "jef"},
			Related:          []string{"нитки", "плотность", "стежки", "детализация"},
			Implications:     []string{"ограничение мелких деталей", "максимум 15 цветов", "толщина линий"},
			TypicalNextSteps: []string{"упрощение деталей", "конвертация в формат вышивки", "подбор ниток"},
		},
		{
			Name:             "character_design",
			Core:             []string{"персонаж", "герой", "character", "mascot"},
			Related:          []string{"эмоции", "позы", "выражения", "стиль", "пропорции"},
			Implications:     []string{"узнаваемость", "эмоциональная связь", "масштабируемость использования"},
			TypicalNextSteps: []string{"вариации эмоций", "разные позы", "стилизация"},
		},
		{
			Name:             "signage_design",
			Core:             []string{"вывеска", "баннер", "указатель", "реклама"},
			Related:          []string{"читаемость", "контрастность", "размер шрифта", "расстояние просмотра"},
			Implications:     []string{"видимость издалека", "погодная стойкость", "простота восприятия"},
			TypicalNextSteps: []string{"увеличение контрастности", "упрощение деталей", "векторизация"},
		},
	}
}

// relatedConceptGroups lists concept names that count as the same line of work.
var relatedConceptGroups = [][]string{
	{"logo", "логотип", "branding"},
	{"print", "принт", "apparel_design"},
	{"character", "персонаж", "character_design"},
	{"embroidery", "вышивка", "embroidery_design"},
}

// RelatedConcepts reports whether a and b share a related-concept group.
func RelatedConcepts(a, b string) bool {
	for _, group := range relatedConceptGroups {
		if contains(group, a) && contains(group, b) {
			return true
		}
	}
	return false
}

// ConceptsCompatible reports a direct match or related-group membership.
func ConceptsCompatible(a, b string) bool {
	return a == b || RelatedConcepts(a, b)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
