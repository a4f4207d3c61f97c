package models

// Category - одна из четырёх фиксированных категорий.
type Category string

const (
	White    Category = "White"
	Black    Category = "Black"
	Hispanic Category = "Hispanic"
	Asian    Category = "Asian"
)

// Categories задаёт порядок категорий для таблиц, графиков и JSON.
var Categories = []Category{White, Black, Hispanic, Asian}

// ParseCategory возвращает категорию по её имени. Имена вне перечисления не принимаются.
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// KeywordSet сопоставляет категории список ключевых слов в нижнем регистре.
type KeywordSet map[Category][]string

// DefaultKeywords возвращает словарь по умолчанию.
func DefaultKeywords() KeywordSet {
	return KeywordSet{
		Black:    {"black", "african-american", "african american"},
		White:    {"white", "caucasian"},
		Hispanic: {"hispanic", "latino", "latina"},
		Asian:    {"asian", "chinese", "korean", "vietnamese"},
	}
}

// MentionCounts - число статей, упоминающих каждую категорию.
type MentionCounts map[Category]int

// NewMentionCounts возвращает счётчики со всеми четырьмя ключами, равными нулю.
func NewMentionCounts() MentionCounts {
	counts := make(MentionCounts, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}
	return counts
}

// Total возвращает сумму упоминаний по известным категориям.
func (m MentionCounts) Total() int {
	total := 0
	for _, c := range Categories {
		total += m[c]
	}
	return total
}
