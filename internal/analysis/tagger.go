package analysis

import (
	"regexp"
	"strings"

	"crime_news/internal/models"
)

// Match - найденные ключевые слова по категориям.
type Match map[models.Category][]string

// Categories возвращает совпавшие категории в порядке models.Categories.
func (m Match) Categories() []models.Category {
	var out []models.Category
	for _, c := range models.Categories {
		if len(m[c]) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// nonWord - граница слова с учётом Unicode; \b в regexp знает только ASCII.
const nonWord = `[^\p{L}\p{N}_]`

type pattern struct {
	keyword string
	re      *regexp.Regexp
}

// Tagger ищет ключевые слова целыми словами без учёта регистра.
// Шаблоны компилируются один раз в NewTagger, дальше Tagger только читается.
type Tagger struct {
	patterns map[models.Category][]pattern
}

// NewTagger компилирует словарь. Категории вне перечисления и пустые слова пропускаются.
func NewTagger(keywords models.KeywordSet) *Tagger {
	t := &Tagger{patterns: make(map[models.Category][]pattern, len(models.Categories))}
	for _, c := range models.Categories {
		for _, kw := range keywords[c] {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			t.patterns[c] = append(t.patterns[c], pattern{
				keyword: kw,
				re:      regexp.MustCompile(`(?:^|` + nonWord + `)` + regexp.QuoteMeta(kw) + `(?:$|` + nonWord + `)`),
			})
		}
	}
	return t
}

// Tag возвращает категории, для которых в тексте нашлось хотя бы одно ключевое слово.
func (t *Tagger) Tag(text string) Match {
	match := Match{}
	if text == "" {
		return match
	}

	lower := strings.ToLower(text)
	for _, c := range models.Categories {
		for _, p := range t.patterns[c] {
			if p.re.MatchString(lower) {
				match[c] = append(match[c], p.keyword)
			}
		}
	}
	return match
}
