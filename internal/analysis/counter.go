package analysis

import "crime_news/internal/models"

// Count считает статьи, упоминающие каждую категорию. Статья добавляет
// не больше единицы на категорию, сколько бы слов этой категории в ней ни нашлось.
func (t *Tagger) Count(items []models.NewsItem) models.MentionCounts {
	counts := models.NewMentionCounts()
	for _, item := range items {
		for c := range t.Tag(item.Text()) {
			counts[c]++
		}
	}
	return counts
}

// Percentages возвращает долю каждой категории среди всех упоминаний.
// При нуле упоминаний результат пустой.
func Percentages(counts models.MentionCounts) map[models.Category]float64 {
	total := counts.Total()
	if total == 0 {
		return map[models.Category]float64{}
	}

	out := make(map[models.Category]float64, len(models.Categories))
	for _, c := range models.Categories {
		out[c] = float64(counts[c]) / float64(total) * 100
	}
	return out
}
