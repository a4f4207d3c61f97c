package analysis

import (
	"math"

	"crime_news/internal/models"
)

// Floor подставляется вместо нулевой доли, чтобы не делить на ноль
// и не получать отношение ровно 0 или бесконечность.
const Floor = 0.1

// Compare делит долю категории в новостях на её долю в последнем периоде распределения.
// Пустой результат означает, что сравнение не определено.
func Compare(counts models.MentionCounts, dist models.Distribution) models.Disproportion {
	total := counts.Total()
	latest, ok := dist.Latest()
	if total == 0 || !ok {
		return models.Disproportion{}
	}

	out := make(models.Disproportion, len(models.Categories))
	for _, c := range models.Categories {
		observed := Floor
		if counts[c] > 0 {
			observed = float64(counts[c]) / float64(total) * 100
		}
		reference := math.Max(latest.Shares[c], Floor)
		out[c] = observed / reference
	}
	return out
}

// Row - строка таблицы диспропорции.
type Row struct {
	Category models.Category `json:"category"`
	Ratio    float64         `json:"ratio"`
	Bias     string          `json:"bias"`
}

// Rows раскладывает результат в строки в порядке models.Categories.
func Rows(d models.Disproportion) []Row {
	rows := make([]Row, 0, len(d))
	for _, c := range models.Categories {
		ratio, ok := d[c]
		if !ok {
			continue
		}
		rows = append(rows, Row{Category: c, Ratio: ratio, Bias: models.Bias(ratio)})
	}
	return rows
}
