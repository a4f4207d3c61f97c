package stats

import (
	"sort"

	"crime_news/internal/models"
)

// tally - сырые счётчики по периодам и категориям.
type tally map[int]map[models.Category]float64

func (t tally) add(period int, c models.Category, n float64) {
	row, ok := t[period]
	if !ok {
		row = make(map[models.Category]float64, len(models.Categories))
		t[period] = row
	}
	row[c] += n
}

// Normalize переводит счётчики в проценты внутри каждого периода. Знаменатель -
// сумма ровно по четырём категориям; периоды с нулевой суммой отбрасываются.
// Результат упорядочен по возрастанию периода.
func Normalize(counts map[int]map[models.Category]float64) models.Distribution {
	periods := make([]int, 0, len(counts))
	for p := range counts {
		periods = append(periods, p)
	}
	sort.Ints(periods)

	dist := make(models.Distribution, 0, len(periods))
	for _, p := range periods {
		var total float64
		for _, c := range models.Categories {
			total += counts[p][c]
		}
		if total <= 0 {
			continue
		}

		shares := make(map[models.Category]float64, len(models.Categories))
		for _, c := range models.Categories {
			shares[c] = counts[p][c] / total * 100
		}
		dist = append(dist, models.PeriodShare{Period: p, Shares: shares})
	}
	return dist
}
