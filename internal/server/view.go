package server

import (
	"crime_news/internal/analysis"
	"crime_news/internal/catalog"
	"crime_news/internal/fetcher"
	"crime_news/internal/models"
	"crime_news/internal/pipeline"
	"crime_news/internal/stats"
	"errors"
)

const debugArticles = 3

type mentionBar struct {
	Category models.Category
	Count    int
	Share    float64
	Width    float64
}

type referenceRow struct {
	Period int
	Shares []float64
}

type view struct {
	Warning     string
	Infos       []string
	Articles    int
	Mentions    []mentionBar
	SourceLabel string
	Categories  []models.Category
	Reference   []referenceRow
	Remote      stats.Outcome
	Local       stats.Outcome
	Rows        []analysis.Row
	Feeds       []fetcher.FeedResult
	Catalog     catalog.Report
	Debug       bool
	Sample      []models.NewsItem
}

// buildView готовит данные для шаблона. При нуле статей остаётся только предупреждение.
func buildView(report *pipeline.Report, err error, debug bool) view {
	v := view{Categories: models.Categories, Debug: debug}
	if report != nil {
		v.Feeds = report.Feeds
	}

	if err != nil {
		if errors.Is(err, pipeline.ErrNoArticles) {
			v.Warning = "No news articles could be fetched at this time."
		} else {
			v.Warning = "Dashboard could not be rendered: " + err.Error()
		}
		return v
	}

	v.Articles = len(report.Articles)
	v.Mentions = mentionBars(report.Counts, report.Observed)
	if report.Counts.Total() == 0 {
		v.Infos = append(v.Infos, "No race-related keywords were found in the fetched articles.")
	}

	v.SourceLabel = string(stats.SourceLocal)
	if report.Stats.Live {
		v.SourceLabel = string(stats.SourceRemote)
	}
	v.Remote = report.Stats.Remote
	v.Local = report.Stats.Local
	for _, p := range report.Stats.Distribution {
		row := referenceRow{Period: p.Period}
		for _, c := range models.Categories {
			row.Shares = append(row.Shares, p.Shares[c])
		}
		v.Reference = append(v.Reference, row)
	}
	if len(v.Reference) == 0 {
		v.Infos = append(v.Infos, "No reference statistics are available: the live API and the local dataset both failed.")
	}

	v.Rows = report.Rows
	if len(v.Rows) == 0 {
		v.Infos = append(v.Infos, "Disproportionality data could not be computed.")
	}

	v.Catalog = report.Catalog
	if debug {
		v.Sample = report.Articles
		if len(v.Sample) > debugArticles {
			v.Sample = v.Sample[:debugArticles]
		}
	}
	return v
}

func mentionBars(counts models.MentionCounts, observed map[models.Category]float64) []mentionBar {
	max := 0
	for _, c := range models.Categories {
		if counts[c] > max {
			max = counts[c]
		}
	}

	bars := make([]mentionBar, 0, len(models.Categories))
	for _, c := range models.Categories {
		bar := mentionBar{Category: c, Count: counts[c], Share: observed[c]}
		if max > 0 {
			bar.Width = float64(counts[c]) / float64(max) * 100
		}
		bars = append(bars, bar)
	}
	return bars
}
