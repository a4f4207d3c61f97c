package pipeline

import (
	"context"
	"crime_news/internal/analysis"
	"crime_news/internal/catalog"
	"crime_news/internal/db"
	"crime_news/internal/fetcher"
	"crime_news/internal/logger"
	"crime_news/internal/metrics"
	"crime_news/internal/models"
	"crime_news/internal/stats"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoArticles - ни одна лента не дала статей; рендер дальше не идёт.
var ErrNoArticles = errors.New("no news articles could be fetched")

type FeedSource interface {
	FetchAll(ctx context.Context, log *logger.Entry, urls []string) ([]models.NewsItem, []fetcher.FeedResult)
}

type StatsSource interface {
	Load(ctx context.Context) stats.Result
}

type CatalogSource interface {
	Search(ctx context.Context) catalog.Report
}

type HistoryStore interface {
	SaveRender(ctx context.Context, r db.Render) error
}

// Report - всё, что нужно показать по одному рендеру.
type Report struct {
	ID            uuid.UUID                   `json:"id"`
	StartedAt     time.Time                   `json:"started_at"`
	Took          time.Duration               `json:"took"`
	Articles      []models.NewsItem           `json:"articles"`
	Feeds         []fetcher.FeedResult        `json:"feeds"`
	Counts        models.MentionCounts        `json:"counts"`
	Observed      map[models.Category]float64 `json:"observed"`
	Stats         stats.Result                `json:"stats"`
	Disproportion models.Disproportion        `json:"disproportion"`
	Rows          []analysis.Row              `json:"rows"`
	Catalog       catalog.Report              `json:"catalog"`
}

// Pipeline выполняет один рендер: ленты, разметка, подсчёт, статистика, сравнение.
// Ничего не хранит между вызовами Run.
type Pipeline struct {
	feeds   []string
	fetcher FeedSource
	stats   StatsSource
	catalog CatalogSource
	tagger  *analysis.Tagger
	store   HistoryStore
	metrics *metrics.Metrics
	log     *logger.Entry
}

type Options struct {
	Feeds   []string
	Fetcher FeedSource
	Stats   StatsSource
	Catalog CatalogSource
	Tagger  *analysis.Tagger
	Store   HistoryStore
	Metrics *metrics.Metrics
	Log     *logger.Entry
}

func New(opts Options) *Pipeline {
	if opts.Tagger == nil {
		opts.Tagger = analysis.NewTagger(models.DefaultKeywords())
	}
	if opts.Log == nil {
		opts.Log = logger.Component("pipeline")
	}
	return &Pipeline{
		feeds:   opts.Feeds,
		fetcher: opts.Fetcher,
		stats:   opts.Stats,
		catalog: opts.Catalog,
		tagger:  opts.Tagger,
		store:   opts.Store,
		metrics: opts.Metrics,
		log:     opts.Log,
	}
}

// Run возвращает ErrNoArticles вместе с частично заполненным отчётом (ленты с ошибками),
// во всех остальных случаях отказы источников попадают в отчёт, а не в ошибку.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{ID: uuid.New(), StartedAt: time.Now().UTC()}
	log := p.log.WithField("render_id", report.ID.String())
	log.Info("Render started")

	report.Articles, report.Feeds = p.fetcher.FetchAll(ctx, log, p.feeds)
	for _, f := range report.Feeds {
		p.feedFetched(f.Err == nil)
	}
	if len(report.Articles) == 0 {
		log.Error("No articles fetched")
		p.finish(report, "no_articles")
		return report, ErrNoArticles
	}

	report.Counts = p.tagger.Count(report.Articles)
	report.Observed = analysis.Percentages(report.Counts)

	report.Stats = p.stats.Load(ctx)
	report.Disproportion = analysis.Compare(report.Counts, report.Stats.Distribution)
	report.Rows = analysis.Rows(report.Disproportion)

	if p.catalog != nil {
		report.Catalog = p.catalog.Search(ctx)
	}

	log.WithFields(logger.Fields{
		"articles": len(report.Articles),
		"mentions": report.Counts.Total(),
		"source":   report.Stats.Source,
		"live":     report.Stats.Live,
	}).Info("Render finished")

	if p.metrics != nil {
		p.metrics.Articles(len(report.Articles))
		p.metrics.Mentions(report.Counts)
		p.metrics.Ratios(report.Disproportion)
		p.metrics.StatsLoaded(string(report.Stats.Source))
	}
	p.finish(report, "ok")
	p.save(ctx, log, report)

	return report, nil
}

func (p *Pipeline) feedFetched(ok bool) {
	if p.metrics != nil {
		p.metrics.FeedFetched(ok)
	}
}

func (p *Pipeline) finish(report *Report, status string) {
	report.Took = time.Since(report.StartedAt)
	if p.metrics != nil {
		p.metrics.Rendered(status, report.Took)
	}
}

func (p *Pipeline) save(ctx context.Context, log *logger.Entry, report *Report) {
	if p.store == nil {
		return
	}

	render := db.Render{
		ID:         report.ID,
		RenderedAt: report.StartedAt,
		Articles:   len(report.Articles),
		Source:     string(report.Stats.Source),
		Live:       report.Stats.Live,
	}
	for _, c := range models.Categories {
		row := db.CategoryRow{Category: string(c), Mentions: report.Counts[c]}
		if ratio, ok := report.Disproportion[c]; ok {
			row.Ratio = &ratio
		}
		render.Categories = append(render.Categories, row)
	}

	if err := p.store.SaveRender(ctx, render); err != nil {
		log.Warnf("Save render failed: %v", err)
	}
}
