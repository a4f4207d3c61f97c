package metrics

import (
	"net/http"
	"time"

	"crime_news/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics собирает показатели рендеров в собственный реестр.
type Metrics struct {
	registry      *prometheus.Registry
	feedFetches   *prometheus.CounterVec
	articles      prometheus.Gauge
	mentions      *prometheus.GaugeVec
	ratios        *prometheus.GaugeVec
	statsSource   *prometheus.CounterVec
	renders       *prometheus.CounterVec
	renderSeconds prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		feedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crime_news",
			Name:      "feed_fetches_total",
			Help:      "Feed fetch attempts by outcome.",
		}, []string{"status"}),
		articles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crime_news",
			Name:      "articles",
			Help:      "Articles fetched in the last render.",
		}),
		mentions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "crime_news",
			Name:      "mentions",
			Help:      "Articles mentioning each category in the last render.",
		}, []string{"category"}),
		ratios: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "crime_news",
			Name:      "disproportion_ratio",
			Help:      "News share divided by reference share in the last render.",
		}, []string{"category"}),
		statsSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crime_news",
			Name:      "stats_loads_total",
			Help:      "Reference statistics loads by source used.",
		}, []string{"source"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crime_news",
			Name:      "renders_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"status"}),
		renderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crime_news",
			Name:      "render_duration_seconds",
			Help:      "Duration of one pipeline run.",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.feedFetches, m.articles, m.mentions, m.ratios, m.statsSource, m.renders, m.renderSeconds,
	)
	return m
}

func (m *Metrics) FeedFetched(ok bool) {
	if ok {
		m.feedFetches.WithLabelValues("ok").Inc()
		return
	}
	m.feedFetches.WithLabelValues("failed").Inc()
}

func (m *Metrics) Articles(n int) {
	m.articles.Set(float64(n))
}

func (m *Metrics) Mentions(counts models.MentionCounts) {
	for _, c := range models.Categories {
		m.mentions.WithLabelValues(string(c)).Set(float64(counts[c]))
	}
}

// Ratios обновляет отношения; категории без значения сбрасываются.
func (m *Metrics) Ratios(d models.Disproportion) {
	m.ratios.Reset()
	for c, ratio := range d {
		m.ratios.WithLabelValues(string(c)).Set(ratio)
	}
}

func (m *Metrics) StatsLoaded(source string) {
	m.statsSource.WithLabelValues(source).Inc()
}

func (m *Metrics) Rendered(status string, took time.Duration) {
	m.renders.WithLabelValues(status).Inc()
	m.renderSeconds.Observe(took.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
