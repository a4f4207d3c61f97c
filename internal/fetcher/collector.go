package fetcher

import (
	"context"
	"crime_news/internal/logger"
	"crime_news/internal/models"
	"encoding/json"
)

// FeedResult - итог загрузки одной ленты. Err != nil означает, что лента пропущена целиком.
type FeedResult struct {
	URL   string `json:"url"`
	Items int    `json:"items"`
	Err   error  `json:"-"`
}

// Reason возвращает текст ошибки для отображения или пустую строку.
func (r FeedResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func (r FeedResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		URL   string `json:"url"`
		Items int    `json:"items"`
		Error string `json:"error,omitempty"`
	}{r.URL, r.Items, r.Reason()})
}

// FetchAll последовательно загружает ленты. Упавшая или битая лента пропускается,
// статьи остальных лент возвращаются в порядке списка.
func (f *Fetcher) FetchAll(ctx context.Context, log *logger.Entry, urls []string) ([]models.NewsItem, []FeedResult) {
	var (
		items   []models.NewsItem
		results []FeedResult
	)
	seen := make(map[string]struct{}, len(urls))

	for _, url := range urls {
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}

		flog := log.WithField("url", url)
		flog.Debug("Fetching feed")

		feed, err := f.FetchRSS(ctx, url)
		if err != nil {
			flog.Warnf("Feed skipped: %v", err)
			results = append(results, FeedResult{URL: url, Err: err})
			continue
		}

		flog.WithField("items_count", len(feed.Items)).Info("Feed fetched")
		items = append(items, feed.Items...)
		results = append(results, FeedResult{URL: url, Items: len(feed.Items)})
	}
	return items, results
}
