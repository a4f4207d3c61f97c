package fetcher

import (
	"context"
	"crime_news/internal/models"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// ErrMalformedFeed - документ не является ни RSS, ни Atom или не разбирается.
var ErrMalformedFeed = errors.New("malformed feed")

var (
	tagRegex   = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

var dateLayouts = []string{time.RFC1123Z, time.RFC1123, time.RFC3339, time.RFC822Z, time.RFC822}

// Fetcher загружает ленты. Каждый запрос ограничен таймаутом, повторов нет.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// New создаёт Fetcher. Если client == nil, используется http.Client с тем же таймаутом.
func New(client *http.Client, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{client: client, timeout: timeout}
}

// FetchRSS загружает ленту по url и приводит RSS 2.0 или Atom к models.Feed.
func (f *Fetcher) FetchRSS(ctx context.Context, url string) (*models.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	feed, err := Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	feed.URL = url
	for i := range feed.Items {
		feed.Items[i].Feed = url
	}
	return feed, nil
}

// Parse декодирует RSS 2.0 или Atom. Формат определяется по корневому элементу.
func Parse(r io.Reader) (*models.Feed, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "rss":
			var rss models.RSS
			if err := dec.DecodeElement(&rss, &start); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
			}
			return fromRSS(rss), nil
		case "feed":
			var atom models.Atom
			if err := dec.DecodeElement(&atom, &start); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
			}
			return fromAtom(atom), nil
		default:
			return nil, fmt.Errorf("%w: unexpected root element <%s>", ErrMalformedFeed, start.Name.Local)
		}
	}
}

func fromRSS(rss models.RSS) *models.Feed {
	feed := &models.Feed{Title: rss.Channel.Title}
	for _, item := range rss.Channel.Items {
		feed.Items = append(feed.Items, models.NewsItem{
			Title:     cleanText(item.Title),
			Summary:   cleanText(item.Description),
			Link:      strings.TrimSpace(item.Link),
			Published: parseDate(item.PubDate),
		})
	}
	return feed
}

func fromAtom(atom models.Atom) *models.Feed {
	feed := &models.Feed{Title: atom.Title}
	for _, entry := range atom.Entries {
		summary := entry.Summary
		if strings.TrimSpace(summary) == "" {
			summary = entry.Content
		}
		feed.Items = append(feed.Items, models.NewsItem{
			Title:     cleanText(entry.Title),
			Summary:   cleanText(summary),
			Link:      atomLink(entry.Links),
			Published: parseDate(entry.Updated),
		})
	}
	return feed
}

func atomLink(links []models.AtomLink) string {
	for _, l := range links {
		if l.Rel == "" || l.Rel == "alternate" {
			return l.Href
		}
	}
	if len(links) > 0 {
		return links[0].Href
	}
	return ""
}

// cleanText убирает HTML-теги и сущности, чтобы ключевые слова не искались в разметке.
func cleanText(s string) string {
	s = tagRegex.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}
