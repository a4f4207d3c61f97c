// Package catalog ищет в каталоге открытых данных (API в стиле CKAN) свежие наборы
// о преступности и полиции и читает начало их CSV-ресурсов.
package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crime_news/internal/logger"
)

const (
	searchPath  = "/api/3/action/package_search"
	searchQuery = "crime OR police"
)

// Dataset - начало одного CSV-ресурса.
type Dataset struct {
	Package  string     `json:"package"`
	Resource string     `json:"resource"`
	URL      string     `json:"url"`
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
}

// Report - всё, что удалось загрузить. Err заполнен, если упал сам поиск;
// в Errors перечислены ресурсы, которые не загрузились.
type Report struct {
	Datasets []Dataset `json:"datasets"`
	Errors   []string  `json:"errors,omitempty"`
	Failure  string    `json:"failure,omitempty"`
	Err      error     `json:"-"`
}

type searchResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Results []struct {
			Name      string     `json:"name"`
			Title     string     `json:"title"`
			Resources []resource `json:"resources"`
		} `json:"results"`
	} `json:"result"`
}

type resource struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	URL    string `json:"url"`
}

// Options - настройки клиента. Пустой BaseURL отключает каталог.
type Options struct {
	BaseURL      string
	Rows         int
	RowLimit     int
	MaxResources int
	Timeout      time.Duration
}

type Client struct {
	opts   Options
	client *http.Client
	log    *logger.Entry
}

func New(opts Options, client *http.Client, log *logger.Entry) *Client {
	if opts.Rows <= 0 {
		opts.Rows = 10
	}
	if opts.RowLimit <= 0 {
		opts.RowLimit = 1000
	}
	if opts.MaxResources <= 0 {
		opts.MaxResources = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if log == nil {
		log = logger.Component("catalog")
	}
	return &Client{opts: opts, client: client, log: log}
}

func (c *Client) Enabled() bool {
	return c != nil && c.opts.BaseURL != ""
}

// Search не возвращает ошибку: любые сбои попадают в Report.
func (c *Client) Search(ctx context.Context) Report {
	var report Report
	if !c.Enabled() {
		return report
	}

	resources, err := c.search(ctx)
	if err != nil {
		c.log.Warnf("Catalog search failed: %v", err)
		report.Err = err
		report.Failure = err.Error()
		return report
	}

	for _, r := range resources {
		if len(report.Datasets) >= c.opts.MaxResources {
			break
		}
		ds, err := c.load(ctx, r.URL, c.opts.RowLimit)
		if err != nil {
			c.log.WithField("resource", r.Name).Warnf("Catalog resource skipped: %v", err)
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", r.Name, err))
			continue
		}
		ds.Package = r.pkg
		ds.Resource = r.Name
		report.Datasets = append(report.Datasets, ds)
	}
	return report
}

type match struct {
	resource
	pkg string
}

func (c *Client) search(ctx context.Context) ([]match, error) {
	u, err := url.Parse(strings.TrimRight(c.opts.BaseURL, "/") + searchPath)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", searchQuery)
	q.Set("sort", "metadata_modified desc")
	q.Set("rows", strconv.Itoa(c.opts.Rows))
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp searchResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode search: %w", err)
	}
	if !resp.Success {
		return nil, errors.New("catalog reported failure")
	}

	var out []match
	for _, pkg := range resp.Result.Results {
		name := pkg.Title
		if name == "" {
			name = pkg.Name
		}
		for _, r := range pkg.Resources {
			if IsCrimeCSV(r.Name, r.Format) && r.URL != "" {
				out = append(out, match{resource: r, pkg: name})
			}
		}
	}
	return out, nil
}

// IsCrimeCSV сообщает, что ресурс - CSV, в имени которого есть crime или police.
func IsCrimeCSV(name, format string) bool {
	if !strings.EqualFold(strings.TrimSpace(format), "csv") {
		return false
	}
	lower := strings.ToLower(name)
	return strings.Contains(lower, "crime") || strings.Contains(lower, "police")
}

func (c *Client) load(ctx context.Context, resourceURL string, limit int) (Dataset, error) {
	body, err := c.get(ctx, resourceURL)
	if err != nil {
		return Dataset{}, err
	}
	defer body.Close()

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return Dataset{}, fmt.Errorf("read header: %w", err)
	}

	ds := Dataset{URL: resourceURL, Columns: header}
	for len(ds.Rows) < limit {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Dataset{}, fmt.Errorf("read row %d: %w", len(ds.Rows)+1, err)
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// get возвращает тело ответа 2xx; таймаут действует и на чтение тела.
func (c *Client) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
