package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"crime_news/internal/models"
)

var (
	// ErrMissingFields - в ответе нет списка results, у записи нет year, race или offender_count
	// либо одна из категорий не встречается ни в одной записи.
	ErrMissingFields = errors.New("required fields missing")
	// ErrNegativeCount - offender_count меньше нуля.
	ErrNegativeCount = errors.New("negative offender count")
	// ErrNoAPIKey - ключ не задан, удалённый источник не опрашивается.
	ErrNoAPIKey = errors.New("api key not configured")
)

type estimatesResponse struct {
	Results *[]estimateRecord `json:"results"`
}

type estimateRecord struct {
	Year          *json.Number `json:"year"`
	Race          *string      `json:"race"`
	OffenderCount *json.Number `json:"offender_count"`
}

// FetchRemote запрашивает оценки по преступникам и строит из них распределение.
// Любая ошибка означает, что ответу доверять нельзя целиком.
func (l *Loader) FetchRemote(ctx context.Context) (models.Distribution, error) {
	if l.opts.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	u, err := url.Parse(l.opts.RemoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote url: %w", err)
	}
	q := u.Query()
	q.Set("api_key", l.opts.APIKey)
	q.Set("limit", strconv.Itoa(l.opts.Limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		// url.Error печатает адрес вместе с api_key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("request estimates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var body estimatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode estimates: %w", err)
	}

	return parseEstimates(body)
}

func parseEstimates(body estimatesResponse) (models.Distribution, error) {
	if body.Results == nil || len(*body.Results) == 0 {
		return nil, fmt.Errorf("%w: results", ErrMissingFields)
	}

	counts := tally{}
	seen := make(map[models.Category]bool, len(models.Categories))
	for i, rec := range *body.Results {
		if rec.Year == nil || rec.Race == nil || rec.OffenderCount == nil {
			return nil, fmt.Errorf("%w: record %d", ErrMissingFields, i)
		}

		year, err := rec.Year.Float64()
		if err != nil {
			return nil, fmt.Errorf("record %d: bad year %q", i, rec.Year.String())
		}
		count, err := rec.OffenderCount.Float64()
		if err != nil {
			return nil, fmt.Errorf("record %d: bad offender_count %q", i, rec.OffenderCount.String())
		}
		if count < 0 {
			return nil, fmt.Errorf("%w: record %d", ErrNegativeCount, i)
		}

		category, ok := models.ParseCategory(*rec.Race)
		if !ok {
			continue
		}
		seen[category] = true
		counts.add(int(math.Trunc(year)), category, count)
	}

	for _, c := range models.Categories {
		if !seen[c] {
			return nil, fmt.Errorf("%w: no records for %s", ErrMissingFields, c)
		}
	}
	return Normalize(counts), nil
}
