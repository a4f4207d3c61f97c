package catalog_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crime_news/internal/catalog"
	"crime_news/internal/logger"

	"github.com/stretchr/testify/require"
)

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/api/3/action/package_search", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "crime OR police", r.URL.Query().Get("q"))
		fmt.Fprintf(w, `{"success":true,"result":{"results":[
			{"name":"la-crime","title":"LA Crime","resources":[
				{"name":"Crime Data 2024","format":"CSV","url":"%[1]s/files/crime.csv"},
				{"name":"Crime Data 2024","format":"JSON","url":"%[1]s/files/crime.json"},
				{"name":"Budget","format":"CSV","url":"%[1]s/files/budget.csv"}
			]},
			{"name":"police-stops","title":"","resources":[
				{"name":"police stops","format":"csv","url":"%[1]s/files/missing.csv"},
				{"name":"Police arrests","format":"csv","url":"%[1]s/files/arrests.csv"}
			]}
		]}}`, srv.URL)
	})
	mux.HandleFunc("/files/crime.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("id,area\n1,a\n2,b\n3,c\n4,d\n"))
	})
	mux.HandleFunc("/files/arrests.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("id\n1\n"))
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch(t *testing.T) {
	srv := newCatalogServer(t)
	c := catalog.New(catalog.Options{BaseURL: srv.URL, RowLimit: 2, Timeout: time.Second}, nil, logger.Discard())

	report := c.Search(context.Background())
	require.NoError(t, report.Err)
	require.Len(t, report.Datasets, 2)

	first := report.Datasets[0]
	require.Equal(t, "LA Crime", first.Package)
	require.Equal(t, "Crime Data 2024", first.Resource)
	require.Equal(t, []string{"id", "area"}, first.Columns)
	require.Len(t, first.Rows, 2)

	require.Equal(t, "police-stops", report.Datasets[1].Package)
	require.Len(t, report.Errors, 1)
	require.True(t, strings.HasPrefix(report.Errors[0], "police stops:"))
}

func TestSearchMaxResources(t *testing.T) {
	srv := newCatalogServer(t)
	c := catalog.New(catalog.Options{BaseURL: srv.URL, MaxResources: 1, Timeout: time.Second}, nil, logger.Discard())

	report := c.Search(context.Background())
	require.Len(t, report.Datasets, 1)
	require.Len(t, report.Datasets[0].Rows, 4)
}

func TestSearchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	c := catalog.New(catalog.Options{BaseURL: srv.URL, Timeout: time.Second}, nil, logger.Discard())
	report := c.Search(context.Background())
	require.Error(t, report.Err)
	require.Empty(t, report.Datasets)
}

func TestSearchDisabled(t *testing.T) {
	c := catalog.New(catalog.Options{}, nil, logger.Discard())
	require.False(t, c.Enabled())

	report := c.Search(context.Background())
	require.NoError(t, report.Err)
	require.Empty(t, report.Datasets)
}

func TestIsCrimeCSV(t *testing.T) {
	require.True(t, catalog.IsCrimeCSV("Crime Incidents", "CSV"))
	require.True(t, catalog.IsCrimeCSV("POLICE calls", " csv "))
	require.False(t, catalog.IsCrimeCSV("Crime Incidents", "XLSX"))
	require.False(t, catalog.IsCrimeCSV("Parks", "CSV"))
}
