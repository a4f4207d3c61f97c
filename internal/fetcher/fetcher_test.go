package fetcher_test

import (
	"context"
	"crime_news/internal/fetcher"
	"crime_news/internal/logger"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<title>Test Feed</title>
		<item>
			<title>Black suspect arrested</title>
			<description>&lt;p&gt;Police said &lt;b&gt;more&lt;/b&gt;&lt;/p&gt;</description>
			<pubDate>Wed, 03 May 2023 15:04:05 +0000</pubDate>
			<link>http://example.com/test</link>
		</item>
		<item>
			<title>Second</title>
			<description>white officer involved</description>
			<link>http://example.com/second</link>
		</item>
	</channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Atom Feed</title>
	<entry>
		<title>Latino leaders meet</title>
		<link rel="alternate" href="http://example.com/atom/1"/>
		<updated>2024-02-03T04:05:06Z</updated>
		<content>Full content here</content>
	</entry>
</feed>`

func TestFetchRSS(t *testing.T) {
	testCases := []struct {
		name      string
		body      string
		status    int
		wantTitle string
		wantItems int
		wantErr   bool
	}{
		{name: "valid rss", body: rssFeed, status: http.StatusOK, wantTitle: "Test Feed", wantItems: 2},
		{name: "valid atom", body: atomFeed, status: http.StatusOK, wantTitle: "Atom Feed", wantItems: 1},
		{name: "html page", body: "<html><body>nope</body></html>", status: http.StatusOK, wantErr: true},
		{name: "broken xml", body: "<rss><channel><item>", status: http.StatusOK, wantErr: true},
		{name: "server error", body: rssFeed, status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			f := fetcher.New(nil, time.Second)
			feed, err := f.FetchRSS(context.Background(), server.URL)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantTitle, feed.Title)
			require.Len(t, feed.Items, tc.wantItems)
			for _, item := range feed.Items {
				require.Equal(t, server.URL, item.Feed)
			}
		})
	}
}

func TestParseRSSCleansMarkup(t *testing.T) {
	feed, err := fetcher.Parse(strings.NewReader(rssFeed))
	require.NoError(t, err)

	first := feed.Items[0]
	require.Equal(t, "Black suspect arrested", first.Title)
	require.Equal(t, "Police said more", first.Summary)
	require.Equal(t, "http://example.com/test", first.Link)
	require.Equal(t, 2023, first.Published.Year())

	require.True(t, feed.Items[1].Published.IsZero())
}

func TestParseAtomFallsBackToContent(t *testing.T) {
	feed, err := fetcher.Parse(strings.NewReader(atomFeed))
	require.NoError(t, err)

	entry := feed.Items[0]
	require.Equal(t, "Latino leaders meet", entry.Title)
	require.Equal(t, "Full content here", entry.Summary)
	require.Equal(t, "http://example.com/atom/1", entry.Link)
	require.Equal(t, 2024, entry.Published.Year())
}

func TestParseMalformed(t *testing.T) {
	_, err := fetcher.Parse(strings.NewReader(""))
	require.ErrorIs(t, err, fetcher.ErrMalformedFeed)

	_, err = fetcher.Parse(strings.NewReader("<html></html>"))
	require.ErrorIs(t, err, fetcher.ErrMalformedFeed)
}

func TestFetchAllSkipsFailedFeeds(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssFeed))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not xml at all"))
	}))
	defer bad.Close()

	f := fetcher.New(nil, time.Second)
	items, results := f.FetchAll(context.Background(), logger.Discard(), []string{
		bad.URL, good.URL, good.URL, "http://127.0.0.1:1/unreachable",
	})

	require.Len(t, items, 2)
	require.Len(t, results, 3)

	require.ErrorIs(t, results[0].Err, fetcher.ErrMalformedFeed)
	require.NotEmpty(t, results[0].Reason())
	require.NoError(t, results[1].Err)
	require.Equal(t, 2, results[1].Items)
	require.Empty(t, results[1].Reason())
	require.Error(t, results[2].Err)
}

func TestFetchRSSTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
		w.Write([]byte(rssFeed))
	}))
	defer slow.Close()

	f := fetcher.New(nil, 50*time.Millisecond)
	_, err := f.FetchRSS(context.Background(), slow.URL)
	require.Error(t, err)
}

func TestParseLatin1Feed(t *testing.T) {
	body := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><rss><channel><title>Caf\xe9</title>" +
		"<item><title>Hispanic residents</title></item></channel></rss>"

	feed, err := fetcher.Parse(strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, "Café", feed.Title)
	require.Equal(t, "Hispanic residents", feed.Items[0].Title)
}
