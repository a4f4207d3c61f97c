package analysis_test

import (
	"testing"

	"crime_news/internal/analysis"
	"crime_news/internal/models"

	"github.com/stretchr/testify/require"
)

func TestTag(t *testing.T) {
	tagger := analysis.NewTagger(models.DefaultKeywords())

	testCases := []struct {
		name string
		text string
		want analysis.Match
	}{
		{name: "empty", text: "", want: analysis.Match{}},
		{name: "substring is not a word", text: "Officials whitewash the report", want: analysis.Match{}},
		{name: "hyphenated word", text: "White-collar fraud case", want: analysis.Match{models.White: {"white"}}},
		{name: "case insensitive", text: "LATINO community leaders", want: analysis.Match{models.Hispanic: {"latino"}}},
		{
			name: "several keywords one category",
			text: "asian and chinese residents",
			want: analysis.Match{models.Asian: {"asian", "chinese"}},
		},
		{
			name: "phrase and hyphenated form",
			text: "an African American man and an african-american woman",
			want: analysis.Match{models.Black: {"african-american", "african american"}},
		},
		{name: "phrase needs single space", text: "african  american", want: analysis.Match{}},
		{
			name: "two categories",
			text: "black suspect, caucasian victim",
			want: analysis.Match{models.Black: {"black"}, models.White: {"caucasian"}},
		},
		{name: "non-ascii letter before keyword", text: "ñwhite report", want: analysis.Match{}},
		{name: "non-ascii letter after keyword", text: "whiteñ report", want: analysis.Match{}},
		{name: "digit after keyword", text: "black2 squad", want: analysis.Match{}},
		{name: "non-ascii neighbour word", text: "Señor white testified", want: analysis.Match{models.White: {"white"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tagger.Tag(tc.text))
		})
	}
}

func TestMatchCategoriesOrdered(t *testing.T) {
	tagger := analysis.NewTagger(models.DefaultKeywords())
	m := tagger.Tag("korean, hispanic, black and white")
	require.Equal(t, []models.Category{models.White, models.Black, models.Hispanic, models.Asian}, m.Categories())
}

func TestNewTaggerIgnoresUnknownCategories(t *testing.T) {
	tagger := analysis.NewTagger(models.KeywordSet{
		models.White:        {"  White ", ""},
		models.Category("X"): {"martian"},
	})
	require.Equal(t, analysis.Match{models.White: {"white"}}, tagger.Tag("white martian"))
	require.Empty(t, tagger.Tag("martian"))
}

func TestCount(t *testing.T) {
	tagger := analysis.NewTagger(models.DefaultKeywords())

	items := []models.NewsItem{
		{Title: "Black suspect arrested", Summary: ""},
		{Title: "", Summary: "white officer involved"},
	}
	require.Equal(t, models.MentionCounts{
		models.Black:    1,
		models.White:    1,
		models.Hispanic: 0,
		models.Asian:    0,
	}, tagger.Count(items))
}

func TestCountOncePerCategory(t *testing.T) {
	tagger := analysis.NewTagger(models.DefaultKeywords())
	counts := tagger.Count([]models.NewsItem{
		{Title: "Chinese and Korean shop owners", Summary: "Asian business district"},
	})
	require.Equal(t, 1, counts[models.Asian])
	require.Equal(t, 1, counts.Total())
}

func TestCountTitleSummaryJoinedWithSpace(t *testing.T) {
	tagger := analysis.NewTagger(models.DefaultKeywords())
	counts := tagger.Count([]models.NewsItem{{Title: "Suspect is", Summary: "white"}})
	require.Equal(t, 1, counts[models.White])

	counts = tagger.Count([]models.NewsItem{{Title: "off", Summary: "white"}})
	require.Equal(t, 1, counts[models.White])
}

func TestCountEmpty(t *testing.T) {
	tagger := analysis.NewTagger(models.DefaultKeywords())
	counts := tagger.Count(nil)
	require.Len(t, counts, 4)
	require.Zero(t, counts.Total())
}

func TestCountOrderIndependent(t *testing.T) {
	tagger := analysis.NewTagger(models.DefaultKeywords())
	items := []models.NewsItem{
		{Title: "Hispanic family displaced"},
		{Title: "Vietnamese restaurant robbed", Summary: "white van seen"},
		{Title: "Weather update"},
		{Title: "Black Friday theft", Summary: "latina shopper"},
	}
	reversed := make([]models.NewsItem, len(items))
	for i, item := range items {
		reversed[len(items)-1-i] = item
	}
	rotated := append(append([]models.NewsItem{}, items[2:]...), items[:2]...)

	want := tagger.Count(items)
	require.Equal(t, want, tagger.Count(reversed))
	require.Equal(t, want, tagger.Count(rotated))
	require.Equal(t, 2, want[models.Hispanic])
}

func TestPercentages(t *testing.T) {
	require.Empty(t, analysis.Percentages(models.NewMentionCounts()))

	got := analysis.Percentages(models.MentionCounts{models.White: 1, models.Black: 3})
	require.InDelta(t, 25.0, got[models.White], 1e-9)
	require.InDelta(t, 75.0, got[models.Black], 1e-9)
	require.Zero(t, got[models.Asian])
}

func TestCompare(t *testing.T) {
	dist := models.Distribution{
		{Period: 2020, Shares: map[models.Category]float64{
			models.White: 40, models.Black: 35, models.Hispanic: 15, models.Asian: 10,
		}},
	}
	counts := models.MentionCounts{models.White: 1, models.Black: 1, models.Hispanic: 0, models.Asian: 0}

	got := analysis.Compare(counts, dist)
	require.Len(t, got, 4)
	require.InDelta(t, 1.25, got[models.White], 1e-6)
	require.InDelta(t, 50.0/35.0, got[models.Black], 1e-6)
	require.InDelta(t, 0.1/15.0, got[models.Hispanic], 1e-6)
	require.InDelta(t, 0.1/10.0, got[models.Asian], 1e-6)
}

func TestCompareUsesLatestPeriod(t *testing.T) {
	dist := models.Distribution{
		{Period: 2019, Shares: map[models.Category]float64{models.White: 100}},
		{Period: 2021, Shares: map[models.Category]float64{models.White: 50, models.Black: 50}},
	}
	got := analysis.Compare(models.MentionCounts{models.White: 1}, dist)
	require.InDelta(t, 2.0, got[models.White], 1e-9)
	require.InDelta(t, 0.1/50, got[models.Black], 1e-9)
}

func TestCompareFloorsReference(t *testing.T) {
	dist := models.Distribution{
		{Period: 2022, Shares: map[models.Category]float64{models.White: 100, models.Asian: 0}},
	}
	got := analysis.Compare(models.MentionCounts{models.Asian: 2}, dist)
	require.InDelta(t, 100/analysis.Floor, got[models.Asian], 1e-9)
	require.InDelta(t, analysis.Floor/analysis.Floor, got[models.Hispanic], 1e-9)
}

func TestCompareEmpty(t *testing.T) {
	dist := models.Distribution{{Period: 2020, Shares: map[models.Category]float64{models.White: 100}}}

	require.Empty(t, analysis.Compare(models.NewMentionCounts(), dist))
	require.Empty(t, analysis.Compare(models.MentionCounts{models.White: 3}, nil))
}

func TestRows(t *testing.T) {
	rows := analysis.Rows(models.Disproportion{models.Asian: 0.5, models.White: 1.5})
	require.Equal(t, []analysis.Row{
		{Category: models.White, Ratio: 1.5, Bias: models.Overrepresented},
		{Category: models.Asian, Ratio: 0.5, Bias: models.Underrepresented},
	}, rows)

	require.Equal(t, models.Underrepresented, models.Bias(1.0))
}
