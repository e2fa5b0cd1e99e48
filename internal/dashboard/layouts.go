package dashboard

import (
	"github.com/hyperjump/bibliodash/internal/chart"
	"github.com/hyperjump/bibliodash/internal/models"
	"github.com/hyperjump/bibliodash/internal/stats"
)

// Chart ids, used in chart URLs.
const (
	ChartScoreHistogram   = "score-distribution"
	ChartPriceHistogram   = "price-distribution"
	ChartRatingHistogram  = "rating-distribution"
	ChartTopGenres        = "top-genres"
	ChartTopNationalities = "top-nationalities"
	ChartAgeGroups        = "age-groups"
	ChartLanguages        = "languages"
	ChartScoreByYear      = "score-by-year"
	ChartGenreSelection   = "genre-selection"
	ChartNationalitySel   = "nationality-selection"
)

const (
	colorBlue   = "#1f77b4"
	colorOrange = "#FF7F0E"
	colorGreen  = "#00CC96"
	colorPurple = "#6A3D9A"
	colorTeal   = "#17BECF"
	colorRed    = "#D62728"
)

func (b *Builder) cards(layout models.Layout, m models.Metrics) []Card {
	cur := " (" + b.currency + ")"
	switch layout {
	case models.LayoutOverview:
		return []Card{
			{Label: "Total Books", Value: FormatCount(m.Count)},
			{Label: "Avg. Score", Value: FormatMean(m.AvgScore)},
			{Label: "Avg. Price" + cur, Value: FormatMean(m.AvgPrice)},
			{Label: "Total Budget" + cur, Value: FormatMoney(m.TotalPrice, 0)},
		}
	case models.LayoutSelection:
		return []Card{
			{Label: "Selected Books", Value: FormatCount(m.Count)},
			{Label: "Avg. Score", Value: FormatMean(m.AvgScore)},
			{Label: "Total Budget" + cur, Value: FormatMoney(m.TotalPrice, 2)},
		}
	}
	return []Card{
		{Label: "Total Books", Value: FormatCount(m.Count)},
		{Label: "Avg. Rating", Value: FormatMean(m.AvgRating)},
		{Label: "Avg. Price" + cur, Value: FormatMean(m.AvgPrice)},
		{Label: "Total Budget" + cur, Value: FormatMoney(m.TotalPrice, 2)},
	}
}

func (b *Builder) charts(layout models.Layout, books []*models.Book) []chart.Spec {
	switch layout {
	case models.LayoutOverview:
		return []chart.Spec{
			histogram(ChartScoreHistogram, "Book Score Distribution", "Score", colorBlue, books, models.FieldScore, 30),
			counts(ChartTopGenres, "Top 15 Genres", "Genre", colorPurple, books, models.FieldGenre, 15),
			counts(ChartTopNationalities, "Top 15 Author Nationalities", "Nationality", colorRed, books, models.FieldAuthorNationality, 15),
			counts(ChartAgeGroups, "Age Group Distribution", "Age Group", colorOrange, books, models.FieldAgeGroup, 0),
			histogram(ChartPriceHistogram, "Price Distribution ("+b.currency+")", "Price", colorOrange, books, models.FieldPrice, 30),
			{
				ID:     ChartScoreByYear,
				Kind:   chart.KindScatter,
				Title:  "Score vs Publication Year",
				XLabel: "Publication Year",
				YLabel: "Score",
				Points: stats.Scatter(books),
			},
		}
	case models.LayoutSelection:
		return []chart.Spec{
			groups(ChartGenreSelection, "Top Genres in Final Selection", "Genre", colorBlue, books, models.FieldGenre, 0),
			groups(ChartNationalitySel, "Top 10 Nationalities in Final Selection", "Nationality", colorPurple, books, models.FieldAuthorNationality, 10),
			histogram(ChartScoreHistogram, "Score Distribution of Final Selection", "Score", colorGreen, books, models.FieldScore, 25),
		}
	}
	return []chart.Spec{
		counts(ChartTopGenres, "Top 15 Genres", "Genre", colorPurple, books, models.FieldGenre, 15),
		histogram(ChartRatingHistogram, "Rating Distribution", "Average Rating", colorTeal, books, models.FieldAverageRating, 20),
		counts(ChartLanguages, "Language Distribution", "Language", colorGreen, books, models.FieldLanguageCode, 0),
	}
}

func histogram(id, title, xlabel, color string, books []*models.Book, field models.Field, nbins int) chart.Spec {
	return chart.Spec{
		ID:     id,
		Kind:   chart.KindHistogram,
		Title:  title,
		XLabel: xlabel,
		YLabel: "Count",
		Color:  color,
		Bins:   stats.Histogram(stats.Values(books, field), nbins),
	}
}

func counts(id, title, xlabel, color string, books []*models.Book, field models.Field, n int) chart.Spec {
	vc := stats.ValueCounts(books, field, n)
	bars := make([]chart.Bar, len(vc))
	for i, c := range vc {
		bars[i] = chart.Bar{Label: c.Label, Value: float64(c.Count)}
	}
	return chart.Spec{ID: id, Kind: chart.KindBar, Title: title, XLabel: xlabel, YLabel: "Count", Color: color, Bars: bars}
}

// groups plots the number of priced books per group; Extra carries the price total.
func groups(id, title, xlabel, color string, books []*models.Book, field models.Field, n int) chart.Spec {
	gs := stats.GroupBy(books, field)
	if n > 0 && len(gs) > n {
		gs = gs[:n]
	}
	bars := make([]chart.Bar, len(gs))
	for i, g := range gs {
		bars[i] = chart.Bar{Label: g.Label, Value: float64(g.Count), Extra: g.Sum}
	}
	return chart.Spec{ID: id, Kind: chart.KindBar, Title: title, XLabel: xlabel, YLabel: "Book Count", Color: color, Bars: bars}
}
