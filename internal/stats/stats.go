// Package stats computes the aggregates shown on the dashboard: headline metrics,
// value counts, group-bys, histograms, rankings, and pagination.
package stats

import (
	"sort"
	"strings"

	"github.com/hyperjump/bibliodash/internal/models"
	"github.com/hyperjump/bibliodash/pkg/utils"
)

// Values returns the non-missing values of a numeric field, in book order.
func Values(books []*models.Book, field models.Field) []float64 {
	out := make([]float64, 0, len(books))
	for _, b := range books {
		if v, ok := b.Number(field); ok {
			out = append(out, v)
		}
	}
	return out
}

// ComputeMetrics returns count, means, and the price total of books. Means are nil
// when the column has no value.
func ComputeMetrics(books []*models.Book) models.Metrics {
	scores := Values(books, models.FieldScore)
	prices := Values(books, models.FieldPrice)
	ratings := Values(books, models.FieldAverageRating)
	return models.Metrics{
		Count:       len(books),
		AvgScore:    mean(scores),
		AvgPrice:    mean(prices),
		AvgRating:   mean(ratings),
		TotalPrice:  utils.Sum(prices),
		PricedBooks: len(prices),
		ScoredBooks: len(scores),
		RatedBooks:  len(ratings),
	}
}

func mean(xs []float64) *float64 {
	m, ok := utils.Mean(xs)
	if !ok {
		return nil
	}
	return &m
}

// ValueCounts counts the non-missing values of a categorical field, ordered by
// count descending then label ascending. n <= 0 returns every value.
func ValueCounts(books []*models.Book, field models.Field, n int) []models.CategoryCount {
	counts := make(map[string]int)
	for _, b := range books {
		if v := b.Text(field); v != "" {
			counts[v]++
		}
	}
	out := make([]models.CategoryCount, 0, len(counts))
	for label, c := range counts {
		out = append(out, models.CategoryCount{Label: label, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// GroupBy groups books by a categorical field and reports, per group, the number
// of books with a price and the sum of those prices. Groups are ordered by count
// descending then label ascending; books with a missing key are dropped.
func GroupBy(books []*models.Book, field models.Field) []models.GroupStat {
	idx := make(map[string]int)
	var out []models.GroupStat
	prices := make([][]float64, 0)
	for _, b := range books {
		key := b.Text(field)
		if key == "" {
			continue
		}
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, models.GroupStat{Label: key})
			prices = append(prices, nil)
		}
		if p, ok := b.Number(models.FieldPrice); ok {
			out[i].Count++
			prices[i] = append(prices[i], p)
		}
	}
	for i := range out {
		out[i].Sum = utils.Sum(prices[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Histogram splits values into nbins equal-width bins over [min, max]. Every bin is
// half-open except the last, which is closed. A constant column yields one bin.
func Histogram(values []float64, nbins int) []models.HistogramBin {
	lo, hi, ok := utils.MinMax(values)
	if !ok || nbins <= 0 {
		return nil
	}
	if lo == hi {
		return []models.HistogramBin{{Lo: lo, Hi: hi, Count: len(values)}}
	}
	width := (hi - lo) / float64(nbins)
	bins := make([]models.HistogramBin, nbins)
	for i := range bins {
		bins[i].Lo = lo + float64(i)*width
		bins[i].Hi = lo + float64(i+1)*width
	}
	bins[nbins-1].Hi = hi
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= nbins {
			i = nbins - 1
		}
		bins[i].Count++
	}
	return bins
}

// SortBooks returns a copy of books stably sorted by field. Missing values sort
// last in both directions; text compares case-insensitively.
func SortBooks(books []*models.Book, field models.Field, desc bool) []*models.Book {
	out := append([]*models.Book(nil), books...)
	if field.IsNumeric() {
		sort.SliceStable(out, func(i, j int) bool {
			a, aok := out[i].Number(field)
			b, bok := out[j].Number(field)
			if aok != bok {
				return aok
			}
			if !aok || a == b {
				return false
			}
			if desc {
				return a > b
			}
			return a < b
		})
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		a := strings.ToLower(out[i].Text(field))
		b := strings.ToLower(out[j].Text(field))
		if (a == "") != (b == "") {
			return b == ""
		}
		if a == b {
			return false
		}
		if desc {
			return a > b
		}
		return a < b
	})
	return out
}

// TopN returns the first n books sorted by field; n <= 0 returns all of them.
func TopN(books []*models.Book, field models.Field, desc bool, n int) []*models.Book {
	out := SortBooks(books, field, desc)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Scatter returns one point per book that has both a publication year and a score.
func Scatter(books []*models.Book) []models.ScatterPoint {
	var out []models.ScatterPoint
	for _, b := range books {
		x, xok := b.Number(models.FieldPublicationYear)
		y, yok := b.Number(models.FieldScore)
		if xok && yok {
			out = append(out, models.ScatterPoint{X: x, Y: y, Group: b.AgeGroup})
		}
	}
	return out
}

// Paginate returns page number (1-based) of total rows split into pages of size.
// Pages below 1 clamp to 1 and pages past the end clamp to the last page.
func Paginate(total, page, size int) models.Page {
	if size <= 0 {
		size = 1
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := min(start+size, total)
	return models.Page{Number: page, Size: size, TotalRows: total, TotalPages: pages, Start: start, End: end}
}
