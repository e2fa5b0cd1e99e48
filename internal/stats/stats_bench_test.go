package stats

import (
	"fmt"
	"testing"

	"github.com/hyperjump/bibliodash/internal/models"
)

var benchGenres = []string{"Fantasy", "Classics", "Science Fiction", "Children", "Mystery", "Romance", "Horror", "Poetry"}

func benchBooks(n int) []*models.Book {
	books := make([]*models.Book, n)
	for i := range books {
		price := float64(i%40) + 0.99
		score := float64(i%1000) / 1000
		year := 1900 + i%120
		books[i] = &models.Book{
			ID:              fmt.Sprint(i),
			Title:           fmt.Sprintf("Book %d", i),
			Genre:           benchGenres[i%len(benchGenres)],
			Price:           &price,
			Score:           &score,
			PublicationYear: &year,
		}
	}
	return books
}

func BenchmarkComputeMetrics(b *testing.B) {
	books := benchBooks(50000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ComputeMetrics(books)
	}
}

func BenchmarkValueCounts(b *testing.B) {
	books := benchBooks(50000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ValueCounts(books, models.FieldGenre, 15)
	}
}

func BenchmarkHistogram(b *testing.B) {
	values := Values(benchBooks(50000), models.FieldScore)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Histogram(values, 30)
	}
}

func BenchmarkSortBooks(b *testing.B) {
	books := benchBooks(5000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = SortBooks(books, models.FieldPrice, true)
	}
}

func BenchmarkFilterApply(b *testing.B) {
	books := benchBooks(50000)
	lo, hi := 5.0, 20.0
	f := models.Filter{Genres: []string{"Fantasy", "Classics"}, MinPrice: &lo, MaxPrice: &hi}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.Apply(books)
	}
}
