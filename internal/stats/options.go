package stats

import (
	"sort"

	"github.com/hyperjump/bibliodash/internal/models"
	"github.com/hyperjump/bibliodash/pkg/utils"
)

// Distinct returns the sorted distinct non-missing values of a categorical field.
func Distinct(books []*models.Book, field models.Field) []string {
	seen := make(map[string]struct{})
	for _, b := range books {
		if v := b.Text(field); v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// NumericRange returns the observed range of a numeric field.
func NumericRange(books []*models.Book, field models.Field) models.Range {
	lo, hi, ok := utils.MinMax(Values(books, field))
	return models.Range{Min: lo, Max: hi, Valid: ok}
}

// Options returns the filter widget choices for a dataset: distinct categorical
// values and the range of every numeric field.
func Options(books []*models.Book) models.Options {
	opts := models.Options{
		Genres:        Distinct(books, models.FieldGenre),
		Nationalities: Distinct(books, models.FieldAuthorNationality),
		AgeGroups:     Distinct(books, models.FieldAgeGroup),
		Languages:     Distinct(books, models.FieldLanguageCode),
		Ranges:        make(map[models.Field]models.Range),
	}
	for _, f := range models.Fields {
		if f.IsNumeric() {
			opts.Ranges[f] = NumericRange(books, f)
		}
	}
	return opts
}
