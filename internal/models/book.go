// Package models defines core data structures for books, datasets, filters, and dashboard summaries.
package models

import (
	"strings"
	"time"
)

// Field names a canonical book column.
type Field string

const (
	FieldTitle             Field = "title"
	FieldAuthors           Field = "authors"
	FieldGenre             Field = "genre"
	FieldAuthorNationality Field = "author_nationality"
	FieldAgeGroup          Field = "age_group"
	FieldLanguageCode      Field = "language_code"
	FieldAverageRating     Field = "average_rating"
	FieldRatingsCount      Field = "ratings_count"
	FieldNumPages          Field = "num_pages"
	FieldPublicationYear   Field = "publication_year"
	FieldPrice             Field = "price"
	FieldScore             Field = "score"
)

// Fields lists every canonical field in display order.
var Fields = []Field{
	FieldTitle, FieldAuthors, FieldGenre, FieldAuthorNationality, FieldAgeGroup, FieldLanguageCode,
	FieldAverageRating, FieldRatingsCount, FieldNumPages, FieldPublicationYear, FieldPrice, FieldScore,
}

// IsNumeric reports whether f holds a number.
func (f Field) IsNumeric() bool {
	switch f {
	case FieldAverageRating, FieldRatingsCount, FieldNumPages, FieldPublicationYear, FieldPrice, FieldScore:
		return true
	}
	return false
}

// Book is one row of a catalog. Numeric fields are nil when the cell is missing.
type Book struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Authors           string   `json:"authors,omitempty"`
	Genre             string   `json:"genre,omitempty"`
	AuthorNationality string   `json:"author_nationality,omitempty"`
	AgeGroup          string   `json:"age_group,omitempty"`
	LanguageCode      string   `json:"language_code,omitempty"`
	AverageRating     *float64 `json:"average_rating,omitempty"`
	RatingsCount      *int     `json:"ratings_count,omitempty"`
	NumPages          *int     `json:"num_pages,omitempty"`
	PublicationYear   *int     `json:"publication_year,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	Score             *float64 `json:"score,omitempty"`
	// Cells holds every source cell in header order; missing cells are "".
	Cells []string `json:"-"`
}

// Text returns the string value of a categorical field, or "" for numeric fields.
func (b *Book) Text(f Field) string {
	switch f {
	case FieldTitle:
		return b.Title
	case FieldAuthors:
		return b.Authors
	case FieldGenre:
		return b.Genre
	case FieldAuthorNationality:
		return b.AuthorNationality
	case FieldAgeGroup:
		return b.AgeGroup
	case FieldLanguageCode:
		return b.LanguageCode
	}
	return ""
}

// Number returns the value of a numeric field and whether it is present.
func (b *Book) Number(f Field) (float64, bool) {
	switch f {
	case FieldAverageRating:
		return floatValue(b.AverageRating)
	case FieldPrice:
		return floatValue(b.Price)
	case FieldScore:
		return floatValue(b.Score)
	case FieldRatingsCount:
		return intValue(b.RatingsCount)
	case FieldNumPages:
		return intValue(b.NumPages)
	case FieldPublicationYear:
		return intValue(b.PublicationYear)
	}
	return 0, false
}

func floatValue(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func intValue(p *int) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return float64(*p), true
}

// Layout selects which charts a dataset tab shows.
type Layout string

const (
	LayoutOverview  Layout = "overview"
	LayoutSelection Layout = "selection"
	LayoutExplorer  Layout = "explorer"
)

// ParseLayout returns the layout named s, defaulting to explorer for unknown names.
func ParseLayout(s string) Layout {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case LayoutOverview:
		return LayoutOverview
	case LayoutSelection:
		return LayoutSelection
	}
	return LayoutExplorer
}

// Dataset is a loaded catalog file. It is never mutated after load; reloads replace it.
type Dataset struct {
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Layout      Layout    `json:"layout"`
	Path        string    `json:"path"`
	ExportName  string    `json:"export_name"`
	Headers     []string  `json:"headers"`
	Books       []*Book   `json:"-"`
	LoadedAt    time.Time `json:"loaded_at"`
	Fingerprint string    `json:"fingerprint"`
	// Columns maps each resolved canonical field to its source header.
	Columns map[Field]string `json:"columns"`
}

// Len returns the number of books.
func (d *Dataset) Len() int {
	return len(d.Books)
}

// HasField reports whether the source file carried a column for f.
func (d *Dataset) HasField(f Field) bool {
	_, ok := d.Columns[f]
	return ok
}
