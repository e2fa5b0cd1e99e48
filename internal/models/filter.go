package models

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Filter is the set of sidebar selections applied to a dataset.
// Set fields combine with AND; multi-select fields match any of their values.
// A range bound never matches a book whose value is missing.
type Filter struct {
	Genres          []string `json:"genres,omitempty" validate:"omitempty,dive,max=200"`
	Nationalities   []string `json:"nationalities,omitempty" validate:"omitempty,dive,max=200"`
	AgeGroups       []string `json:"age_groups,omitempty" validate:"omitempty,dive,max=200"`
	Languages       []string `json:"languages,omitempty" validate:"omitempty,dive,max=50"`
	MinRating       *float64 `json:"min_rating,omitempty" validate:"omitempty,gte=0"`
	MaxRating       *float64 `json:"max_rating,omitempty" validate:"omitempty,gte=0"`
	MinPrice        *float64 `json:"min_price,omitempty" validate:"omitempty,gte=0"`
	MaxPrice        *float64 `json:"max_price,omitempty" validate:"omitempty,gte=0"`
	MinScore        *float64 `json:"min_score,omitempty"`
	MaxScore        *float64 `json:"max_score,omitempty"`
	YearFrom        *int     `json:"year_from,omitempty"`
	YearTo          *int     `json:"year_to,omitempty"`
	MinPages        *int     `json:"min_pages,omitempty" validate:"omitempty,gte=0"`
	MaxPages        *int     `json:"max_pages,omitempty" validate:"omitempty,gte=0"`
	MinRatingsCount *int     `json:"min_ratings_count,omitempty" validate:"omitempty,gte=0"`
	Query           string   `json:"q,omitempty" validate:"max=200"`

	// MatchIDs restricts the view to these book IDs when non-nil.
	// It is filled from Query by the keyword index.
	MatchIDs map[string]struct{} `json:"-"`
}

// Query parameter names used by the dashboard form and the API.
const (
	ParamGenre           = "genre"
	ParamNationality     = "nationality"
	ParamAgeGroup        = "age_group"
	ParamLanguage        = "language"
	ParamMinRating       = "min_rating"
	ParamMaxRating       = "max_rating"
	ParamMinPrice        = "min_price"
	ParamMaxPrice        = "max_price"
	ParamMinScore        = "min_score"
	ParamMaxScore        = "max_score"
	ParamYearFrom        = "year_from"
	ParamYearTo          = "year_to"
	ParamMinPages        = "min_pages"
	ParamMaxPages        = "max_pages"
	ParamMinRatingsCount = "min_ratings_count"
	ParamQuery           = "q"
)

// ParseFilter reads a Filter from query values. Blank values are ignored.
func ParseFilter(v url.Values) (Filter, error) {
	var f Filter
	f.Genres = multi(v, ParamGenre)
	f.Nationalities = multi(v, ParamNationality)
	f.AgeGroups = multi(v, ParamAgeGroup)
	f.Languages = multi(v, ParamLanguage)
	f.Query = strings.TrimSpace(v.Get(ParamQuery))

	floats := []struct {
		name string
		dst  **float64
	}{
		{ParamMinRating, &f.MinRating}, {ParamMaxRating, &f.MaxRating},
		{ParamMinPrice, &f.MinPrice}, {ParamMaxPrice, &f.MaxPrice},
		{ParamMinScore, &f.MinScore}, {ParamMaxScore, &f.MaxScore},
	}
	for _, p := range floats {
		s := strings.TrimSpace(v.Get(p.name))
		if s == "" {
			continue
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return Filter{}, fmt.Errorf("invalid %s: %q is not a number", p.name, s)
		}
		*p.dst = &n
	}

	ints := []struct {
		name string
		dst  **int
	}{
		{ParamYearFrom, &f.YearFrom}, {ParamYearTo, &f.YearTo},
		{ParamMinPages, &f.MinPages}, {ParamMaxPages, &f.MaxPages},
		{ParamMinRatingsCount, &f.MinRatingsCount},
	}
	for _, p := range ints {
		s := strings.TrimSpace(v.Get(p.name))
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid %s: %q is not an integer", p.name, s)
		}
		*p.dst = &n
	}
	return f, f.checkRanges()
}

// multi returns every non-blank value of key. Each value is one literal option,
// commas included.
func multi(v url.Values, key string) []string {
	var out []string
	for _, raw := range v[key] {
		if s := strings.TrimSpace(raw); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (f Filter) checkRanges() error {
	if f.MinRating != nil && f.MaxRating != nil && *f.MinRating > *f.MaxRating {
		return fmt.Errorf("min_rating %.2f is greater than max_rating %.2f", *f.MinRating, *f.MaxRating)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return fmt.Errorf("min_price %.2f is greater than max_price %.2f", *f.MinPrice, *f.MaxPrice)
	}
	if f.MinScore != nil && f.MaxScore != nil && *f.MinScore > *f.MaxScore {
		return fmt.Errorf("min_score %.2f is greater than max_score %.2f", *f.MinScore, *f.MaxScore)
	}
	if f.YearFrom != nil && f.YearTo != nil && *f.YearFrom > *f.YearTo {
		return fmt.Errorf("year_from %d is after year_to %d", *f.YearFrom, *f.YearTo)
	}
	if f.MinPages != nil && f.MaxPages != nil && *f.MinPages > *f.MaxPages {
		return fmt.Errorf("min_pages %d is greater than max_pages %d", *f.MinPages, *f.MaxPages)
	}
	return nil
}

// Encode returns the filter as query values; ParseFilter(f.Encode()) yields an equal filter.
func (f Filter) Encode() url.Values {
	v := url.Values{}
	for _, s := range f.Genres {
		v.Add(ParamGenre, s)
	}
	for _, s := range f.Nationalities {
		v.Add(ParamNationality, s)
	}
	for _, s := range f.AgeGroups {
		v.Add(ParamAgeGroup, s)
	}
	for _, s := range f.Languages {
		v.Add(ParamLanguage, s)
	}
	setFloat(v, ParamMinRating, f.MinRating)
	setFloat(v, ParamMaxRating, f.MaxRating)
	setFloat(v, ParamMinPrice, f.MinPrice)
	setFloat(v, ParamMaxPrice, f.MaxPrice)
	setFloat(v, ParamMinScore, f.MinScore)
	setFloat(v, ParamMaxScore, f.MaxScore)
	setInt(v, ParamYearFrom, f.YearFrom)
	setInt(v, ParamYearTo, f.YearTo)
	setInt(v, ParamMinPages, f.MinPages)
	setInt(v, ParamMaxPages, f.MaxPages)
	setInt(v, ParamMinRatingsCount, f.MinRatingsCount)
	if f.Query != "" {
		v.Set(ParamQuery, f.Query)
	}
	return v
}

func setFloat(v url.Values, key string, p *float64) {
	if p != nil {
		v.Set(key, strconv.FormatFloat(*p, 'f', -1, 64))
	}
}

func setInt(v url.Values, key string, p *int) {
	if p != nil {
		v.Set(key, strconv.Itoa(*p))
	}
}

// IsZero reports whether no constraint is set.
func (f Filter) IsZero() bool {
	return len(f.Encode()) == 0 && f.MatchIDs == nil
}

// Match reports whether b satisfies every set constraint.
func (f Filter) Match(b *Book) bool {
	if !in(f.Genres, b.Genre) || !in(f.Nationalities, b.AuthorNationality) ||
		!in(f.AgeGroups, b.AgeGroup) || !in(f.Languages, b.LanguageCode) {
		return false
	}
	if f.MatchIDs != nil {
		if _, ok := f.MatchIDs[b.ID]; !ok {
			return false
		}
	}
	return within(b, FieldAverageRating, f.MinRating, f.MaxRating) &&
		within(b, FieldPrice, f.MinPrice, f.MaxPrice) &&
		within(b, FieldScore, f.MinScore, f.MaxScore) &&
		withinInt(b, FieldPublicationYear, f.YearFrom, f.YearTo) &&
		withinInt(b, FieldNumPages, f.MinPages, f.MaxPages) &&
		withinInt(b, FieldRatingsCount, f.MinRatingsCount, nil)
}

// Apply returns the books matching f, preserving order.
func (f Filter) Apply(books []*Book) []*Book {
	out := make([]*Book, 0, len(books))
	for _, b := range books {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}

func in(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func within(b *Book, field Field, lo, hi *float64) bool {
	if lo == nil && hi == nil {
		return true
	}
	v, ok := b.Number(field)
	if !ok {
		return false
	}
	if lo != nil && v < *lo {
		return false
	}
	return hi == nil || v <= *hi
}

func withinInt(b *Book, field Field, lo, hi *int) bool {
	var flo, fhi *float64
	if lo != nil {
		x := float64(*lo)
		flo = &x
	}
	if hi != nil {
		x := float64(*hi)
		fhi = &x
	}
	return within(b, field, flo, fhi)
}
