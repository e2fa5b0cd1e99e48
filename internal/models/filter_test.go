package models

import (
	"net/url"
	"reflect"
	"testing"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func sampleBooks() []*Book {
	return []*Book{
		{ID: "0", Title: "Dune", Genre: "Science Fiction", AuthorNationality: "American", AgeGroup: "Adult",
			AverageRating: fptr(4.2), Price: fptr(12.5), Score: fptr(0.91), PublicationYear: iptr(1965), NumPages: iptr(412), RatingsCount: iptr(900000)},
		{ID: "1", Title: "Matilda", Genre: "Children", AuthorNationality: "British", AgeGroup: "Children",
			AverageRating: fptr(4.3), Price: fptr(6.99), Score: fptr(0.75), PublicationYear: iptr(1988), NumPages: iptr(240), RatingsCount: iptr(700000)},
		{ID: "2", Title: "L'Étranger", Genre: "Classics", AuthorNationality: "French", AgeGroup: "Adult",
			AverageRating: fptr(3.98), Price: nil, Score: fptr(0.66), PublicationYear: iptr(1942), NumPages: iptr(123)},
		{ID: "3", Title: "Unknown", Genre: "", AuthorNationality: "French", AgeGroup: "Young Adult"},
	}
}

func ids(books []*Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.ID)
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero filter keeps all", Filter{}, []string{"0", "1", "2", "3"}},
		{"single genre", Filter{Genres: []string{"Children"}}, []string{"1"}},
		{"multi select is OR", Filter{Nationalities: []string{"British", "French"}}, []string{"1", "2", "3"}},
		{"fields combine with AND", Filter{Nationalities: []string{"French"}, AgeGroups: []string{"Adult"}}, []string{"2"}},
		{"min price drops missing price", Filter{MinPrice: fptr(0)}, []string{"0", "1"}},
		{"score range inclusive", Filter{MinScore: fptr(0.66), MaxScore: fptr(0.75)}, []string{"1", "2"}},
		{"year range", Filter{YearFrom: iptr(1940), YearTo: iptr(1970)}, []string{"0", "2"}},
		{"min ratings count", Filter{MinRatingsCount: iptr(800000)}, []string{"0"}},
		{"match ids", Filter{MatchIDs: map[string]struct{}{"3": {}, "0": {}}}, []string{"0", "3"}},
		{"nothing matches", Filter{Genres: []string{"Poetry"}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(tt.filter.Apply(sampleBooks()))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_MonotonicNarrowing(t *testing.T) {
	books := sampleBooks()
	steps := []Filter{
		{},
		{AgeGroups: []string{"Adult", "Children"}},
		{AgeGroups: []string{"Adult", "Children"}, MinRating: fptr(4.0)},
		{AgeGroups: []string{"Adult", "Children"}, MinRating: fptr(4.0), MaxPrice: fptr(10)},
	}
	prev := len(books) + 1
	for i, f := range steps {
		n := len(f.Apply(books))
		if n > prev {
			t.Fatalf("step %d: view grew from %d to %d rows", i, prev, n)
		}
		prev = n
	}
	if prev != 1 {
		t.Errorf("final view: got %d rows, want 1", prev)
	}
}

func TestParseFilter(t *testing.T) {
	v := url.Values{}
	v.Add("genre", "Fantasy")
	v.Add("genre", " Fiction, Historical ")
	v.Add("genre", "")
	v.Set("min_rating", "3.5")
	v.Set("year_to", "2000")
	v.Set("q", "  tolkien ")
	v.Set("max_price", "")

	f, err := ParseFilter(v)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(f.Genres, []string{"Fantasy", "Fiction, Historical"}) {
		t.Errorf("genres: got %v", f.Genres)
	}
	if f.MinRating == nil || *f.MinRating != 3.5 {
		t.Errorf("min_rating: got %v", f.MinRating)
	}
	if f.YearTo == nil || *f.YearTo != 2000 {
		t.Errorf("year_to: got %v", f.YearTo)
	}
	if f.MaxPrice != nil {
		t.Error("blank max_price should stay unset")
	}
	if f.Query != "tolkien" {
		t.Errorf("q: got %q", f.Query)
	}
}

func TestParseFilter_Errors(t *testing.T) {
	tests := []struct {
		name string
		v    url.Values
	}{
		{"non numeric float", url.Values{"min_score": {"high"}}},
		{"nan upper bound", url.Values{"max_score": {"NaN"}}},
		{"nan lower bound", url.Values{"min_score": {"nan"}}},
		{"infinite price", url.Values{"max_price": {"+Inf"}}},
		{"negative infinity", url.Values{"min_rating": {"-Infinity"}}},
		{"non integer year", url.Values{"year_from": {"19.5"}}},
		{"inverted rating range", url.Values{"min_rating": {"4"}, "max_rating": {"3"}}},
		{"inverted year range", url.Values{"year_from": {"2001"}, "year_to": {"1999"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseFilter(tt.v); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFilter_CommaInOptionValue(t *testing.T) {
	books := []*Book{
		{ID: "0", Title: "The Hobbit", Genre: "Fantasy"},
		{ID: "1", Title: "Wolf Hall", Genre: "Fiction, Historical"},
		{ID: "2", Title: "Fiction", Genre: "Fiction"},
	}
	f, err := ParseFilter(url.Values{"genre": {"Fiction, Historical"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(f.Apply(books)); !reflect.DeepEqual(got, []string{"1"}) {
		t.Errorf("Apply() = %v, want [1]", got)
	}
	again, err := ParseFilter(f.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(again.Genres, []string{"Fiction, Historical"}) {
		t.Errorf("round trip genres = %v", again.Genres)
	}
}

func TestFilter_EncodeRoundTrip(t *testing.T) {
	f := Filter{
		Genres:    []string{"Fantasy", "Fiction, Historical"},
		AgeGroups: []string{"Adult", "Teen"},
		MinPrice:  fptr(2.5),
		YearFrom:  iptr(1990),
		Query:     "ring",
	}
	got, err := ParseFilter(f.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, f) {
		t.Errorf("round trip: got %+v, want %+v", got, f)
	}
	if (Filter{}).IsZero() != true {
		t.Error("empty filter should be zero")
	}
	if f.IsZero() {
		t.Error("populated filter should not be zero")
	}
}
