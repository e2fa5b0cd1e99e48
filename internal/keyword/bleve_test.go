package keyword

import (
	"context"
	"testing"

	"github.com/hyperjump/bibliodash/internal/models"
)

func testBooks() []*models.Book {
	return []*models.Book{
		{ID: "0", Title: "The Hobbit", Authors: "J.R.R. Tolkien", Genre: "Fantasy"},
		{ID: "1", Title: "The Fellowship of the Ring", Authors: "J.R.R. Tolkien", Genre: "Fantasy"},
		{ID: "2", Title: "Dune", Authors: "Frank Herbert", Genre: "Science Fiction"},
		{ID: "3", Title: "Ring of Fire", Authors: "Eric Flint", Genre: "Alternate History"},
	}
}

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex()
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	if err := idx.IndexBooks(context.Background(), testBooks()); err != nil {
		t.Fatalf("IndexBooks: %v", err)
	}
	return idx
}

func TestBleveIndex_SearchFindsAuthor(t *testing.T) {
	idx := newTestIndex(t)

	// Standard analyzer (no stemming) so "tolkien" matches "Tolkien".
	results, err := idx.Search(context.Background(), "tolkien", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results for \"tolkien\", want 2", len(results))
	}
}

func TestBleveIndex_SearchTitleBoost(t *testing.T) {
	idx := newTestIndex(t)

	results, err := idx.Search(context.Background(), "ring", 10, &SearchOptions{TitleBoost: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results for \"ring\", want 2", len(results))
	}
	for _, r := range results {
		if r.ID != "1" && r.ID != "3" {
			t.Errorf("unexpected result %q", r.ID)
		}
	}
}

func TestBleveIndex_SearchRequiresAllTerms(t *testing.T) {
	idx := newTestIndex(t)

	results, err := idx.Search(context.Background(), "ring tolkien", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "1" {
		t.Fatalf("got %+v, want only book 1", results)
	}
}

func TestBleveIndex_MatchIDsFuzzyFallback(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	ids, err := idx.MatchIDs(ctx, "hobit")
	if err != nil {
		t.Fatalf("MatchIDs: %v", err)
	}
	if _, ok := ids["0"]; !ok || len(ids) != 1 {
		t.Errorf("MatchIDs(hobit) = %v, want {0}", ids)
	}

	ids, err = idx.MatchIDs(ctx, "zzzzzz")
	if err != nil {
		t.Fatalf("MatchIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("MatchIDs(zzzzzz) = %v, want empty", ids)
	}
	if ids == nil {
		t.Error("MatchIDs should return a non-nil set so the filter excludes every book")
	}
}

func TestBleveIndex_Suggest(t *testing.T) {
	idx := newTestIndex(t)

	if got := idx.Suggest("hobit"); got != "hobbit" {
		t.Errorf("Suggest(hobit) = %q, want %q", got, "hobbit")
	}
	if got := idx.Suggest("dune"); got != "" {
		t.Errorf("Suggest(dune) = %q, want empty for a known term", got)
	}
	if got := idx.Suggest("tolkein hobit"); got != "tolkien hobbit" {
		t.Errorf("Suggest(tolkein hobit) = %q, want %q", got, "tolkien hobbit")
	}
	if got := idx.Suggest(""); got != "" {
		t.Errorf("Suggest(\"\") = %q, want empty", got)
	}
}

func TestBleveIndex_DocCount(t *testing.T) {
	idx := newTestIndex(t)
	n, err := idx.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if n != 4 {
		t.Errorf("DocCount = %d, want 4", n)
	}
}

func TestBleveIndex_TermDictionary(t *testing.T) {
	idx := newTestIndex(t)

	terms, err := idx.GetAllTerms()
	if err != nil {
		t.Fatalf("GetAllTerms: %v", err)
	}
	want := map[string]bool{"hobbit": true, "tolkien": true, "ring": true, "herbert": true}
	for _, term := range terms {
		delete(want, term)
		if term == "fantasy" {
			t.Error("genre terms should not be in the spelling dictionary")
		}
	}
	if len(want) != 0 {
		t.Errorf("missing terms %v in %v", want, terms)
	}
	// "ring" is in two titles; "tolkien" is the author of two books.
	for term, n := range map[string]int{"ring": 2, "tolkien": 2, "dune": 1, "missing": 0} {
		got, err := idx.GetTermFrequency(term)
		if err != nil {
			t.Fatal(err)
		}
		if got != n {
			t.Errorf("GetTermFrequency(%q) = %d, want %d", term, got, n)
		}
	}
}
