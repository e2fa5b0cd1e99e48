package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/bibliodash/internal/config"
	"github.com/hyperjump/bibliodash/internal/models"
	"github.com/hyperjump/bibliodash/internal/testutil"
)

func fullConfig(t *testing.T) config.DatasetConfig {
	t.Helper()
	path := testutil.WriteFile(t, t.TempDir(), "BOOKS_DATASET_final.csv", testutil.FullCSV)
	return config.DatasetConfig{Name: "full", Title: "Full", Path: path, Layout: "overview", ExportName: "BOOKS_DATASET.csv"}
}

func TestLoad_CSV(t *testing.T) {
	ds, err := Load(context.Background(), fullConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != testutil.FullCount {
		t.Fatalf("books: got %d, want %d", ds.Len(), testutil.FullCount)
	}
	if ds.Layout != models.LayoutOverview {
		t.Errorf("layout: got %s", ds.Layout)
	}
	if len(ds.Headers) != 12 || ds.Headers[10] != "sale price" {
		t.Errorf("headers: got %v", ds.Headers)
	}
	if ds.Columns[models.FieldPrice] != "sale price" {
		t.Errorf("price column: got %q", ds.Columns[models.FieldPrice])
	}
	if ds.Fingerprint == "" {
		t.Error("fingerprint should be set")
	}

	hobbit := ds.Books[0]
	if hobbit.ID != "0" || hobbit.Title != "The Hobbit" || hobbit.Genre != "Fantasy" {
		t.Errorf("first book: %+v", hobbit)
	}
	if hobbit.Price == nil || *hobbit.Price != 8.99 {
		t.Errorf("price: got %v", hobbit.Price)
	}
	if hobbit.PublicationYear == nil || *hobbit.PublicationYear != 1937 {
		t.Errorf("year: got %v", hobbit.PublicationYear)
	}
	if ds.Books[4].Price != nil {
		t.Error("blank price should be missing")
	}
	if ds.Books[6].Score != nil {
		t.Error("blank score should be missing")
	}
	if ds.Books[7].RatingsCount != nil {
		t.Error("NA ratings count should be missing")
	}
	if ds.Books[7].Cells[7] != "" {
		t.Errorf("missing cell should be empty, got %q", ds.Books[7].Cells[7])
	}
	if ds.Books[6].Title != "The Hunger Games" {
		t.Errorf("quoted title: got %q", ds.Books[6].Title)
	}
}

func TestLoad_XLSX(t *testing.T) {
	path := testutil.WriteXLSX(t, t.TempDir(), "books.xlsx", [][]string{
		{"Title", "Author", "Genre", "Price", "Publication Date"},
		{"Emma", "Jane Austen", "Classics", "5.5", "1815-12-23"},
		{"Ulysses", "James Joyce", "Classics"},
	})
	ds, err := Load(context.Background(), config.DatasetConfig{Name: "x", Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 2 {
		t.Fatalf("books: got %d, want 2", ds.Len())
	}
	emma := ds.Books[0]
	if emma.Authors != "Jane Austen" || emma.Price == nil || *emma.Price != 5.5 {
		t.Errorf("emma: %+v", emma)
	}
	if emma.PublicationYear == nil || *emma.PublicationYear != 1815 {
		t.Errorf("publication date should reduce to year, got %v", emma.PublicationYear)
	}
	if ds.Books[1].Price != nil || len(ds.Books[1].Cells) != 5 {
		t.Errorf("short row should be padded with missing cells: %+v", ds.Books[1])
	}
	if ds.Layout != models.LayoutExplorer {
		t.Errorf("unset layout should be explorer, got %s", ds.Layout)
	}
}

func TestLoad_errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"missing file", dir + "/nope.csv"},
		{"no title column", testutil.WriteFile(t, dir, "notitle.csv", "authors,price\nA,1\n")},
		{"empty file", testutil.WriteFile(t, dir, "empty.csv", "")},
		{"ragged rows", testutil.WriteFile(t, dir, "ragged.csv", "title,price\nA,1,extra\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(context.Background(), config.DatasetConfig{Name: "x", Path: tt.path}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCatalog_View(t *testing.T) {
	cat := New([]config.DatasetConfig{fullConfig(t)})
	defer cat.Close()
	ctx := context.Background()
	if err := cat.LoadAll(ctx); err != nil {
		t.Fatal(err)
	}

	v, err := cat.View(ctx, "full", models.Filter{Genres: []string{"Fantasy"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Books) != 2 || v.Empty() {
		t.Errorf("fantasy view: got %d books", len(v.Books))
	}

	v, err = cat.View(ctx, "full", models.Filter{Query: "tolkien"})
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Books) != 1 || v.Books[0].Title != "The Hobbit" {
		t.Errorf("query view: got %d books", len(v.Books))
	}

	v, err = cat.View(ctx, "full", models.Filter{Query: "tolkien", Genres: []string{"Classics"}})
	if err != nil {
		t.Fatal(err)
	}
	if !v.Empty() {
		t.Error("query AND genre should be empty")
	}

	v, err = cat.View(ctx, "full", models.Filter{Query: "qwxz"})
	if err != nil {
		t.Fatal(err)
	}
	if !v.Empty() {
		t.Error("unknown query should give an empty view")
	}

	if _, err := cat.View(ctx, "nope", models.Filter{}); !errors.Is(err, models.ErrDatasetNotFound) {
		t.Errorf("unknown dataset: got %v, want ErrDatasetNotFound", err)
	}
}

func TestCatalog_ReloadSkipsUnchanged(t *testing.T) {
	cfg := fullConfig(t)
	var mu sync.Mutex
	loads := 0
	cat := New([]config.DatasetConfig{cfg}, WithReloadHook(func(string, *models.Dataset, time.Duration, error) {
		mu.Lock()
		loads++
		mu.Unlock()
	}))
	defer cat.Close()
	ctx := context.Background()
	if err := cat.LoadAll(ctx); err != nil {
		t.Fatal(err)
	}

	changed, err := cat.Reload(ctx, "full")
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("reload of unchanged file should be skipped")
	}

	if err := os.WriteFile(cfg.Path, []byte("title\nEmma\n"), 0644); err != nil {
		t.Fatal(err)
	}
	changed, err = cat.Reload(ctx, "full")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("reload of changed file should swap the dataset")
	}
	ds, _ := cat.Dataset("full")
	if ds.Len() != 1 {
		t.Errorf("after reload: got %d books, want 1", ds.Len())
	}
	if loads != 2 {
		t.Errorf("reload hook: got %d calls, want 2", loads)
	}
}

func TestCatalog_ReloadFailureKeepsOldDataset(t *testing.T) {
	cfg := fullConfig(t)
	cat := New([]config.DatasetConfig{cfg})
	defer cat.Close()
	ctx := context.Background()
	if err := cat.LoadAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.Path, []byte("authors\nnobody\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := cat.Reload(ctx, "full"); err == nil {
		t.Fatal("expected reload error")
	}
	ds, err := cat.Dataset("full")
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != testutil.FullCount {
		t.Errorf("old dataset should stay live: got %d books", ds.Len())
	}
}

func TestCatalog_Lookup(t *testing.T) {
	full := fullConfig(t)
	sel := config.DatasetConfig{
		Name: "selection",
		Path: testutil.WriteFile(t, t.TempDir(), "selection_books.csv", testutil.SelectionCSV),
	}
	cat := New([]config.DatasetConfig{full, sel})
	defer cat.Close()
	if len(cat.Datasets()) != 0 {
		t.Error("nothing should be loaded before LoadAll")
	}
	if err := cat.LoadAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	ds := cat.Datasets()
	if len(ds) != 2 || ds[0].Name != "full" || ds[1].Name != "selection" {
		t.Errorf("datasets should keep config order")
	}
	if names := cat.NamesForPath(sel.Path); len(names) != 1 || names[0] != "selection" {
		t.Errorf("NamesForPath: got %v", names)
	}
	if len(cat.Paths()) != 2 {
		t.Errorf("Paths: got %v", cat.Paths())
	}
}

func TestCatalog_NamesForPathResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "books.csv", testutil.SelectionCSV)
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	cat := New([]config.DatasetConfig{{Name: "books", Path: "books.csv"}})
	defer cat.Close()
	for _, p := range []string{filepath.Join(cwd, "books.csv"), "books.csv", "./books.csv"} {
		if names := cat.NamesForPath(p); len(names) != 1 || names[0] != "books" {
			t.Errorf("NamesForPath(%q) = %v, want [books]", p, names)
		}
	}
	if names := cat.NamesForPath(filepath.Join(cwd, "other.csv")); len(names) != 0 {
		t.Errorf("NamesForPath(other.csv) = %v, want none", names)
	}
}
