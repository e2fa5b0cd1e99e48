package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"reflect"
	"testing"

	"github.com/hyperjump/bibliodash/internal/catalog"
	"github.com/hyperjump/bibliodash/internal/config"
	"github.com/hyperjump/bibliodash/internal/models"
	"github.com/hyperjump/bibliodash/internal/testutil"
	"github.com/xuri/excelize/v2"
)

func loadFull(t *testing.T) *models.Dataset {
	t.Helper()
	path := testutil.WriteFile(t, t.TempDir(), "BOOKS_DATASET_final.csv", testutil.FullCSV)
	ds, err := catalog.Load(context.Background(), config.DatasetConfig{
		Name: "full", Path: path, ExportName: "BOOKS_DATASET.csv",
	})
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestWriteCSV_roundTrip(t *testing.T) {
	ds := loadFull(t)
	books := models.Filter{Nationalities: []string{"French", "Spanish"}}.Apply(ds.Books)
	if len(books) != 3 {
		t.Fatalf("fixture view: got %d books", len(books))
	}

	var buf bytes.Buffer
	if err := Write(&buf, CSV, ds, books); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV should parse: %v", err)
	}
	if !reflect.DeepEqual(records[0], ds.Headers) {
		t.Errorf("header: got %v, want %v", records[0], ds.Headers)
	}
	if len(records)-1 != len(books) {
		t.Fatalf("rows: got %d, want %d", len(records)-1, len(books))
	}
	for i, b := range books {
		if !reflect.DeepEqual(records[i+1], b.Cells) {
			t.Errorf("row %d: got %v, want %v", i, records[i+1], b.Cells)
		}
	}
	if records[1][0] != "L'Étranger" || records[1][10] != "" {
		t.Errorf("first exported row should be L'Étranger with an empty price: %v", records[1])
	}
}

func TestWriteXLSX(t *testing.T) {
	ds := loadFull(t)
	var buf bytes.Buffer
	if err := Write(&buf, XLSX, ds, ds.Books); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := f.GetSheetName(0); got != "full" {
		t.Errorf("sheet name: got %q", got)
	}
	rows, err := f.GetRows("full")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != testutil.FullCount+1 {
		t.Fatalf("rows: got %d", len(rows))
	}
	if rows[0][10] != "sale price" || rows[1][0] != "The Hobbit" {
		t.Errorf("unexpected content: %v / %v", rows[0], rows[1])
	}
	typ, err := f.GetCellType("full", "K2")
	if err != nil {
		t.Fatal(err)
	}
	if typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
		t.Errorf("price cell should be numeric, got type %v", typ)
	}
}

func TestWrite_emptyView(t *testing.T) {
	ds := loadFull(t)
	var buf bytes.Buffer
	if err := Write(&buf, CSV, ds, nil); !errors.Is(err, models.ErrEmptyView) {
		t.Errorf("got %v, want ErrEmptyView", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written for an empty view")
	}
}

func TestFileName(t *testing.T) {
	ds := &models.Dataset{Name: "full", ExportName: "BOOKS_DATASET.csv"}
	if got := FileName(ds, CSV); got != "BOOKS_DATASET.csv" {
		t.Errorf("csv: got %s", got)
	}
	if got := FileName(ds, XLSX); got != "BOOKS_DATASET.xlsx" {
		t.Errorf("xlsx: got %s", got)
	}
	if got := FileName(&models.Dataset{Name: "selection"}, CSV); got != "selection.csv" {
		t.Errorf("fallback: got %s", got)
	}
}

func TestSheetName(t *testing.T) {
	if got := sheetName("a/b:c"); got != "a_b_c" {
		t.Errorf("got %q", got)
	}
	if got := sheetName("abcdefghijklmnopqrstuvwxyz0123456789"); len(got) != 31 {
		t.Errorf("length: got %d", len(got))
	}
	if sheetName("") != "Books" {
		t.Error("empty name")
	}
}

func TestWriteCSV_keepsBlankAndRepeatedHeaders(t *testing.T) {
	content := ",title,notes,notes\n0,The Hobbit,signed,\n1,Dune,,first edition\n"
	path := testutil.WriteFile(t, t.TempDir(), "indexed.csv", content)
	ds, err := catalog.Load(context.Background(), config.DatasetConfig{Name: "indexed", Path: path})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"", "title", "notes", "notes"}
	if !reflect.DeepEqual(ds.Headers, want) {
		t.Fatalf("loaded headers: got %q, want %q", ds.Headers, want)
	}

	var buf bytes.Buffer
	if err := Write(&buf, CSV, ds, ds.Books); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(records[0], want) {
		t.Errorf("exported header: got %q, want %q", records[0], want)
	}
	if !reflect.DeepEqual(records[2], []string{"1", "Dune", "", "first edition"}) {
		t.Errorf("exported row: got %q", records[2])
	}
}
