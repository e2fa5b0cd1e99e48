// Package testutil provides dataset fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// FullCSV is a small scored catalog with the headers of the full dataset export.
// Row 4 has no price, row 6 has no score, row 7 has no ratings count.
const FullCSV = `title,authors,main_genre,author_nationality,age_group,language_code,average_rating,ratings_count,num_pages,original_publication_year,sale price,score_final
The Hobbit,J.R.R. Tolkien,Fantasy,British,Adult,eng,4.25,2530894,366,1937,8.99,0.92
Dune,Frank Herbert,Science Fiction,American,Adult,eng,4.22,722000,604,1965,10.50,0.88
Matilda,Roald Dahl,Children,British,Children,eng,4.31,600000,240,1988,6.99,0.81
Harry Potter and the Philosopher's Stone,J.K. Rowling,Fantasy,British,Young Adult,eng,4.44,4602479,309,1997,9.99,0.95
L'Étranger,Albert Camus,Classics,French,Adult,fre,3.98,550000,123,1942,,0.66
Le Petit Prince,Antoine de Saint-Exupéry,Children,French,Children,fre,4.3,1200000,96,1943,7.50,0.79
"The Hunger Games",Suzanne Collins,Science Fiction,American,Young Adult,eng,4.34,4000000,374,2008,12.00,
Don Quixote,Miguel de Cervantes,Classics,Spanish,Adult,spa,3.87,NA,1072,1605,14.25,0.71
`

// FullCount is the number of rows in FullCSV.
const FullCount = 8

// SelectionCSV is a small final selection. Matilda has no price.
const SelectionCSV = `title,authors,main_genre,author_nationality,age_group,sale price,score_final
The Hobbit,J.R.R. Tolkien,Fantasy,British,Adult,8.99,0.92
Harry Potter and the Philosopher's Stone,J.K. Rowling,Fantasy,British,Young Adult,9.99,0.95
Dune,Frank Herbert,Science Fiction,American,Adult,10.50,0.88
Matilda,Roald Dahl,Children,British,Children,,0.81
`

// WriteFile writes content to name under dir and returns the full path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// WriteXLSX writes rows (header first) to the first sheet of a new workbook at dir/name.
func WriteXLSX(t testing.TB, dir, name string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}
	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save %s: %v", name, err)
	}
	return path
}
