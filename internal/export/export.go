// Package export writes the books of a filtered view as CSV or XLSX.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/hyperjump/bibliodash/internal/models"
	"github.com/xuri/excelize/v2"
)

// Format is a download format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat returns the format for a file extension with or without the dot.
func ParseFormat(ext string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "csv":
		return CSV, nil
	case "xlsx":
		return XLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", ext)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName returns the download name for ds in format f: the configured export
// name with its extension replaced by f.
func FileName(ds *models.Dataset, f Format) string {
	name := ds.ExportName
	if name == "" {
		name = ds.Name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + "." + string(f)
}

// Write writes books in format f. It returns models.ErrEmptyView when books is empty.
func Write(w io.Writer, f Format, ds *models.Dataset, books []*models.Book) error {
	if len(books) == 0 {
		return models.ErrEmptyView
	}
	switch f {
	case CSV:
		return WriteCSV(w, ds, books)
	case XLSX:
		return WriteXLSX(w, ds, books)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// WriteCSV writes the original header and the original cells of books, in order.
func WriteCSV(w io.Writer, ds *models.Dataset, books []*models.Book) error {
	records := make([][]string, 0, len(books)+1)
	records = append(records, ds.Headers)
	for _, b := range books {
		records = append(records, b.Cells)
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return fmt.Errorf("build CSV: %w", df.Err)
	}
	// LoadRecords renames blank and repeated headers.
	if err := df.SetNames(ds.Headers...); err != nil {
		return fmt.Errorf("build CSV: %w", err)
	}
	if err := df.WriteCSV(w, dataframe.WriteHeader(true)); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}
	return nil
}

// WriteXLSX writes the same content as WriteCSV to one sheet named after the dataset.
// Cells of numeric columns are written as numbers.
func WriteXLSX(w io.Writer, ds *models.Dataset, books []*models.Book) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(ds.Name)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("open sheet writer: %w", err)
	}

	numeric := make([]bool, len(ds.Headers))
	for field, header := range ds.Columns {
		if !field.IsNumeric() {
			continue
		}
		for i, h := range ds.Headers {
			if h == header {
				numeric[i] = true
			}
		}
	}

	header := make([]interface{}, len(ds.Headers))
	for i, h := range ds.Headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for r, b := range books {
		row := make([]interface{}, len(b.Cells))
		for i, c := range b.Cells {
			row[i] = c
			if i < len(numeric) && numeric[i] {
				if v, err := strconv.ParseFloat(c, 64); err == nil {
					row[i] = v
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write XLSX: %w", err)
	}
	return nil
}

// sheetName returns name made valid as an Excel sheet name.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	if name == "" {
		return "Books"
	}
	return name
}
