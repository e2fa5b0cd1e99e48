package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// table is a parsed source file: headers plus rows of raw cells, missing cells as "".
type table struct {
	headers []string
	rows    [][]string
}

// readTable parses content according to the file extension of path.
// .xlsx files are read from their first sheet; everything else is read as CSV.
func readTable(path string, content []byte) (*table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(content)
	case ".tsv":
		return readCSV(content, '\t')
	default:
		return readCSV(content, ',')
	}
}

func loadOptions(delimiter rune) []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(missingValues),
		dataframe.WithDelimiter(delimiter),
		dataframe.WithLazyQuotes(true),
	}
}

func readCSV(content []byte, delimiter rune) (*table, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = delimiter
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	df := dataframe.LoadRecords(records, loadOptions(delimiter)...)
	if df.Err != nil {
		return nil, fmt.Errorf("parse CSV: %w", df.Err)
	}
	return fromDataFrame(df, records[0]), nil
}

func readXLSX(content []byte) (*table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}
	// GetRows drops trailing empty cells; pad every row to the header width.
	width := len(rows[0])
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) > width {
			row = row[:width]
		}
		padded := make([]string, width)
		copy(padded, row)
		records = append(records, padded)
	}
	df := dataframe.LoadRecords(records, loadOptions(',')...)
	if df.Err != nil {
		return nil, fmt.Errorf("parse sheet %q: %w", sheets[0], df.Err)
	}
	return fromDataFrame(df, records[0]), nil
}

// fromDataFrame extracts string cells column by column; NaN cells become "".
// The dataframe renames blank and repeated headers, so the table keeps the
// file's own header row instead.
func fromDataFrame(df dataframe.DataFrame, header []string) *table {
	names := df.Names()
	nrow := df.Nrow()
	rows := make([][]string, nrow)
	for i := range rows {
		rows[i] = make([]string, len(names))
	}
	for j := range names {
		col := df.Col(names[j])
		cells := col.Records()
		nan := col.IsNaN()
		for i := 0; i < nrow; i++ {
			if nan[i] || isMissing(cells[i]) {
				continue
			}
			rows[i][j] = cells[i]
		}
	}
	headers := make([]string, len(names))
	copy(headers, header)
	return &table{headers: headers, rows: rows}
}
