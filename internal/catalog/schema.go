package catalog

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/bibliodash/internal/models"
)

// missingValues are the cell values read as missing, in addition to blank cells.
var missingValues = []string{"", "NA", "NaN", "nan", "N/A", "n/a", "null", "NULL", "None"}

// aliases lists the accepted source headers for each field, most preferred first.
// Headers are compared after normalizeHeader.
var aliases = map[models.Field][]string{
	models.FieldTitle:             {"title"},
	models.FieldAuthors:           {"authors", "author"},
	models.FieldGenre:             {"main_genre", "genre"},
	models.FieldAuthorNationality: {"author_nationality", "nationality"},
	models.FieldAgeGroup:          {"age_group"},
	models.FieldLanguageCode:      {"language_code", "language"},
	models.FieldAverageRating:     {"average_rating", "rating"},
	models.FieldRatingsCount:      {"ratings_count"},
	models.FieldNumPages:          {"num_pages"},
	models.FieldPublicationYear:   {"original_publication_year", "publication_year", "publication_date"},
	models.FieldPrice:             {"sale_price", "final_price", "price"},
	models.FieldScore:             {"score_final", "total_score", "score"},
}

// normalizeHeader lowercases h, trims it, and maps spaces and hyphens to underscores.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// resolveColumns maps each canonical field to the index of its source column.
// overrides name a source header per field and take precedence over aliases.
func resolveColumns(headers []string, overrides map[string]string) (map[models.Field]int, error) {
	byName := make(map[string]int, len(headers))
	for i, h := range headers {
		n := normalizeHeader(h)
		if _, dup := byName[n]; !dup {
			byName[n] = i
		}
	}

	cols := make(map[models.Field]int)
	for key, header := range overrides {
		field := models.Field(normalizeHeader(key))
		if _, known := aliases[field]; !known {
			return nil, fmt.Errorf("unknown column override %q", key)
		}
		i, ok := byName[normalizeHeader(header)]
		if !ok {
			return nil, fmt.Errorf("column %q for %s not found", header, field)
		}
		cols[field] = i
	}
	for field, names := range aliases {
		if _, set := cols[field]; set {
			continue
		}
		for _, name := range names {
			if i, ok := byName[name]; ok {
				cols[field] = i
				break
			}
		}
	}
	if _, ok := cols[models.FieldTitle]; !ok {
		return nil, fmt.Errorf("no title column in headers %v", headers)
	}
	return cols, nil
}

func isMissing(s string) bool {
	s = strings.TrimSpace(s)
	for _, m := range missingValues {
		if s == m {
			return true
		}
	}
	return false
}

var (
	thousandsRe = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+$`)
	yearRe      = regexp.MustCompile(`(^|\D)(\d{4})(\D|$)`)
	stripper    = strings.NewReplacer("€", "", "$", "", "£", "", "EUR", "", "\u00a0", "", " ", "")
)

// parseNumber reads a numeric cell. Currency symbols are ignored; a comma is a
// thousands separator when it groups digits by three, otherwise a decimal point.
func parseNumber(s string) (float64, bool) {
	if isMissing(s) {
		return 0, false
	}
	s = stripper.Replace(strings.TrimSpace(s))
	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ",", "")
	case thousandsRe.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Contains(s, ","):
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseInt(s string) (int, bool) {
	v, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	return int(math.Round(v)), true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2006",
	"2006-01",
	time.RFC3339,
}

// parseYear reads a year from a plain number ("1925", "1925.0", "-720") or a date.
func parseYear(s string) (int, bool) {
	if isMissing(s) {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return int(math.Trunc(v)), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), true
		}
	}
	if m := yearRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[2])
		return y, true
	}
	return 0, false
}

func floatPtr(s string) *float64 {
	if v, ok := parseNumber(s); ok {
		return &v
	}
	return nil
}

func intPtr(s string) *int {
	if v, ok := parseInt(s); ok {
		return &v
	}
	return nil
}

func yearPtr(s string) *int {
	if v, ok := parseYear(s); ok {
		return &v
	}
	return nil
}
