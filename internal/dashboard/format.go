package dashboard

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/hyperjump/bibliodash/internal/models"
)

const notAvailable = "n/a"

// FormatCount formats n with thousands separators ("5,000").
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatMean formats an optional mean with two decimals.
func FormatMean(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.2f", *v)
}

// FormatMoney formats v with thousands separators and the given number of decimals (0 or 2).
func FormatMoney(v float64, decimals int) string {
	if decimals <= 0 {
		return humanize.FormatFloat("#,###.", v)
	}
	return humanize.FormatFloat("#,###.##", v)
}

// FormatNumber formats an optional cell value for the table: integers without
// decimals, other values with two.
func FormatNumber(v float64, ok bool) string {
	if !ok {
		return ""
	}
	if v == float64(int64(v)) {
		return humanize.Comma(int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// Cell returns the display text of field for b.
func Cell(b *models.Book, f models.Field) string {
	if !f.IsNumeric() {
		return b.Text(f)
	}
	v, ok := b.Number(f)
	if f == models.FieldPublicationYear && ok {
		return strconv.Itoa(int(v))
	}
	return FormatNumber(v, ok)
}
