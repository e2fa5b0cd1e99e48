// Package cli provides output helpers for the bibliodash command line.
package cli

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/hyperjump/bibliodash/internal/chart"
	"github.com/hyperjump/bibliodash/internal/dashboard"
	"github.com/hyperjump/bibliodash/internal/models"
	"github.com/hyperjump/bibliodash/pkg/utils"
)

// OutputFormat is the format for summary output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the format named s. Unknown names fall back to text.
func ParseOutputFormat(s string) OutputFormat {
	if strings.EqualFold(strings.TrimSpace(s), string(OutputJSON)) {
		return OutputJSON
	}
	return OutputText
}

// barsShown is the number of rows printed per bar chart in text output.
const barsShown = 5

// WriteSummary writes a dataset tab to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSummary(w io.Writer, tab *dashboard.Tab, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tab)
	default:
		return writeSummaryText(w, tab)
	}
}

func writeSummaryText(w io.Writer, tab *dashboard.Tab) error {
	fmt.Fprintf(w, "\n%s (%s)\n", tab.Dataset.Title, tab.Dataset.Name)
	if desc := DescribeFilter(tab.Filter); desc != "" {
		fmt.Fprintf(w, "Filter: %s\n", desc)
	}
	if tab.Suggestion != "" {
		fmt.Fprintf(w, "Did you mean: %s\n", tab.Suggestion)
	}
	fmt.Fprintln(w)
	if tab.Empty {
		fmt.Fprintln(w, tab.Warning)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range tab.Cards {
		fmt.Fprintf(tw, "%s\t%s\n", c.Label, c.Value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, spec := range tab.Charts {
		if spec.Kind != chart.KindBar || len(spec.Bars) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", spec.Title)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, b := range spec.Bars[:min(barsShown, len(spec.Bars))] {
			fmt.Fprintf(tw, "%s\t%s\n", utils.Truncate(b.Label, 40), dashboard.FormatNumber(b.Value, true))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if tab.Ranking != nil {
		fmt.Fprintf(w, "\n--- Top %d by score ---\n", len(tab.Ranking.Rows))
		if err := writeTable(w, tab.Ranking, true); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	return nil
}

func writeTable(w io.Writer, t *dashboard.Table, numbered bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cols := []models.Field{models.FieldTitle, models.FieldAuthors, t.SortBy}
	if t.SortBy == models.FieldTitle || t.SortBy == models.FieldAuthors {
		cols = cols[:2]
	}
	for i, b := range t.Rows {
		if numbered {
			fmt.Fprintf(tw, "%d.\t", i+1)
		}
		for j, f := range cols {
			sep := "\t"
			if j == len(cols)-1 {
				sep = "\n"
			}
			fmt.Fprintf(tw, "%s%s", utils.Truncate(dashboard.Cell(b, f), 50), sep)
		}
	}
	return tw.Flush()
}

// WriteDatasets writes the list of loaded datasets.
func WriteDatasets(w io.Writer, datasets []*models.Dataset, format OutputFormat) error {
	if format == OutputJSON {
		type entry struct {
			Name   string        `json:"name"`
			Title  string        `json:"title"`
			Layout models.Layout `json:"layout"`
			Path   string        `json:"path"`
			Books  int           `json:"books"`
		}
		out := make([]entry, len(datasets))
		for i, ds := range datasets {
			out[i] = entry{Name: ds.Name, Title: ds.Title, Layout: ds.Layout, Path: ds.Path, Books: ds.Len()}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLAYOUT\tBOOKS\tPATH")
	for _, ds := range datasets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ds.Name, ds.Layout, dashboard.FormatCount(ds.Len()), ds.Path)
	}
	return tw.Flush()
}

// DescribeFilter returns a one-line human description of f, e.g.
// "genre=Fantasy|Classics min_price=5". It is empty for the zero filter.
func DescribeFilter(f models.Filter) string {
	v := f.Encode()
	if len(v) == 0 {
		return ""
	}
	parts := make([]string, 0, len(v))
	for _, key := range sortedKeys(v) {
		parts = append(parts, key+"="+strings.Join(v[key], "|"))
	}
	return strings.Join(parts, " ")
}

func sortedKeys(v url.Values) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
