// Package dashboard assembles a dataset tab (metric cards, charts, tables) from a filtered view.
package dashboard

import (
	"errors"
	"fmt"

	"github.com/hyperjump/bibliodash/internal/catalog"
	"github.com/hyperjump/bibliodash/internal/chart"
	"github.com/hyperjump/bibliodash/internal/config"
	"github.com/hyperjump/bibliodash/internal/models"
	"github.com/hyperjump/bibliodash/internal/stats"
)

// ErrChartNotFound is returned for a chart id the dataset layout does not define.
var ErrChartNotFound = errors.New("chart not found")

// Card is one headline metric.
type Card struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Table is one page of the sortable book table.
type Table struct {
	Columns []models.Field `json:"columns"`
	Rows    []*models.Book `json:"rows"`
	Page    models.Page    `json:"page"`
	SortBy  models.Field   `json:"sort_by"`
	Desc    bool           `json:"desc"`
}

// Tab is everything rendered for one dataset and filter.
type Tab struct {
	Dataset    *models.Dataset `json:"dataset"`
	Filter     models.Filter   `json:"filter"`
	Empty      bool            `json:"empty"`
	Warning    string          `json:"warning,omitempty"`
	Suggestion string          `json:"suggestion,omitempty"`
	Metrics    models.Metrics  `json:"metrics"`
	Cards      []Card          `json:"cards,omitempty"`
	Charts     []chart.Spec    `json:"charts,omitempty"`
	// Ranking is the top-N table of the overview layout.
	Ranking *Table `json:"ranking,omitempty"`
	Table   *Table `json:"table,omitempty"`
}

// TableRequest selects the page and order of the book table.
type TableRequest struct {
	Page     int
	PageSize int
	SortBy   models.Field
	Desc     bool
}

// Builder builds tabs with shared presentation settings.
type Builder struct {
	pageSize    int
	maxPageSize int
	currency    string
}

// NewBuilder returns a Builder using the dashboard config.
func NewBuilder(cfg config.DashboardConfig) *Builder {
	b := &Builder{pageSize: cfg.PageSize, maxPageSize: cfg.MaxPageSize, currency: cfg.Currency}
	if b.pageSize <= 0 {
		b.pageSize = 25
	}
	if b.maxPageSize < b.pageSize {
		b.maxPageSize = b.pageSize
	}
	return b
}

// PageSize clamps a requested page size to [1, max]; 0 means the default.
func (b *Builder) PageSize(requested int) int {
	if requested <= 0 {
		return b.pageSize
	}
	return min(requested, b.maxPageSize)
}

// Build assembles the tab for v. An empty view yields a tab with only the warning.
func (b *Builder) Build(v *catalog.View, req TableRequest) *Tab {
	tab := &Tab{
		Dataset:    v.Dataset,
		Filter:     v.Filter,
		Suggestion: v.Suggestion,
		Metrics:    stats.ComputeMetrics(v.Books),
	}
	if v.Empty() {
		tab.Empty = true
		tab.Warning = models.EmptyViewWarning
		return tab
	}

	tab.Cards = b.cards(v.Dataset.Layout, tab.Metrics)
	for _, spec := range b.charts(v.Dataset.Layout, v.Books) {
		if !spec.Empty() {
			tab.Charts = append(tab.Charts, spec)
		}
	}
	if v.Dataset.Layout == models.LayoutOverview && v.Dataset.HasField(models.FieldScore) {
		top := stats.TopN(v.Books, models.FieldScore, true, 20)
		tab.Ranking = &Table{
			Columns: presentFields(v.Dataset, rankingColumns),
			Rows:    top,
			Page:    stats.Paginate(len(top), 1, max(len(top), 1)),
			SortBy:  models.FieldScore,
			Desc:    true,
		}
	}
	tab.Table = b.Table(v, req)
	return tab
}

// Table returns one sorted page of the view.
func (b *Builder) Table(v *catalog.View, req TableRequest) *Table {
	sortBy, desc := req.SortBy, req.Desc
	if sortBy == "" {
		sortBy, desc = defaultSort(v.Dataset)
	}
	sorted := stats.SortBooks(v.Books, sortBy, desc)
	page := stats.Paginate(len(sorted), req.Page, b.PageSize(req.PageSize))
	return &Table{
		Columns: b.columns(v.Dataset),
		Rows:    sorted[page.Start:page.End],
		Page:    page,
		SortBy:  sortBy,
		Desc:    desc,
	}
}

// Chart returns the chart spec id of v's layout.
func (b *Builder) Chart(v *catalog.View, id string) (chart.Spec, error) {
	if v.Empty() {
		return chart.Spec{}, models.ErrEmptyView
	}
	for _, spec := range b.charts(v.Dataset.Layout, v.Books) {
		if spec.ID == id {
			return spec, nil
		}
	}
	return chart.Spec{}, fmt.Errorf("%s: %w", id, ErrChartNotFound)
}

// Options returns the filter widget choices of a dataset.
func Options(ds *models.Dataset) models.Options {
	return stats.Options(ds.Books)
}

func defaultSort(ds *models.Dataset) (models.Field, bool) {
	switch {
	case ds.HasField(models.FieldScore):
		return models.FieldScore, true
	case ds.HasField(models.FieldAverageRating):
		return models.FieldAverageRating, true
	}
	return models.FieldTitle, false
}

var tableColumns = []models.Field{
	models.FieldTitle, models.FieldAuthors, models.FieldGenre, models.FieldAuthorNationality,
	models.FieldAverageRating, models.FieldRatingsCount, models.FieldPublicationYear,
	models.FieldPrice, models.FieldScore,
}

// rankingColumns are the columns of the overview top-N table.
var rankingColumns = []models.Field{
	models.FieldTitle, models.FieldAuthors, models.FieldGenre, models.FieldAverageRating,
	models.FieldRatingsCount, models.FieldPrice, models.FieldScore,
}

func (b *Builder) columns(ds *models.Dataset) []models.Field {
	return presentFields(ds, tableColumns)
}

// presentFields returns the fields of want that ds has, in order.
func presentFields(ds *models.Dataset, want []models.Field) []models.Field {
	out := make([]models.Field, 0, len(want))
	for _, f := range want {
		if ds.HasField(f) {
			out = append(out, f)
		}
	}
	return out
}

// ColumnLabel returns the table header for f.
func (b *Builder) ColumnLabel(f models.Field) string {
	switch f {
	case models.FieldTitle:
		return "Title"
	case models.FieldAuthors:
		return "Authors"
	case models.FieldGenre:
		return "Genre"
	case models.FieldAuthorNationality:
		return "Nationality"
	case models.FieldAgeGroup:
		return "Age Group"
	case models.FieldLanguageCode:
		return "Language"
	case models.FieldAverageRating:
		return "Rating"
	case models.FieldRatingsCount:
		return "Ratings"
	case models.FieldNumPages:
		return "Pages"
	case models.FieldPublicationYear:
		return "Year"
	case models.FieldPrice:
		return "Price (" + b.currency + ")"
	case models.FieldScore:
		return "Score"
	}
	return string(f)
}
