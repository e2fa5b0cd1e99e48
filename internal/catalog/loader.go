package catalog

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/bibliodash/internal/config"
	"github.com/hyperjump/bibliodash/internal/fingerprint"
	"github.com/hyperjump/bibliodash/internal/models"
)

// Load reads the dataset file described by cfg into an immutable Dataset.
func Load(ctx context.Context, cfg config.DatasetConfig) (*models.Dataset, error) {
	content, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := readTable(cfg.Path, content)
	if err != nil {
		return nil, err
	}
	cols, err := resolveColumns(t.headers, cfg.Columns)
	if err != nil {
		return nil, err
	}

	books := make([]*models.Book, len(t.rows))
	for i, row := range t.rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		books[i] = newBook(strconv.Itoa(i), row, cols)
	}

	columns := make(map[models.Field]string, len(cols))
	for f, i := range cols {
		columns[f] = t.headers[i]
	}
	return &models.Dataset{
		Name:        cfg.Name,
		Title:       cfg.Title,
		Layout:      models.ParseLayout(cfg.Layout),
		Path:        cfg.Path,
		ExportName:  cfg.ExportName,
		Headers:     t.headers,
		Books:       books,
		LoadedAt:    time.Now(),
		Fingerprint: fingerprint.Bytes(content),
		Columns:     columns,
	}, nil
}

func newBook(id string, row []string, cols map[models.Field]int) *models.Book {
	cell := func(f models.Field) string {
		i, ok := cols[f]
		if !ok {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	return &models.Book{
		ID:                id,
		Title:             cell(models.FieldTitle),
		Authors:           cell(models.FieldAuthors),
		Genre:             cell(models.FieldGenre),
		AuthorNationality: cell(models.FieldAuthorNationality),
		AgeGroup:          cell(models.FieldAgeGroup),
		LanguageCode:      cell(models.FieldLanguageCode),
		AverageRating:     floatPtr(cell(models.FieldAverageRating)),
		RatingsCount:      intPtr(cell(models.FieldRatingsCount)),
		NumPages:          intPtr(cell(models.FieldNumPages)),
		PublicationYear:   yearPtr(cell(models.FieldPublicationYear)),
		Price:             floatPtr(cell(models.FieldPrice)),
		Score:             floatPtr(cell(models.FieldScore)),
		Cells:             row,
	}
}
