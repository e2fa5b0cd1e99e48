// Package storage defines the persistence interface for saved views and load history.
package storage

import (
	"context"

	"github.com/hyperjump/bibliodash/internal/models"
)

// Storage defines saved view and load history persistence operations.
type Storage interface {
	// Saved view operations
	CreateView(ctx context.Context, view *models.SavedView) error
	GetView(ctx context.Context, id string) (*models.SavedView, error)
	UpdateView(ctx context.Context, view *models.SavedView) error
	DeleteView(ctx context.Context, id string) error
	// ListViews returns the views of dataset, or of every dataset when dataset is "".
	ListViews(ctx context.Context, dataset string, offset, limit int) ([]*models.SavedView, error)

	// Load history
	RecordLoad(ctx context.Context, rec *models.LoadRecord) error
	ListLoads(ctx context.Context, dataset string, limit int) ([]*models.LoadRecord, error)

	// Stats
	CountViews(ctx context.Context) (int64, error)

	Close() error
}
