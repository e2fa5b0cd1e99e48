package models

import "errors"

var (
	// ErrEmptyView is returned when the current filters leave no books.
	ErrEmptyView = errors.New("no books match the current filters")
	// ErrDatasetNotFound is returned for an unknown dataset name.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrViewNotFound is returned for an unknown saved view id.
	ErrViewNotFound = errors.New("saved view not found")
)

// EmptyViewWarning is the message shown instead of a dashboard when the view is empty.
const EmptyViewWarning = "No books match the current filters."
