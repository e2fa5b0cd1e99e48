package models

import "time"

// SavedView is a named filter preset for one dataset. Query holds the encoded filter
// (the URL query string of the dashboard).
type SavedView struct {
	ID        string    `json:"id"`
	Dataset   string    `json:"dataset"`
	Name      string    `json:"name"`
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SavedViewInput is the request body for creating or updating a saved view.
type SavedViewInput struct {
	Dataset string `json:"dataset" validate:"required,max=64"`
	Name    string `json:"name" validate:"required,min=1,max=120"`
	Query   string `json:"query" validate:"max=4096"`
}

// LoadRecord is one successful dataset load.
type LoadRecord struct {
	Dataset     string    `json:"dataset"`
	Fingerprint string    `json:"fingerprint"`
	Books       int       `json:"books"`
	DurationMs  int64     `json:"duration_ms"`
	LoadedAt    time.Time `json:"loaded_at"`
}
