package config

import (
	"path/filepath"
	"strings"
)

// DefaultDatasets are the two catalog files the dashboard ships with.
func DefaultDatasets() []DatasetConfig {
	return []DatasetConfig{
		{
			Name:       "full",
			Title:      "Full Dataset Overview",
			Path:       "BOOKS_DATASET_final.csv",
			Layout:     "overview",
			ExportName: "BOOKS_DATASET.csv",
		},
		{
			Name:       "selection",
			Title:      "Final 5,000 Selection",
			Path:       "selection_books.csv",
			Layout:     "selection",
			ExportName: "selection_books.csv",
		},
	}
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8501
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 600
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/bibliodash/data/db/views.db"
	}
	if cfg.Dashboard.PageSize == 0 {
		cfg.Dashboard.PageSize = 25
	}
	if cfg.Dashboard.MaxPageSize == 0 {
		cfg.Dashboard.MaxPageSize = 500
	}
	if cfg.Dashboard.PageSize > cfg.Dashboard.MaxPageSize {
		cfg.Dashboard.PageSize = cfg.Dashboard.MaxPageSize
	}
	if cfg.Dashboard.Currency == "" {
		cfg.Dashboard.Currency = "€"
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = 400
	}
	if len(cfg.Datasets) == 0 {
		cfg.Datasets = DefaultDatasets()
	}
	for i := range cfg.Datasets {
		d := &cfg.Datasets[i]
		if d.Name == "" && d.Path != "" {
			base := filepath.Base(d.Path)
			d.Name = strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
		}
		if d.Title == "" {
			d.Title = d.Name
		}
		if d.Layout == "" {
			d.Layout = "explorer"
		}
		if d.ExportName == "" && d.Path != "" {
			d.ExportName = filepath.Base(d.Path)
		}
	}
}
