package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
datasets:
  - name: books
    path: books.csv
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if len(cfg.Datasets) != 1 {
		t.Fatalf("datasets: got %d, want 1", len(cfg.Datasets))
	}
	d := cfg.Datasets[0]
	if d.Path != filepath.Join(dir, "books.csv") {
		t.Errorf("dataset path = %s, want relative to config dir", d.Path)
	}
	if d.Layout != "explorer" || d.Title != "books" || d.ExportName != "books.csv" {
		t.Errorf("dataset defaults not applied: %+v", d)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/db/views.db"
datasets:
  - name: full
    path: ./data/BOOKS_DATASET_final.csv
    layout: overview
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "views.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantData := filepath.Join(dir, "data", "BOOKS_DATASET_final.csv")
	if cfg.Datasets[0].Path != wantData {
		t.Errorf("dataset path = %s, want %s", cfg.Datasets[0].Path, wantData)
	}
}

func TestLoad_relativeConfigPathYieldsAbsoluteDatasetPaths(t *testing.T) {
	dir := t.TempDir()
	content := `
storage:
  database_path: "./views.db"
datasets:
  - name: books
    path: books.csv
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(cwd, "books.csv"); cfg.Datasets[0].Path != want {
		t.Errorf("dataset path = %s, want %s", cfg.Datasets[0].Path, want)
	}
	if want := filepath.Join(cwd, "views.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"duplicate names", "datasets:\n  - {name: a, path: a.csv}\n  - {name: a, path: b.csv}\n"},
		{"unknown layout", "datasets:\n  - {name: a, path: a.csv, layout: pie}\n"},
		{"missing path", "datasets:\n  - {name: a}\n"},
		{"slash in name", "datasets:\n  - {name: a/b, path: a.csv}\n"},
		{"bad yaml", "datasets: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8501 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Dashboard.PageSize != 25 || cfg.Dashboard.MaxPageSize != 500 {
		t.Errorf("default page sizes: got %d/%d", cfg.Dashboard.PageSize, cfg.Dashboard.MaxPageSize)
	}
	if cfg.Dashboard.Currency != "€" {
		t.Errorf("default currency: got %q", cfg.Dashboard.Currency)
	}
	if cfg.Watch.DebounceMs != 400 {
		t.Errorf("default debounce: got %d", cfg.Watch.DebounceMs)
	}
	if len(cfg.Datasets) != 2 {
		t.Fatalf("default datasets: got %d, want 2", len(cfg.Datasets))
	}
	if cfg.Datasets[0].ExportName != "BOOKS_DATASET.csv" || cfg.Datasets[1].ExportName != "selection_books.csv" {
		t.Errorf("default export names: got %q, %q", cfg.Datasets[0].ExportName, cfg.Datasets[1].ExportName)
	}
	if cfg.Datasets[0].Layout != "overview" || cfg.Datasets[1].Layout != "selection" {
		t.Errorf("default layouts: got %q, %q", cfg.Datasets[0].Layout, cfg.Datasets[1].Layout)
	}
}

func TestApplyDefaults_pageSizeCapped(t *testing.T) {
	cfg := &Config{Dashboard: DashboardConfig{PageSize: 1000, MaxPageSize: 100}}
	ApplyDefaults(cfg)
	if cfg.Dashboard.PageSize != 100 {
		t.Errorf("page size should be capped at max: got %d", cfg.Dashboard.PageSize)
	}
}

func TestApplyDefaults_datasetNameFromPath(t *testing.T) {
	cfg := &Config{Datasets: []DatasetConfig{{Path: "/data/Books_Enriched.xlsx"}}}
	ApplyDefaults(cfg)
	if cfg.Datasets[0].Name != "books_enriched" {
		t.Errorf("name: got %q", cfg.Datasets[0].Name)
	}
	if cfg.Datasets[0].ExportName != "Books_Enriched.xlsx" {
		t.Errorf("export name: got %q", cfg.Datasets[0].ExportName)
	}
}

func TestWatchConfig_EnabledOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &WatchConfig{}
		if got := w.EnabledOrDefault(); !got {
			t.Errorf("EnabledOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &WatchConfig{Enabled: &f}
		if got := w.EnabledOrDefault(); got {
			t.Errorf("EnabledOrDefault() = %v, want false", got)
		}
	})
}

func TestDefault(t *testing.T) {
	dir := t.TempDir()
	cfg := Default(dir)
	if cfg.Datasets[0].Path != filepath.Join(dir, "BOOKS_DATASET_final.csv") {
		t.Errorf("default dataset path: got %s", cfg.Datasets[0].Path)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	if _, ok := cfg.Dataset("selection"); !ok {
		t.Error("Dataset(selection) should be found")
	}
	if _, ok := cfg.Dataset("nope"); ok {
		t.Error("Dataset(nope) should not be found")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:   ServerConfig{Host: "localhost", Port: 9090},
		Storage:  StorageConfig{DatabasePath: "/tmp/db"},
		Datasets: []DatasetConfig{{Name: "books", Path: "/tmp/books.csv", Layout: "explorer"}},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Datasets[0].Path != "/tmp/books.csv" {
		t.Errorf("loaded dataset path: got %s", loaded.Datasets[0].Path)
	}
}
