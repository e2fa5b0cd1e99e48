// Package catalog loads book datasets into memory and serves filtered views of them.
package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/hyperjump/bibliodash/internal/config"
	"github.com/hyperjump/bibliodash/internal/fingerprint"
	"github.com/hyperjump/bibliodash/internal/keyword"
	"github.com/hyperjump/bibliodash/internal/models"
	"go.uber.org/zap"
)

type entry struct {
	cfg     config.DatasetConfig
	dataset *models.Dataset
	index   keyword.KeywordIndex
}

// ReloadHook is called after every load attempt of a dataset. ds is nil when err is set.
type ReloadHook func(name string, ds *models.Dataset, took time.Duration, err error)

// Catalog holds the loaded datasets. Datasets are replaced whole on reload and
// never mutated, so readers may keep a *models.Dataset after releasing the lock.
type Catalog struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
	logger  *zap.Logger
	hooks   []ReloadHook
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets a logger for load and reload events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// WithReloadHook adds a hook called after every load attempt (e.g. for metrics).
func WithReloadHook(h ReloadHook) Option {
	return func(c *Catalog) { c.hooks = append(c.hooks, h) }
}

// New creates a catalog for the given datasets. Nothing is loaded until LoadAll.
func New(datasets []config.DatasetConfig, opts ...Option) *Catalog {
	c := &Catalog{
		entries: make(map[string]*entry, len(datasets)),
		logger:  zap.NewNop(),
	}
	for _, d := range datasets {
		c.order = append(c.order, d.Name)
		c.entries[d.Name] = &entry{cfg: d}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// View is the filtered subset of one dataset.
type View struct {
	Dataset *models.Dataset
	Filter  models.Filter
	Books   []*models.Book
	// Suggestion is a corrected full-text query, set when Query matched nothing.
	Suggestion string
}

// Empty reports whether no book matched the filter.
func (v *View) Empty() bool {
	return len(v.Books) == 0
}

// LoadAll loads every configured dataset. It stops at the first failure.
func (c *Catalog) LoadAll(ctx context.Context) error {
	for _, name := range c.order {
		if _, err := c.Reload(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Reload re-reads the named dataset from disk and swaps it in. It returns false
// without reloading when the file content is unchanged. On error the previously
// loaded dataset stays live.
func (c *Catalog) Reload(ctx context.Context, name string) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[name]
	var current *models.Dataset
	var cfg config.DatasetConfig
	if ok {
		current, cfg = e.dataset, e.cfg
	}
	c.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%s: %w", name, models.ErrDatasetNotFound)
	}

	if current != nil {
		if fp, err := fingerprint.File(cfg.Path); err == nil && fp == current.Fingerprint {
			c.logger.Debug("dataset unchanged, skipping reload", zap.String("dataset", name))
			return false, nil
		}
	}

	start := time.Now()
	ds, idx, err := c.build(ctx, cfg)
	took := time.Since(start)
	for _, h := range c.hooks {
		h(name, ds, took, err)
	}
	if err != nil {
		return false, fmt.Errorf("load dataset %s: %w", name, err)
	}

	c.mu.Lock()
	old := c.entries[name].index
	c.entries[name].dataset = ds
	c.entries[name].index = idx
	c.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	c.logger.Info("dataset loaded",
		zap.String("dataset", name),
		zap.String("path", cfg.Path),
		zap.Int("books", ds.Len()),
		zap.Duration("took", took),
	)
	return true, nil
}

func (c *Catalog) build(ctx context.Context, cfg config.DatasetConfig) (*models.Dataset, keyword.KeywordIndex, error) {
	ds, err := Load(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	idx, err := keyword.NewBleveIndex()
	if err != nil {
		return nil, nil, err
	}
	if err := idx.IndexBooks(ctx, ds.Books); err != nil {
		_ = idx.Close()
		return nil, nil, err
	}
	return ds, idx, nil
}

// Dataset returns the loaded dataset named name.
func (c *Catalog) Dataset(name string) (*models.Dataset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	if !ok || e.dataset == nil {
		return nil, fmt.Errorf("%s: %w", name, models.ErrDatasetNotFound)
	}
	return e.dataset, nil
}

// Datasets returns the loaded datasets in configuration order.
func (c *Catalog) Datasets() []*models.Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.Dataset, 0, len(c.order))
	for _, name := range c.order {
		if ds := c.entries[name].dataset; ds != nil {
			out = append(out, ds)
		}
	}
	return out
}

// Names returns the configured dataset names in order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Paths returns the source file path of every configured dataset.
func (c *Catalog) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.entries[name].cfg.Path)
	}
	return out
}

// NamesForPath returns the datasets backed by the file at path. Relative paths on
// either side are resolved against the working directory before comparing.
func (c *Catalog) NamesForPath(path string) []string {
	path = absPath(path)
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for _, name := range c.order {
		if absPath(c.entries[name].cfg.Path) == path {
			out = append(out, name)
		}
	}
	return out
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// View applies f to the named dataset. A non-empty Query is resolved through the
// keyword index and intersected with the other constraints.
func (c *Catalog) View(ctx context.Context, name string, f models.Filter) (*View, error) {
	// The read lock is held across the index query so a concurrent reload cannot
	// close the index in use.
	c.mu.RLock()
	e, ok := c.entries[name]
	if !ok || e.dataset == nil {
		c.mu.RUnlock()
		return nil, fmt.Errorf("%s: %w", name, models.ErrDatasetNotFound)
	}
	v := &View{Dataset: e.dataset, Filter: f}
	if f.Query != "" && e.index != nil {
		ids, err := e.index.MatchIDs(ctx, f.Query)
		if err != nil {
			c.mu.RUnlock()
			return nil, fmt.Errorf("keyword search: %w", err)
		}
		f.MatchIDs = ids
		if len(ids) == 0 {
			v.Suggestion = e.index.Suggest(f.Query)
		}
	}
	c.mu.RUnlock()

	v.Books = f.Apply(v.Dataset.Books)
	return v, nil
}

// Close releases the keyword indexes.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.index != nil {
			_ = e.index.Close()
			e.index = nil
		}
	}
	return nil
}
