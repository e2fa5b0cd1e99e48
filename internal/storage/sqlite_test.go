package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/bibliodash/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "views.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	view := &models.SavedView{Dataset: "full", Name: "Cheap fantasy", Query: "genre=Fantasy&max_price=10"}
	if err := store.CreateView(ctx, view); err != nil {
		t.Fatal(err)
	}
	if view.ID == "" {
		t.Fatal("ID should be assigned")
	}
	if view.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetView(ctx, view.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Cheap fantasy" || got.Query != view.Query || got.Dataset != "full" {
		t.Errorf("got %+v", got)
	}

	view.Name = "Budget fantasy"
	if err := store.UpdateView(ctx, view); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetView(ctx, view.ID)
	if got.Name != "Budget fantasy" {
		t.Errorf("expected Budget fantasy, got %s", got.Name)
	}

	n, err := store.CountViews(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("CountViews = %d, want 1", n)
	}

	if err := store.DeleteView(ctx, view.ID); err != nil {
		t.Fatal(err)
	}
	_, err = store.GetView(ctx, view.ID)
	if !errors.Is(err, models.ErrViewNotFound) {
		t.Errorf("GetView after delete: got %v, want ErrViewNotFound", err)
	}
}

func TestSQLiteStorage_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.DeleteView(ctx, "missing"); !errors.Is(err, models.ErrViewNotFound) {
		t.Errorf("DeleteView: got %v", err)
	}
	if err := store.UpdateView(ctx, &models.SavedView{ID: "missing", Name: "x"}); !errors.Is(err, models.ErrViewNotFound) {
		t.Errorf("UpdateView: got %v", err)
	}
}

func TestSQLiteStorage_ListViews(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, v := range []*models.SavedView{
		{Dataset: "full", Name: "a"},
		{Dataset: "full", Name: "b"},
		{Dataset: "selection", Name: "c"},
	} {
		if err := store.CreateView(ctx, v); err != nil {
			t.Fatal(err)
		}
	}

	full, err := store.ListViews(ctx, "full", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(full) != 2 {
		t.Errorf("full views: got %d, want 2", len(full))
	}
	all, err := store.ListViews(ctx, "", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("all views: got %d, want 3", len(all))
	}
	page, err := store.ListViews(ctx, "", 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 {
		t.Errorf("offset 2: got %d, want 1", len(page))
	}
	none, err := store.ListViews(ctx, "unknown", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("unknown dataset: got %v, want empty slice", none)
	}
}

func TestSQLiteStorage_Loads(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, fp := range []string{"sha256:a", "sha256:b", "sha256:c"} {
		rec := &models.LoadRecord{
			Dataset:     "full",
			Fingerprint: fp,
			Books:       100 + i,
			DurationMs:  int64(10 * i),
			LoadedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.RecordLoad(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.RecordLoad(ctx, &models.LoadRecord{Dataset: "selection", Fingerprint: "sha256:z", Books: 5}); err != nil {
		t.Fatal(err)
	}

	loads, err := store.ListLoads(ctx, "full", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(loads) != 2 {
		t.Fatalf("got %d loads, want 2", len(loads))
	}
	if loads[0].Fingerprint != "sha256:c" || loads[0].Books != 102 {
		t.Errorf("newest load first: got %+v", loads[0])
	}
}
