package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/bibliodash/internal/dashboard"
	"github.com/hyperjump/bibliodash/internal/models"
	"github.com/hyperjump/bibliodash/internal/storage"
	"go.uber.org/zap"
)

// datasetInfo is the API representation of a loaded dataset.
type datasetInfo struct {
	Name        string                  `json:"name"`
	Title       string                  `json:"title"`
	Layout      models.Layout           `json:"layout"`
	Path        string                  `json:"path"`
	ExportName  string                  `json:"export_name"`
	Books       int                     `json:"books"`
	Headers     []string                `json:"headers"`
	Columns     map[models.Field]string `json:"columns"`
	LoadedAt    time.Time               `json:"loaded_at"`
	Fingerprint string                  `json:"fingerprint"`
}

func newDatasetInfo(ds *models.Dataset) datasetInfo {
	return datasetInfo{
		Name:        ds.Name,
		Title:       ds.Title,
		Layout:      ds.Layout,
		Path:        ds.Path,
		ExportName:  ds.ExportName,
		Books:       ds.Len(),
		Headers:     ds.Headers,
		Columns:     ds.Columns,
		LoadedAt:    ds.LoadedAt,
		Fingerprint: ds.Fingerprint,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	datasets := s.catalog.Datasets()
	infos := make([]datasetInfo, len(datasets))
	books := 0
	for i, ds := range datasets {
		infos[i] = newDatasetInfo(ds)
		books += ds.Len()
	}
	resp := map[string]interface{}{
		"datasets":       infos,
		"books":          books,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	if s.storage != nil {
		n, err := s.storage.CountViews(ctx)
		if err != nil {
			s.logger.Error("status: count views failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["saved_views"] = n
	}

	configInfo := map[string]interface{}{
		"database_path": s.config.Storage.DatabasePath,
		"page_size":     s.config.Dashboard.PageSize,
		"max_page_size": s.config.Dashboard.MaxPageSize,
		"watch_enabled": s.config.Watch.EnabledOrDefault(),
		"rate_limit":    s.config.Server.RateLimit,
	}
	if usage, err := storage.MeasureUsage(s.config.Storage.DatabasePath, s.catalog.Paths()...); err == nil {
		resp["disk_usage"] = usage
		resp["disk_usage_bytes"] = usage.Total()
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets := s.catalog.Datasets()
	out := make([]datasetInfo, len(datasets))
	for i, ds := range datasets {
		out[i] = newDatasetInfo(ds)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"datasets": out})
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.catalog.Dataset(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, newDatasetInfo(ds))
}

// handleSummary returns metrics, cards, and chart data of the filtered view.
// An empty view is a 200 with empty set and the warning text.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	v, req, err := s.view(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tab := s.builder.Build(v, req)
	tab.Table = nil
	s.respondJSON(w, http.StatusOK, tab)
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	v, req, err := s.view(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	table := s.builder.Table(v, req)
	resp := map[string]interface{}{
		"dataset": v.Dataset.Name,
		"columns": table.Columns,
		"books":   table.Rows,
		"page":    table.Page,
		"sort_by": table.SortBy,
		"desc":    table.Desc,
	}
	if v.Suggestion != "" {
		resp["suggestion"] = v.Suggestion
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	ds, err := s.catalog.Dataset(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, dashboard.Options(ds))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.logger.Debug("reload request", zap.String("dataset", name))
	changed, err := s.catalog.Reload(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ds, err := s.catalog.Dataset(name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"dataset":     name,
		"reloaded":    changed,
		"books":       ds.Len(),
		"fingerprint": ds.Fingerprint,
	})
}

func (s *Server) handleLoads(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "storage not enabled")
		return
	}
	name := chi.URLParam(r, "name")
	if _, err := s.catalog.Dataset(name); err != nil {
		s.fail(w, r, err)
		return
	}
	limit := 20
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = min(n, 500)
	}
	loads, err := s.storage.ListLoads(r.Context(), name, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if loads == nil {
		loads = []*models.LoadRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"dataset": name, "loads": loads})
}
