package server

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/bibliodash/internal/catalog"
	"github.com/hyperjump/bibliodash/internal/chart"
	"github.com/hyperjump/bibliodash/internal/dashboard"
	"github.com/hyperjump/bibliodash/internal/export"
	"github.com/hyperjump/bibliodash/internal/fingerprint"
	"github.com/hyperjump/bibliodash/internal/metrics"
	"github.com/hyperjump/bibliodash/internal/models"
	"go.uber.org/zap"
)

// tabPage is the template data of one dashboard tab.
type tabPage struct {
	*dashboard.Tab
	Datasets []*models.Dataset
	Options  models.Options
	Views    []*models.SavedView
	Currency string
	// query is the encoded filter, without page or sort.
	query url.Values
	req   dashboard.TableRequest
}

func (p *tabPage) base() string {
	return "/datasets/" + url.PathEscape(p.Dataset.Name)
}

func withQuery(path string, v url.Values) string {
	if enc := v.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

// ChartURL returns the image URL of chart id for the current filter.
func (p *tabPage) ChartURL(id, ext string) string {
	return withQuery(p.base()+"/charts/"+id+"."+ext, p.query)
}

// ExportURL returns the download URL of the filtered view.
func (p *tabPage) ExportURL(ext string) string {
	return withQuery(p.base()+"/export."+ext, p.query)
}

// PageURL returns the tab URL showing table page n in the current order.
func (p *tabPage) PageURL(n int) string {
	v := cloneValues(p.query)
	v.Set("page", strconv.Itoa(n))
	if p.req.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(p.req.PageSize))
	}
	if p.req.SortBy != "" {
		v.Set("sort", string(p.req.SortBy))
		if p.req.Desc {
			v.Set("desc", "1")
		}
	}
	return withQuery(p.base(), v)
}

// SortURL returns the tab URL ordering the table by f, toggling direction when
// f is already the sort column.
func (p *tabPage) SortURL(f models.Field) string {
	v := cloneValues(p.query)
	v.Set("sort", string(f))
	desc := f.IsNumeric()
	if p.Table != nil && p.Table.SortBy == f {
		desc = !p.Table.Desc
	}
	if desc {
		v.Set("desc", "1")
	}
	return withQuery(p.base(), v)
}

// SuggestionURL returns the tab URL with the query replaced by the suggestion.
func (p *tabPage) SuggestionURL() string {
	v := cloneValues(p.query)
	v.Set(models.ParamQuery, p.Suggestion)
	return withQuery(p.base(), v)
}

// ClearURL returns the tab URL without any filter.
func (p *tabPage) ClearURL() string { return p.base() }

// QueryString returns the encoded filter, as stored in a saved view.
func (p *tabPage) QueryString() string { return p.query.Encode() }

// Selected reports whether value is chosen in the multi-select param.
func (p *tabPage) Selected(param, value string) bool {
	var set []string
	switch param {
	case models.ParamGenre:
		set = p.Filter.Genres
	case models.ParamNationality:
		set = p.Filter.Nationalities
	case models.ParamAgeGroup:
		set = p.Filter.AgeGroups
	case models.ParamLanguage:
		set = p.Filter.Languages
	}
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}

// multiSelect is the template data of one multi-select widget.
type multiSelect struct {
	Page   *tabPage
	Param  string
	Label  string
	Values []string
}

// Multi returns the widget data for the multi-select param.
func (p *tabPage) Multi(param, label string, values []string) multiSelect {
	return multiSelect{Page: p, Param: param, Label: label, Values: values}
}

// Param returns the raw value of a scalar filter param for the form.
func (p *tabPage) Param(name string) string { return p.query.Get(name) }

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	names := s.catalog.Names()
	if len(names) == 0 {
		http.Error(w, "no datasets configured", http.StatusServiceUnavailable)
		return
	}
	http.Redirect(w, r, "/datasets/"+url.PathEscape(names[0]), http.StatusFound)
}

// view parses the request and applies its filter to the dataset named in the URL.
func (s *Server) view(r *http.Request) (*catalog.View, dashboard.TableRequest, error) {
	f, req, err := s.parseRequest(r)
	if err != nil {
		return nil, req, err
	}
	v, err := s.catalog.View(r.Context(), chi.URLParam(r, "name"), f)
	return v, req, err
}

func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	v, req, err := s.view(r)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	var views []*models.SavedView
	if s.storage != nil {
		views, err = s.storage.ListViews(r.Context(), v.Dataset.Name, 0, 50)
		if err != nil {
			s.logger.Warn("list saved views failed", zap.Error(err))
		}
	}
	datasets := s.catalog.Datasets()
	if notModified(w, r, v.Dataset, tabKey(v.Filter, req, datasets, views)) {
		return
	}

	page := &tabPage{
		Tab:      s.builder.Build(v, req),
		Datasets: datasets,
		Options:  dashboard.Options(v.Dataset),
		Views:    views,
		Currency: s.config.Dashboard.Currency,
		query:    v.Filter.Encode(),
		req:      req,
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "base", page); err != nil {
		s.logger.Error("template error", zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "private, max-age=0, must-revalidate")
	_, _ = buf.WriteTo(w)
}

// tabKey identifies everything a rendered tab depends on besides its own dataset:
// the filter, the table request, the header tabs, and the saved views in the sidebar.
func tabKey(f models.Filter, req dashboard.TableRequest, datasets []*models.Dataset, views []*models.SavedView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "tab?%s|page=%d|size=%d|sort=%s|desc=%t", f.Encode().Encode(), req.Page, req.PageSize, req.SortBy, req.Desc)
	for _, ds := range datasets {
		fmt.Fprintf(&b, "|ds=%s:%s", ds.Name, ds.Fingerprint)
	}
	for _, sv := range views {
		fmt.Fprintf(&b, "|view=%s:%s:%d", sv.ID, sv.Name, sv.UpdatedAt.UnixNano())
	}
	return b.String()
}

// notModified sets the ETag of a derived resource and reports whether the client copy is fresh.
func notModified(w http.ResponseWriter, r *http.Request, ds *models.Dataset, key string) bool {
	etag := fingerprint.ETag(ds.Fingerprint, key)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format, err := chartFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	v, _, err := s.view(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id := chi.URLParam(r, "chart")
	spec, err := s.builder.Chart(v, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if notModified(w, r, v.Dataset, "chart:"+id+"."+string(format)+"?"+v.Filter.Encode().Encode()) {
		return
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := chart.Render(&buf, spec, format); err != nil {
		s.fail(w, r, fmt.Errorf("render %s: %w", id, err))
		return
	}
	metrics.ObserveChart(string(spec.Kind), string(format), time.Since(start))
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "private, max-age=0, must-revalidate")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := exportFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	v, _, err := s.view(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if v.Empty() {
		s.fail(w, r, models.ErrEmptyView)
		return
	}
	if notModified(w, r, v.Dataset, "export."+string(format)+"?"+v.Filter.Encode().Encode()) {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, v.Dataset, v.Books); err != nil {
		s.fail(w, r, fmt.Errorf("export %s: %w", v.Dataset.Name, err))
		return
	}
	metrics.RecordExport(v.Dataset.Name, string(format))
	s.logger.Debug("export", zap.String("dataset", v.Dataset.Name), zap.String("format", string(format)), zap.Int("books", len(v.Books)))
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(v.Dataset, format)))
	_, _ = buf.WriteTo(w)
}

// handleOpenView redirects to the dashboard tab of a saved view.
func (s *Server) handleOpenView(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		http.Error(w, "saved views not enabled", http.StatusNotImplemented)
		return
	}
	view, err := s.storage.GetView(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	target := "/datasets/" + url.PathEscape(view.Dataset)
	if view.Query != "" {
		target += "?" + view.Query
	}
	http.Redirect(w, r, target, http.StatusFound)
}
