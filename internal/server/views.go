package server

import (
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/hyperjump/bibliodash/internal/models"
	"go.uber.org/zap"
)

const maxViewsPage = 200

// decodeViewInput reads and validates a saved view body. The query is parsed as a
// filter and re-encoded so stored queries are canonical.
func (s *Server) decodeViewInput(r *http.Request) (*models.SavedViewInput, error) {
	var input models.SavedViewInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&input); err != nil {
		return nil, invalid("invalid request body")
	}
	if err := getValidator().Struct(input); err != nil {
		return nil, invalid("%s", validationMessage(err))
	}
	if _, err := s.catalog.Dataset(input.Dataset); err != nil {
		return nil, err
	}
	values, err := url.ParseQuery(input.Query)
	if err != nil {
		return nil, invalid("invalid query: %v", err)
	}
	f, err := models.ParseFilter(values)
	if err != nil {
		return nil, invalid("%s", err.Error())
	}
	if err := getValidator().Struct(f); err != nil {
		return nil, invalid("%s", validationMessage(err))
	}
	input.Query = f.Encode().Encode()
	return &input, nil
}

func (s *Server) requireStorage(w http.ResponseWriter) bool {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "saved views not enabled")
		return false
	}
	return true
}

func (s *Server) handleListViews(w http.ResponseWriter, r *http.Request) {
	if !s.requireStorage(w) {
		return
	}
	q := r.URL.Query()
	offset, err := intParam(q.Get("offset"))
	if err != nil {
		s.fail(w, r, invalid("invalid offset: %v", err))
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		s.fail(w, r, invalid("invalid limit: %v", err))
		return
	}
	if limit == 0 || limit > maxViewsPage {
		limit = maxViewsPage
	}
	views, err := s.storage.ListViews(r.Context(), q.Get("dataset"), offset, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"views": views})
}

func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	if !s.requireStorage(w) {
		return
	}
	input, err := s.decodeViewInput(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view := &models.SavedView{Dataset: input.Dataset, Name: input.Name, Query: input.Query}
	if err := s.storage.CreateView(r.Context(), view); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Debug("saved view created", zap.String("id", view.ID), zap.String("dataset", view.Dataset))
	s.respondJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	if !s.requireStorage(w) {
		return
	}
	view, err := s.storage.GetView(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateView(w http.ResponseWriter, r *http.Request) {
	if !s.requireStorage(w) {
		return
	}
	ctx := r.Context()
	view, err := s.storage.GetView(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	input, err := s.decodeViewInput(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if input.Dataset != view.Dataset {
		s.fail(w, r, invalid("a saved view cannot move to another dataset"))
		return
	}
	view.Name = input.Name
	view.Query = input.Query
	if err := s.storage.UpdateView(ctx, view); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	if !s.requireStorage(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.storage.DeleteView(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Debug("saved view deleted", zap.String("id", id))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
