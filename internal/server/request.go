package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/hyperjump/bibliodash/internal/chart"
	"github.com/hyperjump/bibliodash/internal/dashboard"
	"github.com/hyperjump/bibliodash/internal/export"
	"github.com/hyperjump/bibliodash/internal/models"
	"go.uber.org/zap"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validationMessage joins field errors into one line, e.g. "min_price must be >= 0".
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s is longer than %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// badRequest marks an error caused by the client's input.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

// parseRequest reads the filter and table settings from the query string.
func (s *Server) parseRequest(r *http.Request) (models.Filter, dashboard.TableRequest, error) {
	q := r.URL.Query()
	f, err := models.ParseFilter(q)
	if err != nil {
		return models.Filter{}, dashboard.TableRequest{}, invalid("%s", err.Error())
	}
	if err := getValidator().Struct(f); err != nil {
		return models.Filter{}, dashboard.TableRequest{}, invalid("%s", validationMessage(err))
	}

	var req dashboard.TableRequest
	if req.Page, err = intParam(q.Get("page")); err != nil {
		return models.Filter{}, dashboard.TableRequest{}, invalid("invalid page: %v", err)
	}
	if req.PageSize, err = intParam(q.Get("page_size")); err != nil {
		return models.Filter{}, dashboard.TableRequest{}, invalid("invalid page_size: %v", err)
	}
	if sort := strings.TrimSpace(q.Get("sort")); sort != "" {
		field, ok := parseField(sort)
		if !ok {
			return models.Filter{}, dashboard.TableRequest{}, invalid("unknown sort column %q", sort)
		}
		req.SortBy = field
		req.Desc = q.Get("desc") == "1" || strings.EqualFold(q.Get("desc"), "true")
	}
	return f, req, nil
}

func intParam(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%d is negative", n)
	}
	return n, nil
}

func parseField(s string) (models.Field, bool) {
	for _, f := range models.Fields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// statusFor maps an error to the HTTP status the client should see.
func statusFor(err error) int {
	var br *badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrDatasetNotFound),
		errors.Is(err, models.ErrViewNotFound),
		errors.Is(err, dashboard.ErrChartNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrEmptyView), errors.Is(err, chart.ErrNoData):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// fail logs server-side failures and writes err as a JSON error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	case errors.Is(err, models.ErrEmptyView):
		msg = models.EmptyViewWarning
	}
	s.respondError(w, status, msg)
}

// respondJSON encodes data before writing the status, so an encoding failure still
// reaches the client as a 500 with a JSON body.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// chartFormat and exportFormat parse the {format} URL parameter.
func chartFormat(ext string) (chart.Format, error) {
	f, err := chart.ParseFormat(ext)
	if err != nil {
		return "", invalid("%s", err.Error())
	}
	return f, nil
}

func exportFormat(ext string) (export.Format, error) {
	f, err := export.ParseFormat(ext)
	if err != nil {
		return "", invalid("%s", err.Error())
	}
	return f, nil
}
