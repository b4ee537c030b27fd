package http

import (
	"bms-service/internal/auth"
	"bms-service/internal/domain"
	"bms-service/internal/service"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Principal, error)
}

type Services struct {
	Users       *service.UserService
	Teams       *service.TeamService
	Tasks       *service.TaskService
	Meetings    *service.MeetingService
	Evaluations *service.EvaluationService
	Calendar    *service.CalendarService
}

type Handler struct {
	services  Services
	auth      Authenticator
	logger    *slog.Logger
	metrics   *Metrics
	limiter   RateLimiter
	rateLimit int
	now       func() time.Time
}

type Option func(*Handler)

// WithRateLimiter caps every authenticated caller at perMinute requests.
func WithRateLimiter(limiter RateLimiter, perMinute int) Option {
	return func(h *Handler) {
		h.limiter = limiter
		h.rateLimit = perMinute
	}
}

func WithMetrics(m *Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

func NewHandler(services Services, authenticator Authenticator, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		services: services,
		auth:     authenticator,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = NewMetrics()
	}

	return h
}

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write json response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	apiErr := APIError{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	}

	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		status = http.StatusUnauthorized
		apiErr = APIError{Code: "UNAUTHORIZED", Message: auth.ErrUnauthenticated.Error()}
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		apiErr = APIError{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
		apiErr = APIError{Code: "FORBIDDEN", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
		apiErr = APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusBadRequest
		apiErr = APIError{Code: "CONFLICT", Message: err.Error()}
	}

	h.metrics.recordError(apiErr.Code)

	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "http server error", "error", err, "request_id", middleware.GetReqID(r.Context()))
	}

	h.respondJSON(w, r, status, ErrorResponse{Error: apiErr})
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.InvalidInput("invalid json body")
	}

	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, domain.InvalidInput(name + " must be a positive integer")
	}

	return id, nil
}

// queryInt returns def when the parameter is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.InvalidInput(name + " must be an integer")
	}

	return v, nil
}

func queryID(r *http.Request, name string) (int64, error) {
	v, err := queryInt(r, name, 0)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, domain.InvalidInput(name + " must be a positive integer")
	}

	return int64(v), nil
}

func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, domain.InvalidInput(name + " is required")
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.InvalidInput(name + " must be an RFC 3339 timestamp")
	}

	return t, nil
}

func principal(r *http.Request) domain.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

func NewSlogLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			t1 := time.Now()

			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(t1).Milliseconds(),
				"bytes_written", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}

		return http.HandlerFunc(fn)
	}
}
