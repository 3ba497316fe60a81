package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cpfvariants/internal/domain"
	"github.com/kailas-cloud/cpfvariants/internal/domain/cpf"
	"github.com/kailas-cloud/cpfvariants/internal/domain/region"
	healthuc "github.com/kailas-cloud/cpfvariants/internal/usecase/health"
	searchuc "github.com/kailas-cloud/cpfvariants/internal/usecase/search"
)

const defaultSearchTimeout = 60 * time.Second

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the variant search HTTP API.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	timeout       time.Duration
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search:  search,
		health:  health,
		logger:  logger,
		timeout: defaultSearchTimeout,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidFormat, http.StatusBadRequest, ErrorCodeInvalidFormat),
		sentinelHandler(domain.ErrInvalidChecksum, http.StatusBadRequest, ErrorCodeInvalidChecksum),
		sentinelHandler(domain.ErrUnknownState, http.StatusBadRequest, ErrorCodeUnknownState),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrAborted, http.StatusServiceUnavailable, ErrorCodeAborted),
	}
	return s
}

// WithTimeout bounds each search; non-positive values keep the default.
func (s *Server) WithTimeout(d time.Duration) *Server {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/variants/search", s.SearchVariants)
		r.Get("/variants/stream", s.StreamVariants)
		r.Post("/cpf/validate", s.ValidateCPF)
		r.Get("/regions", s.ListRegions)
	})
}

// SearchVariants handles POST /v1/variants/search.
func (s *Server) SearchVariants(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := searchRequestFromBody(body, uuid.NewString())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	out, err := s.search.Search(ctx, req, nil)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("X-Search-ID", req.ID)
	writeJSON(w, http.StatusOK, outcomeToResponse(req.ID, req.Original.String(), out))
}

// ValidateCPF handles POST /v1/cpf/validate.
func (s *Server) ValidateCPF(w http.ResponseWriter, r *http.Request) {
	var body ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	raw := cpf.Normalize(body.CPF)
	resp := ValidateResponse{CPF: raw}

	d, err := cpf.Validate(raw)
	switch {
	case errors.Is(err, domain.ErrInvalidFormat):
		resp.Reason = ErrorCodeInvalidFormat
		resp.Message = domain.ErrInvalidFormat.Error()
	case errors.Is(err, domain.ErrInvalidChecksum):
		resp.Reason = ErrorCodeInvalidChecksum
		resp.Message = domain.ErrInvalidChecksum.Error()
		resp.Formatted = cpf.MustParse(raw).Format()
	case err != nil:
		s.handleDomainError(w, err)
		return
	default:
		digit := d.RegionDigit()
		resp.Valid = true
		resp.Formatted = d.Format()
		resp.RegionDigit = &digit
		resp.States = stateCodes(digit)
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListRegions handles GET /v1/regions.
func (s *Server) ListRegions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RegionsResponse{Items: region.All()})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// searchRequestFromBody normalizes and validates the CPF and builds the
// region filter as the union of the state and the explicit digits.
func searchRequestFromBody(body SearchRequest, searchID string) (searchuc.Request, error) {
	original, err := cpf.Validate(cpf.Normalize(body.CPF))
	if err != nil {
		return searchuc.Request{}, err
	}

	filter, err := region.FilterForState(body.State)
	if err != nil {
		return searchuc.Request{}, err
	}
	for _, d := range body.RegionDigits {
		if d < 0 || d > 9 {
			return searchuc.Request{}, fmt.Errorf("%w: region digit %d out of range", domain.ErrInvalidRequest, d)
		}
		digit, _ := region.NewFilter(uint8(d))
		filter = filter.Union(digit)
	}

	if body.MaxChanges < 0 {
		return searchuc.Request{}, fmt.Errorf("%w: max_changes must not be negative", domain.ErrInvalidRequest)
	}

	return searchuc.Request{
		ID:         searchID,
		Original:   original,
		MaxChanges: body.MaxChanges,
		Filter:     filter,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidFormat,
		domain.ErrInvalidChecksum,
		domain.ErrUnknownState,
		domain.ErrInvalidRequest,
		domain.ErrAborted,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// errorCode maps an error to its API code.
func errorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, domain.ErrInvalidFormat):
		return ErrorCodeInvalidFormat
	case errors.Is(err, domain.ErrInvalidChecksum):
		return ErrorCodeInvalidChecksum
	case errors.Is(err, domain.ErrUnknownState):
		return ErrorCodeUnknownState
	case errors.Is(err, domain.ErrInvalidRequest):
		return ErrorCodeValidationFailed
	case errors.Is(err, domain.ErrAborted):
		return ErrorCodeAborted
	default:
		return ErrorCodeInternalError
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
