package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/assessment-engine/internal/assessment"
	"github.com/gokatarajesh/assessment-engine/internal/logging"
	httperrors "github.com/gokatarajesh/assessment-engine/pkg/http/errors"
)

const defaultMaxBodyBytes = 1 << 20

// HTTPOptions bound request handling.
type HTTPOptions struct {
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

// HTTPHandler exposes the analysis REST endpoints.
type HTTPHandler struct {
	svc    *Service
	opts   HTTPOptions
	logger zerolog.Logger
}

// NewHTTPHandler constructs an analysis HTTP handler.
func NewHTTPHandler(svc *Service, opts HTTPOptions, logger zerolog.Logger) *HTTPHandler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &HTTPHandler{
		svc:    svc,
		opts:   opts,
		logger: logger.With().Str("component", "analysis_http").Logger(),
	}
}

// HandleAnalyze runs one analysis.
// Route: POST /v1/analyses
func (h *HTTPHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w, http.MethodPost)
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperrors.RespondErrorWithDetails(w, http.StatusRequestEntityTooLarge, httperrors.ErrCodePayloadTooLarge,
				"request body too large", map[string]any{"max_bytes": tooLarge.Limit})
			return
		}
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "could not read request body")
		return
	}

	req, err := DecodeRequest(raw)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	ctx := r.Context()
	if h.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.RequestTimeout)
		defer cancel()
	}

	res, err := h.svc.Analyze(ctx, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type competenciesResponse struct {
	StudentID    string                        `json:"student_id"`
	TestID       string                        `json:"test_id"`
	Competencies []assessment.CompetencyResult `json:"competencies"`
}

// HandleCompetencies returns the stored competencies for a session.
// Route: GET /v1/competencies?student_id=&test_id=
func (h *HTTPHandler) HandleCompetencies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w, http.MethodGet)
		return
	}

	q := r.URL.Query()
	studentID, testID := q.Get("student_id"), q.Get("test_id")

	rows, err := h.svc.Competencies(r.Context(), studentID, testID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, competenciesResponse{
		StudentID:    studentID,
		TestID:       testID,
		Competencies: rows,
	})
}

func (h *HTTPHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, verr.Message, verr.Field)
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "no competencies stored for this session")
	case errors.Is(err, ErrPersistenceDisabled):
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "result persistence is disabled")
	case errors.Is(err, context.DeadlineExceeded):
		httperrors.RespondError(w, http.StatusGatewayTimeout, httperrors.ErrCodeTimeout, "analysis timed out")
	default:
		h.requestLogger(r).Error().Err(err).Str("path", r.URL.Path).Msg("analysis request failed")
		httperrors.RespondInternalError(w, "analysis failed")
	}
}

// requestLogger prefers the request-scoped logger installed by the logging
// middleware.
func (h *HTTPHandler) requestLogger(r *http.Request) *zerolog.Logger {
	if l := logging.FromContext(r.Context()); l.GetLevel() != zerolog.Disabled {
		scoped := l.With().Str("component", "analysis_http").Logger()
		return &scoped
	}
	return &h.logger
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
