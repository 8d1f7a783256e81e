package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/summary-relay/internal/config"
	"github.com/JakeFAU/summary-relay/internal/metrics"
	"github.com/JakeFAU/summary-relay/internal/submission"
)

const maxSubmitBodyBytes = 64 << 10

// Caller-facing failure messages. They never include configuration detail.
const (
	msgValidationFailed = "Validation failed. Please check the highlighted fields."
	msgConfiguration    = "Service configuration error. Please contact administrator."
	msgUnavailable      = "Service temporarily unavailable. Please try again later."
	msgRejected         = "Failed to process article. Please try again later."
	msgUnexpected       = "An unexpected error occurred. Please try again later."
)

// Submitter is the submission use case the server exposes.
type Submitter interface {
	Submit(ctx context.Context, sub submission.Submission) (submission.Result, error)
}

// Server wires HTTP handlers to the submission service.
type Server struct {
	router    chi.Router
	submitter Submitter
	cfg       config.Config
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(submitter Submitter, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	s := &Server{
		submitter: submitter,
		cfg:       cfg,
		logger:    logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware(cfg.CORS))
	r.Use(preflightMiddleware)
	r.Use(timeoutMiddleware(cfg.DownstreamTimeout() + 15*time.Second))

	r.Get("/", s.root)
	r.Get("/health", s.health)
	r.Post("/submit", s.submit)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

type serviceInfo struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type submitResponse struct {
	Success   bool                    `json:"success"`
	Message   string                  `json:"message"`
	SessionID string                  `json:"session_id,omitempty"`
	Errors    []submission.FieldError `json:"errors,omitempty"`
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, serviceInfo{
		Name:    s.cfg.App.Name,
		Version: s.cfg.App.Version,
		Endpoints: map[string]string{
			"health":  "/health",
			"submit":  "/submit",
			"metrics": "/metrics",
		},
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Version: s.cfg.App.Version})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBodyBytes)
	var req submission.Submission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ObserveSubmission(string(submission.OutcomeInvalid))
		writeJSON(w, http.StatusUnprocessableEntity, submitResponse{
			Message: msgValidationFailed,
			Errors:  []submission.FieldError{{Field: "body", Message: "invalid JSON"}},
		})
		return
	}

	// The webhook timeout bounds the forward; a client hanging up must not
	// abort a payload that may already be on its way.
	ctx := context.WithoutCancel(r.Context())
	result, err := s.submitter.Submit(ctx, req)
	if err != nil {
		s.writeSubmitError(w, r, result, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Success:   true,
		Message:   result.Message,
		SessionID: result.SessionID,
	})
}

func (s *Server) writeSubmitError(w http.ResponseWriter, r *http.Request, result submission.Result, err error) {
	resp := submitResponse{SessionID: result.SessionID}
	var verr *submission.ValidationError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		resp.Message = msgValidationFailed
		resp.Errors = verr.Fields
	case errors.Is(err, submission.ErrNotConfigured):
		resp.Message = msgConfiguration
	case errors.Is(err, submission.ErrDownstreamUnreachable):
		status = http.StatusServiceUnavailable
		resp.Message = msgUnavailable
	case errors.Is(err, submission.ErrDownstreamRejected):
		status = http.StatusBadGateway
		resp.Message = msgRejected
	default:
		resp.Message = msgUnexpected
	}
	s.logger.Debug("submission failed",
		zap.String("request_id", requestIDFromContext(r.Context())),
		zap.String("session_id", result.SessionID),
		zap.Int("status", status),
		zap.Error(err),
	)
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}
