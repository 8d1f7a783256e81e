package submission

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/summary-relay/internal/metrics"
	"github.com/JakeFAU/summary-relay/internal/telemetry"
	"github.com/JakeFAU/summary-relay/internal/webhook"
)

// Service validates submissions and forwards them to the webhook.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	cfg       Config
	forwarder Forwarder
	idGen     IDGenerator
	tracer    *telemetry.Tracer
	logger    *zap.Logger
}

// NewService constructs a Service. A nil tracer uses the global provider and a
// nil logger discards output.
func NewService(
	cfg Config,
	forwarder Forwarder,
	idGen IDGenerator,
	tracer *telemetry.Tracer,
	logger *zap.Logger,
) *Service {
	metrics.Init()
	if tracer == nil {
		tracer = telemetry.NewTracer(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:       cfg,
		forwarder: forwarder,
		idGen:     idGen,
		tracer:    tracer,
		logger:    logger,
	}
}

// Submit validates sub and forwards it once. On success the Result carries
// the caller-facing message and session ID. Errors are a *ValidationError,
// ErrNotConfigured, ErrDownstreamUnreachable, ErrDownstreamRejected, or an
// unexpected failure; the Result still carries the session ID when one was
// generated.
func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	payload, err := Validate(sub)
	if err != nil {
		s.observe(OutcomeInvalid)
		return Result{Outcome: OutcomeInvalid}, err
	}

	sessionID, err := s.idGen.NewID()
	if err != nil {
		s.observe(OutcomeError)
		return Result{Outcome: OutcomeError}, fmt.Errorf("generate session id: %w", err)
	}
	payload.SessionID = sessionID
	logger := s.logger.With(zap.String("session_id", sessionID))

	if s.cfg.WebhookURL == "" {
		logger.Error("downstream webhook URL not configured")
		s.observe(OutcomeMisconfigured)
		return Result{SessionID: sessionID, Outcome: OutcomeMisconfigured}, ErrNotConfigured
	}

	ctx, span := s.tracer.StartForwardSpan(ctx, sessionID)
	logger = logger.With(zap.String("trace_id", telemetry.TraceID(ctx)))
	logger.Info("processing article submission",
		zap.String("email", payload.Email),
		zap.String("article_url", payload.ArticleURL),
	)

	resp, postErr := s.forwarder.Post(ctx, s.cfg.WebhookURL, payload, map[string]string{
		"X-Session-ID": sessionID,
	})
	result, err := s.interpret(sessionID, resp, postErr, logger)
	metrics.ObserveDownstream(string(result.Outcome), resp.Latency)
	s.tracer.EndForwardSpan(span, resp.StatusCode, string(result.Outcome), err)
	s.observe(result.Outcome)
	return result, err
}

func (s *Service) interpret(sessionID string, resp webhook.Response, err error, logger *zap.Logger) (Result, error) {
	result := Result{SessionID: sessionID, StatusCode: resp.StatusCode}

	switch {
	case errors.Is(err, webhook.ErrTimeout):
		logger.Warn("webhook timed out; submission may still be processed", zap.Error(err))
		result.Success = true
		result.Message = MessageDelayed
		result.Outcome = OutcomeTimeout
		return result, nil
	case errors.Is(err, webhook.ErrUnreachable):
		logger.Error("webhook unreachable", zap.Error(err))
		result.Outcome = OutcomeUnavailable
		return result, fmt.Errorf("%w: %w", ErrDownstreamUnreachable, err)
	case err != nil:
		logger.Error("unexpected error forwarding submission", zap.Error(err))
		result.Outcome = OutcomeError
		return result, fmt.Errorf("forward submission: %w", err)
	}

	logger = logger.With(zap.Int("status", resp.StatusCode), zap.Duration("latency", resp.Latency))
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		logger.Info("submission forwarded")
		result.Success = true
		result.Message = MessageAccepted
		result.Outcome = OutcomeAccepted
		return result, nil
	}

	if s.cfg.StrictStatus {
		logger.Error("webhook rejected submission", zap.String("response", resp.Body))
		result.Outcome = OutcomeRejected
		return result, fmt.Errorf("%w: status %d", ErrDownstreamRejected, resp.StatusCode)
	}

	logger.Warn("webhook returned unexpected status; reporting success",
		zap.String("response", resp.Body),
	)
	result.Success = true
	result.Message = MessageAccepted
	result.Outcome = OutcomeTentative
	return result, nil
}

func (s *Service) observe(outcome Outcome) {
	metrics.ObserveSubmission(string(outcome))
}
