package submission

import (
	"context"

	"github.com/JakeFAU/summary-relay/internal/webhook"
)

// Messages shown to the caller.
const (
	MessageAccepted = "Article submitted successfully. You'll receive the summary by email shortly."
	MessageDelayed  = "Article submitted. Processing may take longer than usual; " +
		"you'll receive the summary by email once it's ready."
)

// Outcome classifies how a submission ended. Values are used as metric labels.
type Outcome string

// Outcome values.
const (
	// OutcomeAccepted means the webhook answered 200 or 201.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeTentative means the webhook answered with another status and the
	// lenient policy reported success anyway.
	OutcomeTentative Outcome = "tentative"
	// OutcomeTimeout means the webhook did not answer in time; reported as success.
	OutcomeTimeout       Outcome = "timeout"
	OutcomeRejected      Outcome = "rejected"
	OutcomeUnavailable   Outcome = "unavailable"
	OutcomeInvalid       Outcome = "invalid"
	OutcomeMisconfigured Outcome = "misconfigured"
	OutcomeError         Outcome = "error"
)

// Submission is what the frontend sends.
type Submission struct {
	Email      string `json:"email"`
	ArticleURL string `json:"article_url"`
}

// Payload is the only data sent to the webhook.
type Payload struct {
	Email      string `json:"email"`
	ArticleURL string `json:"article_url"`
	SessionID  string `json:"session_id"`
}

// Result is the caller-facing answer plus what the logs and metrics need.
type Result struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
	SessionID  string  `json:"session_id"`
	Outcome    Outcome `json:"-"`
	StatusCode int     `json:"-"`
}

// Config holds the downstream settings the service needs.
type Config struct {
	WebhookURL   string
	StrictStatus bool
}

// Forwarder delivers a payload to the webhook once.
type Forwarder interface {
	Post(ctx context.Context, url string, payload any, headers map[string]string) (webhook.Response, error)
}

// IDGenerator produces session IDs.
type IDGenerator interface {
	NewID() (string, error)
}
