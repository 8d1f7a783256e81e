package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/summary-relay/internal/config"
	"github.com/JakeFAU/summary-relay/internal/submission"
)

type submitOutput struct {
	Success    bool                    `json:"success"`
	Message    string                  `json:"message,omitempty"`
	SessionID  string                  `json:"session_id,omitempty"`
	Outcome    submission.Outcome      `json:"outcome"`
	StatusCode int                     `json:"status_code,omitempty"`
	Error      string                  `json:"error,omitempty"`
	Errors     []submission.FieldError `json:"errors,omitempty"`
}

// newSubmitCmd runs one submission through the same service the HTTP API
// uses. Operators use it to check a webhook end to end.
func newSubmitCmd(load func() (*config.Config, error)) *cobra.Command {
	var email, articleURL string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Forward a single submission to the configured webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			app, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("build application: %w", err)
			}
			defer func() { _ = app.Close(cmd.Context()) }()

			result, subErr := app.Service().Submit(cmd.Context(), submission.Submission{
				Email:      email,
				ArticleURL: articleURL,
			})
			out := submitOutput{
				Success:    result.Success,
				Message:    result.Message,
				SessionID:  result.SessionID,
				Outcome:    result.Outcome,
				StatusCode: result.StatusCode,
			}
			if subErr != nil {
				out.Error = subErr.Error()
				var verr *submission.ValidationError
				if errors.As(subErr, &verr) {
					out.Errors = verr.Fields
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			if subErr != nil {
				return fmt.Errorf("submission failed: %w", subErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "recipient email address")
	cmd.Flags().StringVar(&articleURL, "url", "", "article URL to summarize")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}
