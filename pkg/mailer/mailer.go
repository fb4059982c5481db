// Package mailer sends transactional email through Resend.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ImportSummary carries the fields the completion email renders.
type ImportSummary struct {
	FileName string
	Status   string
	Imported int
	Failed   int
}

// Mailer sends pipeline notifications.
type Mailer interface {
	SendImportCompleted(ctx context.Context, to string, summary ImportSummary) error
}

// ResendMailer implements Mailer on the Resend API. With no API key the
// client stays nil and sends become logged no-ops, so callers never need to
// special-case an unconfigured mailer.
type ResendMailer struct {
	client    *resend.Client
	fromEmail string
	logger    *slog.Logger
}

// New creates a ResendMailer. apiKey may be empty.
func New(apiKey, fromEmail string, logger *slog.Logger) *ResendMailer {
	var client *resend.Client
	if apiKey != "" {
		client = resend.NewClient(apiKey)
	}
	if fromEmail == "" {
		fromEmail = "Pocket Ledger <imports@pocket-ledger.app>"
	}

	return &ResendMailer{
		client:    client,
		fromEmail: fromEmail,
		logger:    logger,
	}
}

// SendImportCompleted tells the uploader how their statement import ended.
func (m *ResendMailer) SendImportCompleted(ctx context.Context, to string, summary ImportSummary) error {
	if m.client == nil {
		m.logger.Warn("resend client not configured, skipping import completion email")
		return nil
	}
	if to == "" {
		return nil
	}

	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
  <style>
    body { background-color: #f6f8fa; font-family: -apple-system, 'Segoe UI', sans-serif; margin: 0; padding: 40px 0; }
    .container { background-color: #ffffff; border: 1px solid #d8dee4; border-radius: 12px; padding: 40px; max-width: 480px; margin: 0 auto; }
    .topLabel { color: #0969da; font-size: 12px; font-weight: 700; letter-spacing: 2px; text-align: center; }
    h1 { color: #1f2328; font-size: 24px; font-weight: 800; text-align: center; margin: 20px 0; }
    .text { color: #57606a; font-size: 15px; line-height: 22px; text-align: center; }
    .stats { background: #f6f8fa; border-radius: 8px; padding: 20px; margin: 30px 0; text-align: center; }
    .statLabel { color: #8c959f; font-size: 10px; font-weight: 700; letter-spacing: 1px; }
    .statNumber { color: #1f2328; font-size: 36px; font-weight: 800; margin: 10px 0; }
    .footer { color: #8c959f; font-size: 12px; text-align: center; margin-top: 30px; }
  </style>
</head>
<body>
  <div class="container">
    <p class="topLabel">IMPORT %s</p>
    <h1>%s has finished processing.</h1>
    <p class="text">Your statement import is done. Here is how it went.</p>
    <div class="stats">
      <p class="statLabel">TRANSACTIONS IMPORTED</p>
      <p class="statNumber">%d</p>
      <p class="statLabel">SKIPPED</p>
      <p class="statNumber">%d</p>
    </div>
    <p class="footer">Open Pocket Ledger to review the imported transactions.</p>
  </div>
</body>
</html>
`, summary.Status, summary.FileName, summary.Imported, summary.Failed)

	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.fromEmail,
		To:      []string{to},
		Subject: fmt.Sprintf("Your import of %s is %s", summary.FileName, summary.Status),
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to send import completion email: %w", err)
	}
	return nil
}

var _ Mailer = (*ResendMailer)(nil)
