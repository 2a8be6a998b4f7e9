package utils

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"coursehub/services"
)

const sendPath = "/v3/mail/send"

type MailConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// To receives one mail per course completion.
	To string
	// BaseURL overrides https://api.sendgrid.com.
	BaseURL string
}

// MailNotifier mails a certificate notice through SendGrid.
type MailNotifier struct {
	cfg MailConfig
}

func NewMailNotifier(cfg MailConfig) (*MailNotifier, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if strings.TrimSpace(cfg.To) == "" {
		return nil, fmt.Errorf("missing COMPLETION_MAIL_TO")
	}
	if cfg.FromName == "" {
		cfg.FromName = "CourseHub"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &MailNotifier{cfg: cfg}, nil
}

func (m *MailNotifier) CourseCompleted(ctx context.Context, event services.CompletionEvent) error {
	subject := "Course Completion Certificate - " + event.CourseTitle
	message := mail.NewSingleEmail(
		mail.NewEmail(m.cfg.FromName, m.cfg.FromEmail),
		subject,
		mail.NewEmail("", m.cfg.To),
		certificatePlainText(event),
		getEmailTemplate("Certificate of Completion", certificateBody(event)),
	)

	// The send client keeps the body on itself, so one per message.
	client := sendgrid.NewSendClient(m.cfg.APIKey)
	if m.cfg.BaseURL != "" {
		client.BaseURL = m.cfg.BaseURL + sendPath
	}
	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send certificate mail for %s: %w", event.CertificateNumber, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status=%d body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}

func certificatePlainText(event services.CompletionEvent) string {
	return fmt.Sprintf("Student %s completed %s on %s. Certificate number: %s.",
		event.UserID, event.CourseTitle, event.CompletedAt.Format("January 2, 2006"), event.CertificateNumber)
}

func certificateBody(event services.CompletionEvent) string {
	return fmt.Sprintf(`
		<p>Student <strong>%s</strong> has completed the course:</p>
		<h3>%s</h3>
		<div class="info-box">
			<p>Certificate Number:</p>
			<h2>%s</h2>
			<p>Issued %s</p>
		</div>
		<p>The certificate can be verified with this number.</p>
	`, event.UserID, event.CourseTitle, event.CertificateNumber, event.CompletedAt.Format("January 2, 2006"))
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1F3A5F; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1F3A5F; line-height: 1.6; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #4CAF50; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>COURSEHUB</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				This is an automated message.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}
