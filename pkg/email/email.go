package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"securechain-api/config"

	"gopkg.in/gomail.v2"
)

// Sender delivers prepared messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService sends team notifications for accepted submissions via SMTP
type EmailService struct {
	host      string
	username  string
	password  string
	fromEmail string
	toEmail   string
	sender    Sender
}

// ContactEmailData holds the data for contact form notifications
type ContactEmailData struct {
	SubmissionID string
	SenderName   string
	SenderEmail  string
	Subject      string
	Message      string
	SubmittedAt  string
}

// AuditRequestEmailData holds the data for audit request notifications
type AuditRequestEmailData struct {
	SubmissionID   string
	ProjectName    string
	SenderEmail    string
	Telegram       string
	Chain          string
	GitHub         string
	Timeline       string
	Budget         string
	Description    string
	AttachmentName string
	AttachmentURL  string
	SubmittedAt    string
}

// NewEmailService creates a new email service from the SMTP configuration
func NewEmailService(cfg *config.Config) *EmailService {
	port, err := strconv.Atoi(cfg.SMTPPort)
	if err != nil {
		port = 587
	}
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUsername
	}
	return &EmailService{
		host:      cfg.SMTPHost,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		fromEmail: from,
		toEmail:   cfg.NotifyEmailTo,
		sender:    gomail.NewDialer(cfg.SMTPHost, port, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

// WithSender replaces the SMTP dialer
func (s *EmailService) WithSender(sender Sender) *EmailService {
	s.sender = sender
	return s
}

const layoutStyle = `
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #1f2933; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0b1f3a; color: #7cf3d5; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f5f7fa; }
        .field { margin-bottom: 15px; }
        .label { font-weight: bold; color: #52606d; }
        .value { margin-top: 5px; }
        .message-box { background: white; padding: 15px; border-left: 4px solid #14b8a6; margin-top: 10px; white-space: pre-wrap; }
        .footer { text-align: center; padding: 20px; color: #9aa5b1; font-size: 12px; }`

var contactTemplate = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Contact Message</title>
    <style>` + layoutStyle + `
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>New Contact Message</h1>
        </div>
        <div class="content">
            <div class="field">
                <div class="label">From:</div>
                <div class="value">{{.SenderName}} ({{.SenderEmail}})</div>
            </div>
            <div class="field">
                <div class="label">Subject:</div>
                <div class="value">{{.Subject}}</div>
            </div>
            <div class="field">
                <div class="label">Message:</div>
                <div class="message-box">{{.Message}}</div>
            </div>
        </div>
        <div class="footer">
            <p>Submission {{.SubmissionID}} received at {{.SubmittedAt}}.</p>
            <p>To reply, send an email to: {{.SenderEmail}}</p>
        </div>
    </div>
</body>
</html>`))

var auditRequestTemplate = template.Must(template.New("audit_request").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Audit Request</title>
    <style>` + layoutStyle + `
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>New Audit Request: {{.ProjectName}}</h1>
        </div>
        <div class="content">
            <div class="field">
                <div class="label">Contact:</div>
                <div class="value">{{.SenderEmail}}{{if .Telegram}} / Telegram {{.Telegram}}{{end}}</div>
            </div>
            <div class="field">
                <div class="label">Chain:</div>
                <div class="value">{{.Chain}}</div>
            </div>
            {{if .GitHub}}<div class="field">
                <div class="label">Repository:</div>
                <div class="value"><a href="{{.GitHub}}">{{.GitHub}}</a></div>
            </div>{{end}}
            {{if .Timeline}}<div class="field">
                <div class="label">Timeline:</div>
                <div class="value">{{.Timeline}}</div>
            </div>{{end}}
            {{if .Budget}}<div class="field">
                <div class="label">Budget:</div>
                <div class="value">{{.Budget}}</div>
            </div>{{end}}
            <div class="field">
                <div class="label">Description:</div>
                <div class="message-box">{{.Description}}</div>
            </div>
            {{if .AttachmentURL}}<div class="field">
                <div class="label">Documentation:</div>
                <div class="value"><a href="{{.AttachmentURL}}">{{.AttachmentName}}</a></div>
            </div>{{end}}
        </div>
        <div class="footer">
            <p>Submission {{.SubmissionID}} received at {{.SubmittedAt}}.</p>
        </div>
    </div>
</body>
</html>`))

// RenderContact renders the contact notification body
func RenderContact(data ContactEmailData) (string, error) {
	var body bytes.Buffer
	if err := contactTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}

// RenderAuditRequest renders the audit request notification body
func RenderAuditRequest(data AuditRequestEmailData) (string, error) {
	var body bytes.Buffer
	if err := auditRequestTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}

// SendContactEmail notifies the team about a contact message
func (s *EmailService) SendContactEmail(data ContactEmailData) error {
	body, err := RenderContact(data)
	if err != nil {
		return err
	}
	return s.send(fmt.Sprintf("Contact Form: %s", data.Subject), data.SenderEmail, body)
}

// SendAuditRequestEmail notifies the team about an audit request
func (s *EmailService) SendAuditRequestEmail(data AuditRequestEmailData) error {
	body, err := RenderAuditRequest(data)
	if err != nil {
		return err
	}
	return s.send(fmt.Sprintf("Audit Request: %s (%s)", data.ProjectName, data.Chain), data.SenderEmail, body)
}

func (s *EmailService) send(subject, replyTo, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.fromEmail)
	m.SetHeader("To", s.toEmail)
	m.SetHeader("Reply-To", replyTo)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// IsConfigured checks if the email service has valid SMTP configuration
func (s *EmailService) IsConfigured() bool {
	return s.host != "" && s.username != "" && s.password != "" && s.toEmail != ""
}
