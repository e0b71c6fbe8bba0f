// Package mailer relays contact-form submissions to the department support
// address over SMTP. Delivery is synchronous and never retried; a failure
// surfaces directly to the caller.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	mail "github.com/wneessen/go-mail"

	"github.com/cscinfonest/portal-api/pkg/config"
)

// ContactMessage is the payload of a contact/support submission.
type ContactMessage struct {
	Name        string
	Email       string
	Message     string
	StudentID   string
	Priority    string
	Category    string
	PhoneNumber string
	Subject     string
}

var contactTemplate = template.Must(template.New("contact").Parse(`
<h2>Contact Form Submission</h2>
<table style="border-collapse: collapse; width: 100%;">
  <tr><td style="padding: 8px; border: 1px solid #ddd;"><strong>Name:</strong></td><td style="padding: 8px; border: 1px solid #ddd;">{{.Name}}</td></tr>
  <tr><td style="padding: 8px; border: 1px solid #ddd;"><strong>Email:</strong></td><td style="padding: 8px; border: 1px solid #ddd;">{{.Email}}</td></tr>
  <tr><td style="padding: 8px; border: 1px solid #ddd;"><strong>Phone Number:</strong></td><td style="padding: 8px; border: 1px solid #ddd;">{{if .PhoneNumber}}{{.PhoneNumber}}{{else}}N/A{{end}}</td></tr>
  <tr><td style="padding: 8px; border: 1px solid #ddd;"><strong>Student ID:</strong></td><td style="padding: 8px; border: 1px solid #ddd;">{{if .StudentID}}{{.StudentID}}{{else}}N/A{{end}}</td></tr>
  <tr><td style="padding: 8px; border: 1px solid #ddd;"><strong>Priority:</strong></td><td style="padding: 8px; border: 1px solid #ddd;">{{if .Priority}}{{.Priority}}{{else}}N/A{{end}}</td></tr>
  <tr><td style="padding: 8px; border: 1px solid #ddd;"><strong>Category:</strong></td><td style="padding: 8px; border: 1px solid #ddd;">{{if .Category}}{{.Category}}{{else}}N/A{{end}}</td></tr>
  <tr><td style="padding: 8px; border: 1px solid #ddd;"><strong>Subject:</strong></td><td style="padding: 8px; border: 1px solid #ddd;">{{if .Subject}}{{.Subject}}{{else}}N/A{{end}}</td></tr>
</table>
<h3>Message:</h3>
<p style="white-space: pre-line;">{{.Message}}</p>
`))

// Mailer sends portal emails through a configured SMTP relay.
type Mailer struct {
	cfg config.MailConfig
}

// New constructs a Mailer.
func New(cfg config.MailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendContactMessage renders the submission as an HTML email and delivers it
// to the support address.
func (m *Mailer) SendContactMessage(ctx context.Context, msg ContactMessage) error {
	body := &bytes.Buffer{}
	if err := contactTemplate.Execute(body, msg); err != nil {
		return fmt.Errorf("mailer: render contact email: %w", err)
	}

	subject := msg.Subject
	if subject == "" {
		subject = "No Subject"
	}

	email := mail.NewMsg()
	if err := email.From(m.cfg.FromAddress); err != nil {
		return fmt.Errorf("mailer: set from address: %w", err)
	}
	if err := email.To(m.cfg.SupportAddr); err != nil {
		return fmt.Errorf("mailer: set support address: %w", err)
	}
	if msg.Email != "" {
		if err := email.ReplyTo(msg.Email); err != nil {
			return fmt.Errorf("mailer: set reply-to address: %w", err)
		}
	}
	email.Subject(fmt.Sprintf("CSCInfoNest Contact Form: %s", subject))
	email.SetBodyString(mail.TypeTextHTML, body.String())

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("mailer: build smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, email); err != nil {
		return fmt.Errorf("mailer: send contact email: %w", err)
	}
	return nil
}
