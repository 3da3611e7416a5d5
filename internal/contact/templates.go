package contact

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

var contactFormEmailTmpl = template.Must(template.New("contact-form-email").Parse(`<!DOCTYPE html>
<html>
<body style="background-color:#f3f4f6;font-family:sans-serif;">
  <div style="background-color:#ffffff;padding:32px;border-radius:8px;margin:32px auto;max-width:576px;">
    <h1 style="font-size:20px;font-weight:bold;text-align:center;color:#1f2937;">New Contact Form Submission</h1>
    <div style="background-color:#eff6ff;border-left:4px solid #3b82f6;padding:16px;border-radius:4px;">
      <p style="font-weight:bold;color:#1f2937;">Subject: {{.Subject}}</p>
      <p style="color:#4b5563;font-size:14px;">Received on {{.ReceivedAt}}</p>
    </div>
    <p style="color:#1f2937;font-weight:bold;">From:</p>
    <p style="color:#4b5563;">{{.Name}} &lt;{{.Email}}&gt;</p>
    <p style="color:#1f2937;font-weight:bold;">Message:</p>
    <p style="color:#4b5563;white-space:pre-line;">{{.Message}}</p>
  </div>
</body>
</html>`))

var contactConfirmationTmpl = template.Must(template.New("contact-form-confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="background-color:#f3f4f6;font-family:sans-serif;">
  <div style="background-color:#ffffff;padding:32px;border-radius:8px;margin:32px auto;max-width:576px;">
    <h1 style="font-size:20px;font-weight:bold;text-align:center;color:#1f2937;">Thank You for Reaching Out!</h1>
    <p style="color:#374151;">Hello {{.Name}},</p>
    <p style="color:#374151;">I've received your message and appreciate you taking the time to get in touch.
    I'll review your message and get back to you as soon as possible, typically within 24-48 hours.</p>
    <p style="color:#374151;">Best regards,<br>{{.FromName}}</p>
  </div>
</body>
</html>`))

var newsletterWelcomeTmpl = template.Must(template.New("newsletter-subscription").Parse(`<!DOCTYPE html>
<html>
<body style="background-color:#f3f4f6;font-family:sans-serif;">
  <div style="background-color:#ffffff;padding:32px;border-radius:8px;margin:32px auto;max-width:576px;">
    <h1 style="font-size:20px;font-weight:bold;text-align:center;color:#1f2937;">Welcome to My Newsletter!</h1>
    <p style="color:#374151;">Hello there,</p>
    <p style="color:#374151;">Thank you for subscribing to my newsletter with {{.Email}}!
    You'll now receive updates about my latest projects, tech insights, and career developments.</p>
    <p style="color:#374151;">Best regards,<br>{{.FromName}}</p>
  </div>
</body>
</html>`))

func renderContactFormEmail(msg ContactMessage, receivedAt time.Time) (string, error) {
	return renderTemplate(contactFormEmailTmpl, struct {
		ContactMessage
		ReceivedAt string
	}{
		ContactMessage: msg,
		ReceivedAt:     receivedAt.Format("2 January 2006 at 15:04"),
	})
}

func renderContactConfirmation(name, fromName string) (string, error) {
	return renderTemplate(contactConfirmationTmpl, struct {
		Name     string
		FromName string
	}{Name: name, FromName: fromName})
}

func renderNewsletterWelcome(email, fromName string) (string, error) {
	return renderTemplate(newsletterWelcomeTmpl, struct {
		Email    string
		FromName string
	}{Email: email, FromName: fromName})
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}
