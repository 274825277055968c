// File: /services/email_service.go
package services

import (
	"fmt"
	"html"
	"log/slog"

	"gopkg.in/gomail.v2"
	"raceday-api/config"
	"raceday-api/models"
)

// Mailer delivers account and registration notifications
type Mailer interface {
	SendWelcomeEmail(runner models.Runner) error
	SendRegistrationConfirmation(runner models.Runner, event models.Event, distance models.Distance) error
}

// messageSender is the part of gomail.Dialer the service needs
type messageSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailService struct {
	config *config.Config
	sender messageSender
	logger *slog.Logger
}

func NewEmailService(cfg *config.Config, logger *slog.Logger) *EmailService {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	return newEmailService(cfg, dialer, logger)
}

func newEmailService(cfg *config.Config, sender messageSender, logger *slog.Logger) *EmailService {
	return &EmailService{
		config: cfg,
		sender: sender,
		logger: logger,
	}
}

func (es *EmailService) newMessage(to, subject string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(es.config.FromEmail, es.config.FromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	return m
}

func (es *EmailService) SendWelcomeEmail(runner models.Runner) error {
	if runner.Email == "" {
		return nil
	}

	m := es.newMessage(runner.Email, "Welcome to Raceday")

	textBody := fmt.Sprintf(`Hello %s!

Your runner account "%s" is ready. Browse upcoming races and register for a distance.

See you at the start line!
The Raceday Team
`, runner.FirstName, runner.Username)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
    <h2>Hello %s!</h2>
    <p>Your runner account <strong>%s</strong> is ready. Browse upcoming races and register for a distance.</p>
    <p>See you at the start line!<br><strong>The Raceday Team</strong></p>
</body>
</html>`, html.EscapeString(runner.FirstName), html.EscapeString(runner.Username))

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := es.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	es.logger.Info("Welcome email sent", slog.Uint64("runner_id", uint64(runner.ID)))
	return nil
}

func (es *EmailService) SendRegistrationConfirmation(runner models.Runner, event models.Event, distance models.Distance) error {
	if runner.Email == "" {
		return nil
	}

	m := es.newMessage(runner.Email, fmt.Sprintf("You are registered: %s", event.Name))
	start := event.StartDatetime.UTC().Format("Mon, 02 Jan 2006 15:04 MST")

	textBody := fmt.Sprintf(`Hello %s!

You are registered for %s.

Distance: %s
Start:    %s
Location: %s
Organiser: %s

You can change your distance or cancel from "My registrations".

The Raceday Team
`, runner.FirstName, event.Name, distance, start, event.Location, event.Organiser)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
    <h2>Hello %s!</h2>
    <p>You are registered for <strong>%s</strong>.</p>
    <table>
        <tr><td>Distance</td><td>%s</td></tr>
        <tr><td>Start</td><td>%s</td></tr>
        <tr><td>Location</td><td>%s</td></tr>
        <tr><td>Organiser</td><td>%s</td></tr>
    </table>
    <p>You can change your distance or cancel from "My registrations".</p>
    <p><strong>The Raceday Team</strong></p>
</body>
</html>`,
		html.EscapeString(runner.FirstName),
		html.EscapeString(event.Name),
		html.EscapeString(distance.String()),
		start,
		html.EscapeString(event.Location),
		html.EscapeString(event.Organiser),
	)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := es.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send registration confirmation: %w", err)
	}

	es.logger.Info("Registration confirmation sent",
		slog.Uint64("runner_id", uint64(runner.ID)),
		slog.Uint64("event_id", uint64(event.ID)),
	)
	return nil
}

// LogMailer stands in when no SMTP relay is configured
type LogMailer struct {
	Logger *slog.Logger
}

func (l LogMailer) SendWelcomeEmail(runner models.Runner) error {
	l.Logger.Debug("Mail disabled, skipping welcome email", slog.String("username", runner.Username))
	return nil
}

func (l LogMailer) SendRegistrationConfirmation(runner models.Runner, event models.Event, _ models.Distance) error {
	l.Logger.Debug("Mail disabled, skipping registration confirmation",
		slog.String("username", runner.Username),
		slog.Uint64("event_id", uint64(event.ID)),
	)
	return nil
}
