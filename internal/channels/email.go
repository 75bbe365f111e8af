package channels

import (
	"fmt"

	"github.com/chronos-ua/chronos-backend/internal/config"
	"github.com/chronos-ua/chronos-backend/internal/template"
	"gopkg.in/gomail.v2"
)

// EmailService sends notification and invite mail over SMTP.
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &EmailService{
		dialer: d,
		from:   fmt.Sprintf("\"Chronos\" <%s>", from),
	}
}

// SendGenericNotification delivers the templated notification mail used by
// the dispatcher and by e-mail reminders.
func (e *EmailService) SendGenericNotification(to, title, message, url string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", title)
	m.SetBody("text/html", template.GenericNotification(title, message, url))

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send notification e-mail to %s: %w", to, err)
	}
	return nil
}

func (e *EmailService) SendEventInvite(to, eventTitle, inviteeName string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("You're invited to %q", eventTitle))
	m.SetBody("text/html", template.EventInvite(eventTitle, inviteeName))

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send event invite to %s: %w", to, err)
	}
	return nil
}

func (e *EmailService) SendCalendarInvite(to, calendarTitle, inviteeName string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("You're invited to join the calendar %q", calendarTitle))
	m.SetBody("text/html", template.CalendarInvite(calendarTitle, inviteeName))

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send calendar invite to %s: %w", to, err)
	}
	return nil
}
