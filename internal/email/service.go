package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/jwalitptl/hms-api/internal/model"
)

// Service sends patient-facing notification mail. Delivery is best effort;
// callers log failures and move on.
type Service interface {
	SendBookingConfirmation(ctx context.Context, to string, appointment *model.Appointment) error
	SendCancellation(ctx context.Context, to string, appointment *model.Appointment) error
}

type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	Enabled  bool   `mapstructure:"enabled"`
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg Config) Service {
	if !cfg.Enabled {
		return noopService{}
	}
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendBookingConfirmation(ctx context.Context, to string, appointment *model.Appointment) error {
	subject := "Appointment confirmed"
	body := fmt.Sprintf(
		"Your appointment on %s at %s has been booked.",
		appointment.Date.Format(model.DateOnly), appointment.Time,
	)
	return s.send(to, subject, body)
}

func (s *smtpService) SendCancellation(ctx context.Context, to string, appointment *model.Appointment) error {
	subject := "Appointment cancelled"
	body := fmt.Sprintf(
		"Your appointment on %s at %s has been cancelled.",
		appointment.Date.Format(model.DateOnly), appointment.Time,
	)
	return s.send(to, subject, body)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// noopService stands in when mail is disabled in config.
type noopService struct{}

func (noopService) SendBookingConfirmation(context.Context, string, *model.Appointment) error {
	return nil
}

func (noopService) SendCancellation(context.Context, string, *model.Appointment) error {
	return nil
}
