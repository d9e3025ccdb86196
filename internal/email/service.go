package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/wardline/ward-api/internal/config"
)

// Service sends operational notices to ward staff. Implementations must
// be safe for concurrent use.
type Service interface {
	SendAdmissionNotice(ctx context.Context, to, tenantID, bedID string) error
	SendDischargeNotice(ctx context.Context, to, tenantID, assignmentID string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendAdmissionNotice(ctx context.Context, to, tenantID, bedID string) error {
	subject := fmt.Sprintf("[%s] bed %s occupied", tenantID, bedID)
	body := fmt.Sprintf("A patient was admitted to bed %s.", bedID)
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) SendDischargeNotice(ctx context.Context, to, tenantID, assignmentID string) error {
	subject := fmt.Sprintf("[%s] assignment %s closed", tenantID, assignmentID)
	body := fmt.Sprintf("Assignment %s was discharged; the bed is being turned over.", assignmentID)
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NoopService is used when SMTP is not configured.
type NoopService struct{}

func (NoopService) SendAdmissionNotice(ctx context.Context, to, tenantID, bedID string) error {
	return nil
}

func (NoopService) SendDischargeNotice(ctx context.Context, to, tenantID, assignmentID string) error {
	return nil
}
