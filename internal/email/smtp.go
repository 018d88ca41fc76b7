package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"visitops_backend/platform/config"
)

// SMTPSender delivers alerts over the configured SMTP server via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	alertTo   string
}

// NewSMTPSender builds a sender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		alertTo:   cfg.GetOpsAlertEmail(),
	}
}

func (s *SMTPSender) SendIncidentAlert(ctx context.Context, incidentID, brokerID, dueAt string) error {
	subject := fmt.Sprintf("Emergency cancellation incident %s needs RM review", incidentID)
	body := fmt.Sprintf(
		"Broker %s cancelled a slot on short notice claiming an emergency.\n\n"+
			"Incident: %s\nReview due: %s\n\n"+
			"Approve or reject the claim before the deadline or it escalates to the SRM queue.",
		brokerID, incidentID, dueAt)
	return s.send(ctx, subject, body)
}

func (s *SMTPSender) SendEscalationAlert(ctx context.Context, incidentID, brokerID, dueAt string) error {
	subject := fmt.Sprintf("Incident %s escalated to SRM review", incidentID)
	body := fmt.Sprintf(
		"Incident %s for broker %s passed its RM deadline without a decision.\n\n"+
			"SRM review due: %s",
		incidentID, brokerID, dueAt)
	return s.send(ctx, subject, body)
}

func (s *SMTPSender) send(ctx context.Context, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(s.alertTo); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

var _ Sender = (*SMTPSender)(nil)
