package delivery

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/oharel/talush/internal/config"
)

// SMTPMailer sends messages through an authenticated STARTTLS session.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	mm := mail.NewMsg()

	if err := mm.FromFormat(m.cfg.SenderName, m.cfg.Sender()); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := mm.To(msg.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	mm.AttachFile(msg.AttachmentPath, mail.WithFileName(msg.AttachmentName))

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, mm); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// DisabledMailer fails every send. It stands in when no SMTP credentials
// are configured, so splitting still works and every delivery is recorded
// as failed instead of silently dropped.
func DisabledMailer() Mailer {
	return disabledMailer{}
}

type disabledMailer struct{}

func (disabledMailer) Send(ctx context.Context, msg Message) error {
	return fmt.Errorf("smtp is not configured")
}
