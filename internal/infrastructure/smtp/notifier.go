package smtp

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/go-employee-api/internal/config"
	"github.com/go-employee-api/internal/domain"
	"github.com/samber/oops"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Notifier delivers mail through an SMTP relay.
type Notifier struct {
	host     string
	port     string
	from     string
	username string
	password string
	send     sendFunc
}

func NewNotifier(cfg *config.Config) *Notifier {
	return &Notifier{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		send:     smtp.SendMail,
	}
}

func (n *Notifier) Send(ctx context.Context, m domain.Mail) error {
	if err := ctx.Err(); err != nil {
		return notificationErr(m.To, err)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		n.from, m.To, m.Subject, m.Message)
	addr := fmt.Sprintf("%s:%s", n.host, n.port)

	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}

	if err := n.send(addr, auth, n.from, []string{m.To}, []byte(msg)); err != nil {
		return notificationErr(m.To, err)
	}
	return nil
}

func notificationErr(to string, err error) error {
	return oops.Code("MAIL_SEND_FAILED").
		With("backend", "smtp").
		With("to", to).
		Wrap(fmt.Errorf("%w: %w", domain.ErrNotificationFailed, err))
}

var _ domain.Notifier = (*Notifier)(nil)
