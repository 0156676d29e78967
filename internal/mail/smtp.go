package mail

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	netmail "net/mail"
	"net/smtp"
	"strconv"

	"shopie/internal/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPTransport delivers mail through an authenticated SMTP relay using STARTTLS
type SMTPTransport struct {
	addr     string
	auth     smtp.Auth
	from     *netmail.Address
	sendMail sendMailFunc
}

func NewSMTPTransport(cfg config.MailConfig) (*SMTPTransport, error) {
	from, err := netmail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("invalid MAIL_FROM address %q: %w", cfg.From, err)
	}

	return &SMTPTransport{
		addr:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		auth:     smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host),
		from:     from,
		sendMail: smtp.SendMail,
	}, nil
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to, err := netmail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}

	return t.sendMail(t.addr, t.auth, t.from.Address, []string{to.Address}, t.build(to, msg))
}

func (t *SMTPTransport) build(to *netmail.Address, msg Message) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", t.from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", to.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.HTML)
	return buf.Bytes()
}
