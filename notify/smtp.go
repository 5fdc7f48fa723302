package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

type SMTPSender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Send delivers msg over one SMTP session. The dial and the whole exchange
// honour ctx's deadline.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if s.Host == "" || s.Port == "" || s.From == "" {
		return fmt.Errorf("SMTP not configured")
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(s.Host, s.Port))
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
			return err
		}
	}
	if s.Username != "" && s.Password != "" {
		if err := c.Auth(smtp.PlainAuth("", s.Username, s.Password, s.Host)); err != nil {
			return err
		}
	}

	if err := c.Mail(s.From); err != nil {
		return err
	}
	for _, rcpt := range msg.To {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(s.render(msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// headerSafe drops line breaks so values taken from company or applicant
// data cannot start a new header.
var headerSafe = strings.NewReplacer("\r", "", "\n", "")

func (s *SMTPSender) render(msg Message) []byte {
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n",
		headerSafe.Replace(s.From), headerSafe.Replace(strings.Join(msg.To, ", ")), headerSafe.Replace(msg.Subject))
	return []byte(headers + strings.ReplaceAll(msg.Body, "\n", "\r\n"))
}
