package notifier

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type EmailNotifier struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Logger   *slog.Logger
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now      func() time.Time
}

var _ Notifier = &EmailNotifier{}

func NewEmailNotifier(host string, port int, username, password, from string, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		Logger:   logger,
		send:     smtp.SendMail,
		now:      time.Now,
	}
}

func (e *EmailNotifier) Notify(ctx context.Context, msg Message) error {
	to := msg.Recipients.Email
	if len(to) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if e.Username != "" {
		auth = smtp.PlainAuth("", e.Username, e.Password, e.Host)
	}
	e.Logger.Debug("sending email", "to", strings.Join(to, ","), "subject", msg.Title)
	addr := net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
	if err := e.send(addr, auth, e.From, to, e.compose(to, msg)); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

func (e *EmailNotifier) compose(to []string, msg Message) []byte {
	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "From: %s\r\n", e.From)
	_, _ = fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	_, _ = fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Title))
	_, _ = fmt.Fprintf(&buf, "Date: %s\r\n", e.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(msg.Text, "\n", "\r\n"))
	buf.WriteString("\r\n")
	return buf.Bytes()
}
