package authgate

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/smtp"

	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
)

// SMTPMailer delivers HTML mail over authenticated SMTP. Construct it
// once at process start and inject it where needed.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	logger   Logger
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(host, port, username, password string, logger Logger) *SMTPMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		logger:   logger,
	}
}

// Send delivers a single HTML message. net/smtp carries no context, so
// cancellation is only honored before the dial.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled before mail delivery")
	default:
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.username)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	if err := smtp.SendMail(m.host+":"+m.port, auth, m.username, []string{to}, msg.Bytes()); err != nil {
		m.logger.Error("SMTP delivery failed", "to", to, "error", err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to deliver mail")
	}

	return nil
}

// OTPEmailRenderer renders the one-time code mail body from the views
// directory.
type OTPEmailRenderer struct {
	engine *django.Engine
}

func NewOTPEmailRenderer(dir string) (*OTPEmailRenderer, error) {
	engine := django.New(dir, ".html")
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load mail templates")
	}
	return &OTPEmailRenderer{engine: engine}, nil
}

// Render produces the HTML body for the given code.
func (r *OTPEmailRenderer) Render(code string) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Render(&buf, "otp_email", map[string]any{"otp": code}); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render mail template")
	}
	return buf.String(), nil
}
