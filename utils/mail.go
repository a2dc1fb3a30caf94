package utils

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"

	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type EmailData struct {
	Name     string
	Message  string
	OrderID  string
	Total    string
	OrderURL string
	LogoURL  string
}

type SMTPConfig struct {
	From     string
	Password string
	Host     string
	// Address is host:port of the SMTP server.
	Address     string
	FrontendURL string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends transactional email through an authenticated SMTP relay.
type Mailer struct {
	cfg  SMTPConfig
	send sendFunc
}

func NewMailer(cfg SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, to, name, orderID, total string) error {
	data := EmailData{
		Name:     name,
		Message:  "Your payment has been received and your order is being prepared.",
		OrderID:  orderID,
		Total:    total,
		OrderURL: m.cfg.FrontendURL + "/orders/" + url.PathEscape(orderID),
		LogoURL:  "https://www.amexan.store/images/logo.jpg",
	}
	return m.SendEmail(ctx, to, "Order Confirmed", data, "order_confirmation.html")
}

func (m *Mailer) SendEmail(ctx context.Context, emailTo string, emailSubject string, data EmailData, templateName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return errors.Wrap(err, "template execution error")
	}

	message := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
		m.cfg.From,
		emailTo,
		emailSubject,
		body.String(),
	)

	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)
	if err := m.send(m.cfg.Address, auth, m.cfg.From, []string{emailTo}, []byte(message)); err != nil {
		return errors.Wrap(err, "failed to send email")
	}
	return nil
}
