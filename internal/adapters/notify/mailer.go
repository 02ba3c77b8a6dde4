// Package notify delivers error notifications to the operators configured
// for the tenant.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/smtp"
	"strings"

	"suritec/ms_facturasend_connector/internal/infrastructure/config"
)

// Mailer sends error notifications by SMTP. It satisfies the submitter's
// Notifier interface.
type Mailer struct {
	cfg        config.SMTPSettings
	recipients []string
	log        *slog.Logger

	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates an SMTP notifier for the given recipients.
func NewMailer(cfg config.SMTPSettings, recipients []string, log *slog.Logger) *Mailer {
	return &Mailer{
		cfg:        cfg,
		recipients: recipients,
		log:        log,
		send:       smtp.SendMail,
	}
}

// NotifyError emails the configured recipients about a failed batch
// submission. Missing SMTP configuration or an empty recipient list is not
// an error: notification is best effort.
func (m *Mailer) NotifyError(ctx context.Context, documents []string, errMsg string) error {
	if m.cfg.Host == "" || len(m.recipients) == 0 {
		m.log.Debug("notificación omitida: SMTP no configurado")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := m.buildMessage(documents, errMsg)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, m.recipients, msg); err != nil {
		return fmt.Errorf("enviando notificación de error: %w", err)
	}

	m.log.Info("notificación de error enviada",
		"destinatarios", len(m.recipients),
		"documentos", len(documents),
	)
	return nil
}

func (m *Mailer) buildMessage(documents []string, errMsg string) []byte {
	var body strings.Builder
	body.WriteString("<h3>Error al enviar documentos a FacturaSend</h3>")
	body.WriteString("<p><strong>Error:</strong> ")
	body.WriteString(html.EscapeString(errMsg))
	body.WriteString("</p>")
	if len(documents) > 0 {
		body.WriteString("<p><strong>Documentos afectados:</strong></p><ul>")
		for _, name := range documents {
			body.WriteString("<li>")
			body.WriteString(html.EscapeString(name))
			body.WriteString("</li>")
		}
		body.WriteString("</ul>")
	}
	body.WriteString("<p>Revise el registro de lotes para más detalle.</p>")

	headers := []string{
		"From: " + m.cfg.From,
		"To: " + strings.Join(m.recipients, ", "),
		"Subject: Error de envío a FacturaSend",
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body.String())
}
