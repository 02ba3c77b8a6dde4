package notify

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"suritec/ms_facturasend_connector/internal/infrastructure/config"
	"suritec/ms_facturasend_connector/internal/testutil"
)

func testSMTP() config.SMTPSettings {
	return config.SMTPSettings{
		Host: "smtp.suritec.com.py",
		Port: 587,
		From: "facturacion@suritec.com.py",
	}
}

func TestNotifyError(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	mailer := NewMailer(testSMTP(), []string{"admin@suritec.com.py"}, testutil.NewNullLogger())
	mailer.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotFrom = from
		gotTo = to
		gotMsg = msg
		return nil
	}

	err := mailer.NotifyError(context.Background(), []string{"FC-001-001-0000001"}, "connection refused")
	if err != nil {
		t.Fatalf("NotifyError() error = %v", err)
	}

	if gotAddr != "smtp.suritec.com.py:587" {
		t.Errorf("addr = %q, want host:port", gotAddr)
	}
	if gotFrom != "facturacion@suritec.com.py" {
		t.Errorf("from = %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "admin@suritec.com.py" {
		t.Errorf("to = %v", gotTo)
	}

	msg := string(gotMsg)
	if !strings.Contains(msg, "Subject: Error de envío a FacturaSend") {
		t.Error("message lacks the subject header")
	}
	if !strings.Contains(msg, "FC-001-001-0000001") {
		t.Error("message does not list the affected document")
	}
	if !strings.Contains(msg, "connection refused") {
		t.Error("message does not carry the error text")
	}
}

func TestNotifyErrorEscapesHTML(t *testing.T) {
	var gotMsg []byte
	mailer := NewMailer(testSMTP(), []string{"admin@suritec.com.py"}, testutil.NewNullLogger())
	mailer.send = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = msg
		return nil
	}

	if err := mailer.NotifyError(context.Background(), nil, `error: <script>alert("x")</script>`); err != nil {
		t.Fatalf("NotifyError() error = %v", err)
	}
	if strings.Contains(string(gotMsg), "<script>") {
		t.Error("error text was not HTML-escaped")
	}
}

func TestNotifyErrorSkipsWithoutConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.SMTPSettings
		recipients []string
	}{
		{name: "sin host", cfg: config.SMTPSettings{}, recipients: []string{"admin@suritec.com.py"}},
		{name: "sin destinatarios", cfg: testSMTP()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := NewMailer(tt.cfg, tt.recipients, testutil.NewNullLogger())
			sendCalls := 0
			mailer.send = func(_ string, _ smtp.Auth, _ string, _ []string, _ []byte) error {
				sendCalls++
				return nil
			}

			if err := mailer.NotifyError(context.Background(), nil, "x"); err != nil {
				t.Fatalf("NotifyError() error = %v", err)
			}
			if sendCalls != 0 {
				t.Errorf("send called %d times, want 0", sendCalls)
			}
		})
	}
}
