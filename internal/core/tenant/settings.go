// Package tenant holds the FacturaSend tenant configuration. The value is
// resolved once at startup and passed explicitly into every component that
// needs it; there is no ambient lookup.
package tenant

import "time"

// Settings is the per-tenant FacturaSend configuration.
type Settings struct {
	BaseURL  string
	TenantID string
	APIKey   string

	// Defaults used when a document series does not encode them.
	Establecimiento string
	PuntoExpedicion string

	MaxRetries          int
	StatusCheckInterval time.Duration
	PollBatchLimit      int
	APITimeout          time.Duration

	NotifyOnError      bool
	NotificationEmails []string
}
