// Package poller reconciles the state of sent documents against the
// provider. It is the asynchronous half of the submission pipeline: once a
// document is Enviado, only this job moves it to Aprobado or Rechazado.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"suritec/ms_facturasend_connector/internal/application/doclock"
	"suritec/ms_facturasend_connector/internal/core/de"
	"suritec/ms_facturasend_connector/internal/core/document"
	"suritec/ms_facturasend_connector/internal/core/tenant"
	ctxutil "suritec/ms_facturasend_connector/internal/infrastructure/context"
)

// Stats summarizes one poll tick.
type Stats struct {
	Checked   int `json:"consultados"`
	Approved  int `json:"aprobados"`
	Rejected  int `json:"rechazados"`
	Unchanged int `json:"sin_cambio"`
	Failed    int `json:"fallidos"`
}

// Poller periodically queries the provider for documents left in Enviado
// state and advances their local state.
type Poller struct {
	store    document.Store
	provider de.Provider
	locks    *doclock.Set
	limit    int
	interval time.Duration
	log      *slog.Logger
}

// New creates a poller from the tenant settings. locks is the per-document
// lock set shared with the submitter; nil creates a private one.
func New(store document.Store, provider de.Provider, settings tenant.Settings, locks *doclock.Set, log *slog.Logger) *Poller {
	limit := settings.PollBatchLimit
	if limit <= 0 {
		limit = 100
	}
	interval := settings.StatusCheckInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if locks == nil {
		locks = doclock.New()
	}
	return &Poller{
		store:    store,
		provider: provider,
		locks:    locks,
		limit:    limit,
		interval: interval,
		log:      log,
	}
}

// RunOnce executes a single poll tick: it selects a bounded batch of sent
// documents and queries the provider per CDC. Per-document query failures
// are logged and do not block the remaining documents.
func (p *Poller) RunOnce(ctx context.Context) (Stats, error) {
	var stats Stats

	docs, err := p.store.ListSent(ctx, p.limit)
	if err != nil {
		return stats, fmt.Errorf("list sent documents: %w", err)
	}

	for _, doc := range docs {
		stats.Checked++
		p.checkDocument(ctx, doc, &stats)
	}

	p.log.Info("tick de consulta de estados",
		"consultados", stats.Checked,
		"aprobados", stats.Approved,
		"rechazados", stats.Rejected,
		"fallidos", stats.Failed,
	)

	return stats, nil
}

// checkDocument queries the provider for one sent document and applies the
// outcome. The document lock is held for the whole cycle, and the document
// is re-read under it: a submission that reset or resent the document
// between the listing and this check must not receive a stale write.
func (p *Poller) checkDocument(ctx context.Context, doc document.SalesDocument, stats *Stats) {
	unlock := p.locks.LockAll([]string{doc.Name})
	defer unlock()

	current, err := p.store.GetDocument(ctx, doc.Name)
	if err != nil {
		stats.Failed++
		p.log.Warn("no se pudo releer el documento", "documento", doc.Name, "error", err)
		return
	}
	if current.Estado != document.StatusEnviado || current.CDC != doc.CDC {
		stats.Unchanged++
		return
	}

	estado, err := p.provider.GetEstado(ctx, doc.CDC)
	if err != nil {
		stats.Failed++
		p.log.Warn("consulta de estado fallida",
			"documento", doc.Name,
			"cdc", doc.CDC,
			"error", err,
		)
		return
	}

	if err := p.apply(ctx, doc, estado, stats); err != nil {
		stats.Failed++
		p.log.Warn("no se pudo actualizar el documento",
			"documento", doc.Name,
			"error", err,
		)
	}
}

// apply maps the provider status onto the local state machine. Anything
// other than Aprobado or Rechazado leaves the document in Enviado.
func (p *Poller) apply(ctx context.Context, doc document.SalesDocument, estado *de.EstadoResult, stats *Stats) error {
	mensaje := estado.Mensaje
	if mensaje == "" {
		mensaje = estado.EstadoDescripcion
	}

	ann := document.Annotations{MensajeEstado: &mensaje}
	switch estado.Estado {
	case string(document.StatusAprobado):
		status := document.StatusAprobado
		ann.Estado = &status
		stats.Approved++
	case string(document.StatusRechazado):
		status := document.StatusRechazado
		ann.Estado = &status
		stats.Rejected++
	default:
		stats.Unchanged++
	}

	return p.store.UpdateAnnotations(ctx, doc.Name, ann)
}

// Start runs poll ticks at the configured interval until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info("poller de estados iniciado", "intervalo", p.interval, "limite", p.limit)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller de estados detenido")
			return
		case <-ticker.C:
			// Each tick gets its own correlation ID for the provider calls.
			tickCtx := ctxutil.WithCorrelationID(ctx, uuid.NewString())
			if _, err := p.RunOnce(tickCtx); err != nil {
				p.log.Error("tick de consulta de estados fallido", "error", err)
			}
		}
	}
}
