// Package submitter orchestrates batch submission of sales documents to
// FacturaSend: batch validation, per-document filtering, conversion, the
// remote call, and the resulting state transitions and batch log record.
package submitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"suritec/ms_facturasend_connector/internal/application/converter"
	"suritec/ms_facturasend_connector/internal/application/doclock"
	"suritec/ms_facturasend_connector/internal/core/batchlog"
	"suritec/ms_facturasend_connector/internal/core/de"
	"suritec/ms_facturasend_connector/internal/core/document"
	"suritec/ms_facturasend_connector/internal/core/tenant"
)

// maxBatchSize is the provider's hard limit per lote.
const maxBatchSize = 50

// Notifier dispatches error notifications to the configured recipients.
type Notifier interface {
	NotifyError(ctx context.Context, documents []string, errMsg string) error
}

// DocumentError is a per-document failure surfaced in a submit result.
type DocumentError struct {
	Document string `json:"documento"`
	Error    string `json:"error"`
}

// Result is the structured outcome of a submit operation.
type Result struct {
	Success  bool            `json:"success"`
	LoteID   string          `json:"lote_id,omitempty"`
	LogID    int64           `json:"log_id,omitempty"`
	Error    string          `json:"error,omitempty"`
	Detalles []DocumentError `json:"detalles,omitempty"`
}

// Service implements the batch submission use cases.
type Service struct {
	store    document.Store
	provider de.Provider
	logs     batchlog.Repository
	conv     *converter.Converter
	notifier Notifier
	settings tenant.Settings
	log      *slog.Logger
	locks    *doclock.Set
}

// NewService creates a submitter service. notifier may be nil when error
// notifications are disabled. locks is the per-document lock set shared with
// the status poller; nil creates a private one.
func NewService(store document.Store, provider de.Provider, logs batchlog.Repository, notifier Notifier, settings tenant.Settings, locks *doclock.Set, log *slog.Logger) *Service {
	if locks == nil {
		locks = doclock.New()
	}
	return &Service{
		store:    store,
		provider: provider,
		logs:     logs,
		conv:     converter.New(settings),
		notifier: notifier,
		settings: settings,
		log:      log,
		locks:    locks,
	}
}

// SubmitBatch validates, converts and submits the named documents as one
// lote. Validation failures return a *ValidationError before any side
// effect; per-document conversion failures surface in the result without
// failing the batch. Persistence errors propagate as plain errors.
func (s *Service) SubmitBatch(ctx context.Context, names []string) (*Result, error) {
	if len(names) == 0 {
		return nil, errNoDocuments
	}
	if len(names) > maxBatchSize {
		return nil, errTooMany
	}

	unlock := s.locks.LockAll(names)
	defer unlock()

	docs := make([]*document.SalesDocument, 0, len(names))
	for _, name := range names {
		doc, err := s.store.GetDocument(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("get document %s: %w", name, err)
		}
		docs = append(docs, doc)
	}

	tipo := docs[0].Type()
	for _, doc := range docs[1:] {
		if doc.Type() != tipo {
			return nil, errMixedTypes
		}
	}

	var (
		payloads []de.DE
		sent     []*document.SalesDocument
		detalles []DocumentError
	)
	for _, doc := range docs {
		if !doc.Submittable(s.settings.MaxRetries) {
			s.log.Info("documento omitido del lote",
				"documento", doc.Name,
				"estado", doc.Estado,
				"reintentos", doc.Reintentos,
			)
			continue
		}

		payload, err := s.convertDocument(ctx, doc)
		if err != nil {
			s.log.Warn("conversión fallida", "documento", doc.Name, "error", err)
			detalles = append(detalles, DocumentError{Document: doc.Name, Error: err.Error()})
			continue
		}

		payloads = append(payloads, *payload)
		sent = append(sent, doc)
	}

	if len(payloads) == 0 {
		return &Result{
			Success:  false,
			Error:    "no hay documentos válidos para enviar",
			Detalles: detalles,
		}, nil
	}

	lote, err := s.provider.CreateLote(ctx, payloads)
	if err != nil {
		return s.failBatch(ctx, sent, detalles, err)
	}

	loteID := strconv.FormatInt(lote.LoteID, 10)
	now := time.Now()

	logID, err := s.saveBatchLog(ctx, loteID, now, tipo, sent, lote)
	if err != nil {
		return nil, fmt.Errorf("save batch log: %w", err)
	}

	for i, doc := range sent {
		ann := document.Annotations{LoteID: &loteID, FechaEnvio: &now}
		if i < len(lote.DEList) {
			cdc := lote.DEList[i].CDC
			estado := document.StatusEnviado
			mensaje := fmt.Sprintf("Enviado exitosamente. CDC: %s", cdc)
			ann.CDC = &cdc
			ann.Estado = &estado
			ann.MensajeEstado = &mensaje
		} else {
			estado := document.StatusError
			mensaje := "No se recibió respuesta del servidor para este documento"
			reintentos := doc.NextRetryCount()
			ann.Estado = &estado
			ann.MensajeEstado = &mensaje
			ann.Reintentos = &reintentos
		}
		if err := s.store.UpdateAnnotations(ctx, doc.Name, ann); err != nil {
			return nil, fmt.Errorf("update document %s: %w", doc.Name, err)
		}
	}

	s.log.Info("lote enviado",
		"lote_id", loteID,
		"tipo", tipo,
		"enviados", len(sent),
		"fallidos", len(detalles),
	)

	return &Result{
		Success:  true,
		LoteID:   loteID,
		LogID:    logID,
		Detalles: detalles,
	}, nil
}

// convertDocument resolves the referenced ERP records and runs the pure
// converter.
func (s *Service) convertDocument(ctx context.Context, doc *document.SalesDocument) (*de.DE, error) {
	customer, err := s.store.GetCustomer(ctx, doc.Customer)
	if err != nil {
		return nil, fmt.Errorf("get customer %s: %w", doc.Customer, err)
	}

	owner, err := s.store.GetUser(ctx, doc.Owner)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", doc.Owner, err)
	}

	catalog := make(map[string]document.Item, len(doc.Items))
	for _, line := range doc.Items {
		if _, ok := catalog[line.ItemCode]; ok {
			continue
		}
		item, err := s.store.GetItem(ctx, line.ItemCode)
		if err != nil {
			return nil, fmt.Errorf("get item %s: %w", line.ItemCode, err)
		}
		if item != nil {
			catalog[line.ItemCode] = *item
		}
	}

	return s.conv.Convert(converter.Input{
		Document: doc,
		Customer: customer,
		Owner:    owner,
		Items:    catalog,
	})
}

// failBatch drives every submitted document into Error state after a
// transport or application-level submission failure, dispatches the error
// notification when enabled, and reports the provider diagnostics verbatim.
func (s *Service) failBatch(ctx context.Context, sent []*document.SalesDocument, detalles []DocumentError, cause error) (*Result, error) {
	s.log.Error("envío de lote fallido", "error", cause, "documentos", len(sent))

	mensaje := cause.Error()
	names := make([]string, 0, len(sent))
	for _, doc := range sent {
		estado := document.StatusError
		reintentos := doc.NextRetryCount()
		ann := document.Annotations{
			Estado:        &estado,
			MensajeEstado: &mensaje,
			Reintentos:    &reintentos,
		}
		if err := s.store.UpdateAnnotations(ctx, doc.Name, ann); err != nil {
			return nil, fmt.Errorf("update document %s: %w", doc.Name, err)
		}
		names = append(names, doc.Name)
	}

	if s.settings.NotifyOnError && s.notifier != nil {
		if err := s.notifier.NotifyError(ctx, names, mensaje); err != nil {
			s.log.Warn("no se pudo enviar la notificación de error", "error", err)
		}
	}

	var apiErr *de.APIError
	if errors.As(cause, &apiErr) {
		for _, item := range apiErr.Errores {
			detalle := DocumentError{Error: item.Error}
			if item.Index >= 0 && item.Index < len(sent) {
				detalle.Document = sent[item.Index].Name
			}
			detalles = append(detalles, detalle)
		}
	}

	return &Result{
		Success:  false,
		Error:    mensaje,
		Detalles: detalles,
	}, nil
}

func (s *Service) saveBatchLog(ctx context.Context, loteID string, fechaEnvio time.Time, tipo document.Type, sent []*document.SalesDocument, lote *de.LoteResult) (int64, error) {
	raw, err := json.Marshal(lote)
	if err != nil {
		return 0, fmt.Errorf("marshal lote result: %w", err)
	}

	entry := batchlog.Entry{
		LoteID:        loteID,
		FechaEnvio:    fechaEnvio,
		TipoDocumento: tipo,
		Cantidad:      len(sent),
		Estado:        string(document.StatusEnviado),
		Mensaje:       string(raw),
	}
	for i, doc := range sent {
		outcome := batchlog.DocumentOutcome{
			DocumentName: doc.Name,
			Estado:       document.StatusEnviado,
		}
		if i < len(lote.DEList) {
			outcome.CDC = lote.DEList[i].CDC
		} else {
			outcome.Estado = document.StatusError
			outcome.Mensaje = "sin resultado en la respuesta del lote"
		}
		entry.Documentos = append(entry.Documentos, outcome)
	}

	return s.logs.Save(ctx, entry)
}

// PendingDocuments lists submitted sales documents with their FacturaSend
// state, optionally filtered by type and posting-date range.
func (s *Service) PendingDocuments(ctx context.Context, q document.PendingQuery) ([]document.SalesDocument, error) {
	return s.store.ListPending(ctx, q)
}

// ResetError moves one document from Error back to Pendiente and clears its
// retry counter.
func (s *Service) ResetError(ctx context.Context, name string) error {
	unlock := s.locks.LockAll([]string{name})
	defer unlock()

	doc, err := s.store.GetDocument(ctx, name)
	if err != nil {
		return fmt.Errorf("get document %s: %w", name, err)
	}
	if doc.Estado != document.StatusError {
		return errNotInError
	}

	estado := document.StatusPendiente
	mensaje := ""
	reintentos := 0
	return s.store.UpdateAnnotations(ctx, name, document.Annotations{
		Estado:        &estado,
		MensajeEstado: &mensaje,
		Reintentos:    &reintentos,
	})
}

// DownloadKUDE fetches the rendered PDF for the named documents. Documents
// without a CDC are rejected before any remote call.
func (s *Service) DownloadKUDE(ctx context.Context, names []string) ([]byte, error) {
	if len(names) == 0 {
		return nil, errNoDocuments
	}

	cdcs := make([]string, 0, len(names))
	for _, name := range names {
		doc, err := s.store.GetDocument(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("get document %s: %w", name, err)
		}
		if doc.CDC != "" {
			cdcs = append(cdcs, doc.CDC)
		}
	}
	if len(cdcs) == 0 {
		return nil, errNoCDC
	}

	return s.provider.DownloadPDF(ctx, cdcs)
}

// BatchLog fetches one immutable batch log entry by provider lote id.
func (s *Service) BatchLog(ctx context.Context, loteID string) (*batchlog.Entry, error) {
	return s.logs.FindByLoteID(ctx, loteID)
}
