// Package lote exposes the batch submission use cases over HTTP.
package lote

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"suritec/ms_facturasend_connector/internal/application/poller"
	"suritec/ms_facturasend_connector/internal/application/submitter"
	"suritec/ms_facturasend_connector/internal/core/batchlog"
	"suritec/ms_facturasend_connector/internal/core/de"
	"suritec/ms_facturasend_connector/internal/core/document"
	httperrors "suritec/ms_facturasend_connector/internal/infrastructure/http"
)

// Service is the application surface the handler depends on.
type Service interface {
	SubmitBatch(ctx context.Context, names []string) (*submitter.Result, error)
	PendingDocuments(ctx context.Context, q document.PendingQuery) ([]document.SalesDocument, error)
	ResetError(ctx context.Context, name string) error
	DownloadKUDE(ctx context.Context, names []string) ([]byte, error)
	BatchLog(ctx context.Context, loteID string) (*batchlog.Entry, error)
}

// StatusRunner triggers one status-poll cycle on demand.
type StatusRunner interface {
	RunOnce(ctx context.Context) (poller.Stats, error)
}

// Handler adapts the submitter service and the status poller to HTTP.
type Handler struct {
	service Service
	runner  StatusRunner
	log     *slog.Logger
}

// NewHandler creates the HTTP handler for the batch API.
func NewHandler(service Service, runner StatusRunner, log *slog.Logger) *Handler {
	return &Handler{service: service, runner: runner, log: log}
}

type batchRequest struct {
	Documentos []string `json:"documentos"`
}

type pendingDocument struct {
	Name          string     `json:"name"`
	Tipo          string     `json:"tipo"`
	TipoDesc      string     `json:"tipo_descripcion"`
	Cliente       string     `json:"cliente"`
	ClienteNombre string     `json:"cliente_nombre,omitempty"`
	Fecha         string     `json:"fecha"`
	Total         string     `json:"total"`
	Moneda        string     `json:"moneda"`
	Estado        string     `json:"estado"`
	MensajeEstado string     `json:"mensaje_estado,omitempty"`
	CDC           string     `json:"cdc,omitempty"`
	LoteID        string     `json:"lote_id,omitempty"`
	FechaEnvio    *time.Time `json:"fecha_envio,omitempty"`
	Reintentos    int        `json:"reintentos"`
}

// SubmitBatch handles POST /api/v1/lote.
func (h *Handler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Solicitud inválida", []string{"el cuerpo debe ser JSON con la lista de documentos"}, h.log)
		return
	}

	result, err := h.service.SubmitBatch(r.Context(), body.Documentos)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result, h.log)
}

// PendingDocuments handles GET /api/v1/documentos/pendientes.
func (h *Handler) PendingDocuments(w http.ResponseWriter, r *http.Request) {
	q := document.PendingQuery{}

	if tipo := r.URL.Query().Get("tipo"); tipo != "" {
		switch document.Type(tipo) {
		case document.TypeFactura, document.TypeNotaCredito, document.TypeNotaDebito:
			q.Tipo = document.Type(tipo)
		default:
			httperrors.WriteError(w, http.StatusBadRequest, "Solicitud inválida", []string{"tipo debe ser FC, NC o ND"}, h.log)
			return
		}
	}

	for param, dst := range map[string]**time.Time{"desde": &q.Desde, "hasta": &q.Hasta} {
		raw := r.URL.Query().Get(param)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httperrors.WriteError(w, http.StatusBadRequest, "Solicitud inválida", []string{param + " debe tener formato YYYY-MM-DD"}, h.log)
			return
		}
		*dst = &parsed
	}

	docs, err := h.service.PendingDocuments(r.Context(), q)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	out := make([]pendingDocument, 0, len(docs))
	for _, doc := range docs {
		tipo := doc.Type()
		out = append(out, pendingDocument{
			Name:          doc.Name,
			Tipo:          string(tipo),
			TipoDesc:      tipo.Label(),
			Cliente:       doc.Customer,
			ClienteNombre: doc.CustomerName,
			Fecha:         doc.PostingDate.Format("2006-01-02"),
			Total:         doc.GrandTotal.String(),
			Moneda:        doc.Currency,
			Estado:        string(doc.Estado),
			MensajeEstado: doc.MensajeEstado,
			CDC:           doc.CDC,
			LoteID:        doc.LoteID,
			FechaEnvio:    doc.FechaEnvio,
			Reintentos:    doc.Reintentos,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"documentos": out}, h.log)
}

// ResetError handles POST /api/v1/documentos/{name}/reset.
func (h *Handler) ResetError(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		httperrors.WriteError(w, http.StatusBadRequest, "Solicitud inválida", []string{"el nombre del documento es requerido"}, h.log)
		return
	}

	if err := h.service.ResetError(r.Context(), name); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documento": name,
		"estado":    string(document.StatusPendiente),
	}, h.log)
}

// DownloadKUDE handles POST /api/v1/kude. The response body is the PDF
// returned by the provider.
func (h *Handler) DownloadKUDE(w http.ResponseWriter, r *http.Request) {
	var body batchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Solicitud inválida", []string{"el cuerpo debe ser JSON con la lista de documentos"}, h.log)
		return
	}

	pdf, err := h.service.DownloadKUDE(r.Context(), body.Documentos)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="kude.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.log.Error("failed to write PDF response", "error", err)
	}
}

// BatchLog handles GET /api/v1/lotes/{loteID}.
func (h *Handler) BatchLog(w http.ResponseWriter, r *http.Request) {
	loteID := chi.URLParam(r, "loteID")
	entry, err := h.service.BatchLog(r.Context(), loteID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	documentos := make([]map[string]any, 0, len(entry.Documentos))
	for _, outcome := range entry.Documentos {
		documentos = append(documentos, map[string]any{
			"documento": outcome.DocumentName,
			"cdc":       outcome.CDC,
			"estado":    string(outcome.Estado),
			"mensaje":   outcome.Mensaje,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":             entry.ID,
		"lote_id":        entry.LoteID,
		"fecha_envio":    entry.FechaEnvio,
		"tipo_documento": string(entry.TipoDocumento),
		"cantidad":       entry.Cantidad,
		"estado":         entry.Estado,
		"mensaje":        entry.Mensaje,
		"documentos":     documentos,
	}, h.log)
}

// RunStatusCheck handles POST /admin/estados/run.
func (h *Handler) RunStatusCheck(w http.ResponseWriter, r *http.Request) {
	stats, err := h.runner.RunOnce(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats, h.log)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var (
		validation *submitter.ValidationError
		apiErr     *de.APIError
		transport  *de.TransportError
	)
	switch {
	case errors.As(err, &validation):
		httperrors.WriteError(w, http.StatusBadRequest, "Solicitud inválida", []string{validation.Reason}, h.log)
	case errors.As(err, &apiErr), errors.As(err, &transport):
		httperrors.WriteError(w, http.StatusBadGateway, "Error del proveedor", []string{err.Error()}, h.log)
	case errors.Is(err, document.ErrNotFound), errors.Is(err, batchlog.ErrNotFound):
		httperrors.WriteError(w, http.StatusNotFound, "No encontrado", []string{err.Error()}, h.log)
	default:
		h.log.Error("unhandled service error", "error", err)
		httperrors.WriteError(w, http.StatusInternalServerError, "Error interno", []string{"ocurrió un error inesperado"}, h.log)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("failed to encode response", "error", err)
	}
}
