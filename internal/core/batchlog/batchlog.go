// Package batchlog records submission attempts against FacturaSend. Entries
// are append-only: they document the fact of an attempt, not a live object.
package batchlog

import (
	"context"
	"errors"
	"time"

	"suritec/ms_facturasend_connector/internal/core/document"
)

// ErrNotFound marks a lote with no recorded entry.
var ErrNotFound = errors.New("registro de lote no encontrado")

// DocumentOutcome is the per-document result recorded inside a batch entry.
type DocumentOutcome struct {
	DocumentName string
	CDC          string
	Estado       document.Status
	Mensaje      string
}

// Entry is one immutable batch log record.
type Entry struct {
	ID            int64
	LoteID        string
	FechaEnvio    time.Time
	TipoDocumento document.Type
	Cantidad      int
	Estado        string
	Mensaje       string
	Documentos    []DocumentOutcome
}

// Repository persists batch log entries. Entries are never updated or
// deleted once saved.
type Repository interface {
	Save(ctx context.Context, entry Entry) (int64, error)
	FindByLoteID(ctx context.Context, loteID string) (*Entry, error)
}
