package document

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound marks a document, customer, user or item the ERP does not
// have. Store implementations wrap it with the missing identifier.
var ErrNotFound = errors.New("registro no encontrado")

// PendingQuery filters the pending-document listing.
type PendingQuery struct {
	Tipo  Type // zero value: all types
	Desde *time.Time
	Hasta *time.Time
}

// Annotations is a partial update of the FacturaSend fields on a sales
// document. Nil fields are left untouched.
type Annotations struct {
	CDC           *string
	Estado        *Status
	MensajeEstado *string
	LoteID        *string
	FechaEnvio    *time.Time
	Reintentos    *int
}

// Store is the boundary to the ERP's persistence of sales documents and the
// records they reference. The ERP owns all of these; this service only writes
// the annotation fields.
type Store interface {
	GetDocument(ctx context.Context, name string) (*SalesDocument, error)
	ListPending(ctx context.Context, q PendingQuery) ([]SalesDocument, error)

	// ListSent returns up to limit documents in Enviado state that carry a
	// CDC, oldest submission first. Used by the status poller.
	ListSent(ctx context.Context, limit int) ([]SalesDocument, error)

	GetCustomer(ctx context.Context, name string) (*Customer, error)
	GetUser(ctx context.Context, name string) (*User, error)
	GetItem(ctx context.Context, code string) (*Item, error)

	// UpdateAnnotations mutates the FacturaSend fields of one document. The
	// implementation must serialize concurrent updates per document (the
	// postgres adapter takes an advisory transaction lock keyed by name).
	UpdateAnnotations(ctx context.Context, name string, ann Annotations) error
}
