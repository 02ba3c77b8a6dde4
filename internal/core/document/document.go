package document

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type classifies a sales document for electronic invoicing purposes.
// The three variants share one underlying storage table in the ERP and are
// distinguished only by the is_return / is_debit_note flags.
type Type string

const (
	TypeFactura     Type = "FC"
	TypeNotaCredito Type = "NC"
	TypeNotaDebito  Type = "ND"
)

// Classify derives the document type from the ERP classification flags.
func Classify(isReturn, isDebitNote bool) Type {
	switch {
	case isDebitNote:
		return TypeNotaDebito
	case isReturn:
		return TypeNotaCredito
	default:
		return TypeFactura
	}
}

// Code returns the FacturaSend tipoDocumento code for the type.
func (t Type) Code() int {
	switch t {
	case TypeNotaCredito:
		return 5
	case TypeNotaDebito:
		return 4
	default:
		return 1
	}
}

// Label returns the human-readable name used in batch logs and listings.
func (t Type) Label() string {
	switch t {
	case TypeNotaCredito:
		return "Nota de Crédito"
	case TypeNotaDebito:
		return "Nota de Débito"
	default:
		return "Factura"
	}
}

// Status is the per-document submission state.
//
// Pendiente → Enviado → {Aprobado | Rechazado}, with Error reachable from
// Pendiente/Enviado on a failed submission and Error → Pendiente via an
// explicit reset. Aprobado is terminal.
type Status string

const (
	StatusPendiente Status = "Pendiente"
	StatusEnviado   Status = "Enviado"
	StatusAprobado  Status = "Aprobado"
	StatusRechazado Status = "Rechazado"
	StatusError     Status = "Error"
)

// SalesDocument is a submitted ERP sales document (invoice, credit note or
// debit note) plus the FacturaSend annotation fields this service owns.
type SalesDocument struct {
	Name         string
	Customer     string
	CustomerName string
	Owner        string
	PostingDate  time.Time
	GrandTotal   decimal.Decimal
	Currency     string
	PaymentMode  string
	IsReturn     bool
	IsDebitNote  bool

	Items           []LineItem
	PaymentSchedule []Installment

	// Optional "code - label" configuration strings from the ERP custom
	// fields. Empty values fall back to the FacturaSend defaults.
	Descripcion     string
	Observacion     string
	TipoEmision     string
	TipoTransaccion string
	TipoImpuesto    string
	Presencia       string
	EntregaTipo     string

	// FacturaSend annotations.
	CDC           string
	Estado        Status
	MensajeEstado string
	LoteID        string
	FechaEnvio    *time.Time
	Reintentos    int
}

// LineItem is one document line.
type LineItem struct {
	ItemCode    string
	ItemName    string
	Description string
	Qty         decimal.Decimal
	Rate        decimal.Decimal
}

// Installment is one entry of the document's payment schedule.
type Installment struct {
	DueDate time.Time
	Amount  decimal.Decimal
}

// Type classifies the document via its ERP flags.
func (d *SalesDocument) Type() Type {
	return Classify(d.IsReturn, d.IsDebitNote)
}

// Submittable reports whether the document is eligible for (re)submission
// under the given retry budget. Approved documents are never resubmitted and
// documents that exhausted their retries are skipped until reset.
func (d *SalesDocument) Submittable(maxRetries int) bool {
	if d.Estado == StatusAprobado {
		return false
	}
	if d.Estado == StatusError && d.Reintentos >= maxRetries {
		return false
	}
	return true
}

// NextRetryCount returns the retry counter value after a failed submission.
// The counter only increments when the failure left an Error state behind; a
// fresh failure from Pendiente or Enviado initializes it to 1.
func (d *SalesDocument) NextRetryCount() int {
	if d.Estado == StatusError {
		return d.Reintentos + 1
	}
	return 1
}

// Customer is the resolved ERP customer record referenced by a document.
// Contribuyente holds the raw taxpayer flag as stored by the ERP, which may
// be a bool or an integer depending on the field provisioning.
type Customer struct {
	Name           string
	CustomerName   string
	Contribuyente  any
	NombreFantasia string
	TipoOperacion  string
	Pais           string
	PaisDesc       string
	TipoContrib    string
	DocumentoTipo  string
	DocumentoNum   string
	RUC            string
	Telefono       string
	Celular        string
	Email          string

	Direccion        string
	NumeroCasa       string
	Departamento     string
	DepartamentoDesc string
	Distrito         string
	DistritoDesc     string
	Ciudad           string
	CiudadDesc       string
}

// User is the issuing ERP user of a document.
type User struct {
	Name          string
	FullName      string
	DocumentoTipo string
	DocumentoNum  string
	Cargo         string
}

// Item is the ERP catalog record behind a document line.
type Item struct {
	Code         string
	Barcodes     []string
	NCM          string
	UnidadMedida string
}
