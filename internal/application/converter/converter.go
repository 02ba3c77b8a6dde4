// Package converter transforms ERP sales documents into the FacturaSend
// electronic-document schema. Everything in this package is pure: no network
// or storage access happens here.
package converter

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"suritec/ms_facturasend_connector/internal/core/de"
	"suritec/ms_facturasend_connector/internal/core/document"
	"suritec/ms_facturasend_connector/internal/core/tenant"
)

// ConversionError marks a document whose data could not be mapped to the
// provider schema. It is isolated per document and never aborts a batch.
type ConversionError struct {
	Document string
	Err      error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s: %v", e.Document, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Input bundles one sales document with its resolved ERP records.
type Input struct {
	Document *document.SalesDocument
	Customer *document.Customer
	Owner    *document.User
	// Items maps item codes to catalog records. Missing entries are not an
	// error; catalog-dependent fields fall back to line data.
	Items map[string]document.Item
}

// Converter builds provider payloads from sales documents. Conversion is
// all-or-nothing per document: either a complete payload or a
// *ConversionError, never a partial object.
type Converter struct {
	settings tenant.Settings
}

// New creates a Converter bound to the tenant settings.
func New(settings tenant.Settings) *Converter {
	return &Converter{settings: settings}
}

// Convert produces the FacturaSend payload for one document.
func (c *Converter) Convert(in Input) (*de.DE, error) {
	doc := in.Document
	if doc == nil {
		return nil, &ConversionError{Document: "", Err: fmt.Errorf("documento no resuelto")}
	}
	fail := func(err error) (*de.DE, error) {
		return nil, &ConversionError{Document: doc.Name, Err: err}
	}

	if len(doc.Items) == 0 {
		return fail(fmt.Errorf("el documento no tiene items"))
	}
	if in.Customer == nil {
		return fail(fmt.Errorf("cliente %q no resuelto", doc.Customer))
	}

	establecimiento, punto := SeriesParts(doc.Name, c.settings.Establecimiento, c.settings.PuntoExpedicion)
	establecimientoNum, err := strconv.Atoi(establecimiento)
	if err != nil {
		return fail(fmt.Errorf("establecimiento %q no numérico en la serie %s", establecimiento, doc.Name))
	}

	payload := &de.DE{
		TipoDocumento:   doc.Type().Code(),
		Establecimiento: establecimientoNum,
		Punto:           punto,
		Numero:          DocumentNumber(doc.Name),
		Descripcion:     doc.Descripcion,
		Observacion:     doc.Observacion,
		Fecha:           doc.PostingDate.Format("2006-01-02T15:04:05"),
		TipoEmision:     CodedValue(orDefault(doc.TipoEmision, "1")),
		TipoTransaccion: CodedValue(orDefault(doc.TipoTransaccion, "1")),
		TipoImpuesto:    CodedValue(orDefault(doc.TipoImpuesto, "1")),
		Moneda:          doc.Currency,
		Cliente:         buildCliente(in.Customer),
		Usuario:         buildUsuario(in.Owner),
		Factura:         de.Factura{Presencia: CodedValue(orDefault(doc.Presencia, "1"))},
		Condicion:       buildCondicion(doc),
		Items:           buildItems(doc, in.Items),
	}

	return payload, nil
}

// buildCliente maps a customer record to the provider sub-record. RUC and
// the national ID fields are mutually exclusive, keyed off the taxpayer
// flag. The address block is emitted only when both city and district are
// configured; the provider requires those fields as a unit.
func buildCliente(customer *document.Customer) de.Cliente {
	contribuyente := CoerceBool(customer.Contribuyente, true)

	cliente := de.Cliente{
		Contribuyente:     contribuyente,
		RazonSocial:       customer.CustomerName,
		NombreFantasia:    orDefault(customer.NombreFantasia, customer.CustomerName),
		TipoOperacion:     CodedValue(orDefault(customer.TipoOperacion, "1")),
		Pais:              orDefault(customer.Pais, "PRY"),
		PaisDescripcion:   orDefault(customer.PaisDesc, "Paraguay"),
		TipoContribuyente: CodedValue(orDefault(customer.TipoContrib, "1")),
		Telefono:          customer.Telefono,
		Celular:           customer.Celular,
		Email:             customer.Email,
		Codigo:            ClientCode(customer.RUC, customer.DocumentoNum, customer.Name),
	}

	if contribuyente {
		cliente.RUC = customer.RUC
	} else {
		cliente.DocumentoTipo = CodedValue(orDefault(customer.DocumentoTipo, "1"))
		cliente.DocumentoNumero = customer.DocumentoNum
	}

	if customer.Ciudad != "" && customer.Distrito != "" {
		cliente.Direccion = customer.Direccion
		cliente.NumeroCasa = customer.NumeroCasa
		cliente.Distrito = CodedValue(customer.Distrito)
		cliente.DistritoDescripcion = customer.DistritoDesc
		cliente.Ciudad = CodedValue(customer.Ciudad)
		cliente.CiudadDescripcion = customer.CiudadDesc
		if customer.Departamento != "" {
			cliente.Departamento = CodedValue(customer.Departamento)
			cliente.DepartamentoDescripcion = customer.DepartamentoDesc
		}
	}

	return cliente
}

func buildUsuario(owner *document.User) de.Usuario {
	if owner == nil {
		return de.Usuario{DocumentoTipo: 1}
	}
	return de.Usuario{
		DocumentoTipo:   CodedValue(orDefault(owner.DocumentoTipo, "1")),
		DocumentoNumero: owner.DocumentoNum,
		Nombre:          owner.FullName,
		Cargo:           owner.Cargo,
	}
}

func buildItems(doc *document.SalesDocument, catalog map[string]document.Item) []de.Item {
	items := make([]de.Item, 0, len(doc.Items))
	for _, line := range doc.Items {
		record := catalog[line.ItemCode]

		unidad := 77
		if record.UnidadMedida != "" {
			unidad = CodedValue(record.UnidadMedida)
		}

		barcode := line.ItemCode
		if len(record.Barcodes) > 0 {
			barcode = record.Barcodes[0]
		}

		item := de.Item{
			Codigo:         line.ItemCode,
			Descripcion:    orDefault(line.Description, line.ItemName),
			UnidadMedida:   unidad,
			Cantidad:       line.Qty.InexactFloat64(),
			PrecioUnitario: unitPrice(line.Rate, doc.Currency),
			Cambio:         0,
			IvaTipo:        1,
			IvaBase:        100,
			Iva:            10,
			NCM:            record.NCM,
			Extras:         map[string]string{"barCode": barcode},
		}
		if line.Description != "" {
			item.Observacion = line.Description
		}

		items = append(items, item)
	}
	return items
}

// unitPrice coerces a line rate to an integer for the zero-decimal currency
// and to a float otherwise.
func unitPrice(rate decimal.Decimal, currency string) any {
	if IsZeroDecimal(currency) {
		return rate.Round(0).IntPart()
	}
	return rate.InexactFloat64()
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
