package converter

import (
	"fmt"

	"github.com/shopspring/decimal"

	"suritec/ms_facturasend_connector/internal/core/de"
	"suritec/ms_facturasend_connector/internal/core/document"
)

// creditTermFallbackDays is used when posting date and final due date are
// not comparable.
const creditTermFallbackDays = 30

// buildCondicion derives the payment condition. A document with at least one
// installment is a credit sale (tipo 2); it still carries one delivery line
// with the full grand total. Everything else is cash (tipo 1).
func buildCondicion(doc *document.SalesDocument) de.Condicion {
	entregaTipo := PaymentModeCode(doc.PaymentMode)
	if doc.EntregaTipo != "" {
		entregaTipo = CodedValue(doc.EntregaTipo)
	}

	entrega := de.Entrega{
		Tipo:              entregaTipo,
		Monto:             amountValue(doc.GrandTotal, doc.Currency),
		Moneda:            doc.Currency,
		MonedaDescripcion: CurrencyDescription(doc.Currency),
		Cambio:            0,
	}

	condicion := de.Condicion{
		Tipo:     1,
		Entregas: []de.Entrega{entrega},
	}

	if len(doc.PaymentSchedule) == 0 {
		return condicion
	}

	condicion.Tipo = 2
	condicion.Credito = buildCredito(doc)
	return condicion
}

func buildCredito(doc *document.SalesDocument) *de.Credito {
	cuotas := make([]de.InfoCuota, 0, len(doc.PaymentSchedule))
	for _, installment := range doc.PaymentSchedule {
		cuota := de.InfoCuota{
			Moneda: doc.Currency,
			Monto:  amountValue(installment.Amount, doc.Currency),
		}
		if !installment.DueDate.IsZero() {
			cuota.Vencimiento = installment.DueDate.Format("2006-01-02")
		}
		cuotas = append(cuotas, cuota)
	}

	return &de.Credito{
		Tipo:         1,
		Plazo:        fmt.Sprintf("%d días", creditTermDays(doc)),
		Cuotas:       len(doc.PaymentSchedule),
		MontoEntrega: 0,
		InfoCuotas:   cuotas,
	}
}

// creditTermDays is the elapsed days between the posting date and the final
// installment due date, or a fixed 30-day fallback when the dates are not
// comparable.
func creditTermDays(doc *document.SalesDocument) int {
	final := doc.PaymentSchedule[len(doc.PaymentSchedule)-1].DueDate
	if doc.PostingDate.IsZero() || final.IsZero() || !final.After(doc.PostingDate) {
		return creditTermFallbackDays
	}
	return int(final.Sub(doc.PostingDate).Hours() / 24)
}

// amountValue renders a monetary amount the way the provider expects it: a
// de-decimalized string for the zero-decimal currency, a plain float
// otherwise.
func amountValue(amount decimal.Decimal, currency string) any {
	if IsZeroDecimal(currency) {
		return amount.Round(0).String()
	}
	return amount.InexactFloat64()
}
