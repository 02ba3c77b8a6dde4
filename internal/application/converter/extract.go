package converter

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
)

// zeroDecimalCurrency is the regime currency whose amounts FacturaSend
// expects as integer-valued strings, never fractional.
const zeroDecimalCurrency = "PYG"

// IsZeroDecimal reports whether amounts in the currency must be de-decimalized.
func IsZeroDecimal(currency string) bool {
	return currency == zeroDecimalCurrency
}

// SeriesParts extracts establecimiento and punto de expedición from a
// document series (expected form FC-001-001-0000123). Series with fewer than
// three segments fall back to the configured defaults. Punto is always
// zero-padded to three digits.
func SeriesParts(name, defaultEstablecimiento, defaultPunto string) (string, string) {
	parts := strings.Split(name, "-")
	if len(parts) >= 3 {
		return parts[1], padPunto(parts[2])
	}
	return defaultEstablecimiento, padPunto(defaultPunto)
}

func padPunto(punto string) string {
	for len(punto) < 3 {
		punto = "0" + punto
	}
	return punto
}

// DocumentNumber extracts the sequence number from the trailing segment of
// the document series, defaulting to 1 when absent or non-numeric.
//
// Series with equal trailing numerals but different prefixes collide here;
// the real numbering authority is the ERP's naming series. Naming series
// sometimes attach the numeral with a dot separator (NC-001-003-.0000045);
// the leading dot is stripped so the numeral parses instead of collapsing
// to the default.
func DocumentNumber(name string) int {
	parts := strings.Split(name, "-")
	if len(parts) < 4 {
		return 1
	}
	last := strings.TrimLeft(strings.TrimSpace(parts[len(parts)-1]), ".")
	n, err := strconv.Atoi(last)
	if err != nil {
		return 1
	}
	return n
}

// CodedValue resolves a numeric enumeration from either an already-numeric
// value or a human-entered configuration string of the form
// "<code> - <label>". It defaults to 1 on any parse failure and never panics.
func CodedValue(v any) int {
	switch value := v.(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	case string:
		head, _, _ := strings.Cut(value, "-")
		n, err := strconv.Atoi(strings.TrimSpace(head))
		if err != nil {
			return 1
		}
		return n
	default:
		return 1
	}
}

// CoerceBool normalizes the taxpayer flag from the representations the ERP
// may store (bool, integer 1/0, or their string forms). Unrecognized values
// fall back to def.
func CoerceBool(v any, def bool) bool {
	switch value := v.(type) {
	case bool:
		return value
	case int:
		return value != 0
	case int64:
		return value != 0
	case float64:
		return value != 0
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

// PaymentModeCode maps an ERP payment mode name to the FacturaSend delivery
// type code. Unknown modes default to cash.
func PaymentModeCode(mode string) int {
	switch strings.TrimSpace(mode) {
	case "Cash", "Efectivo":
		return 1
	case "Cheque":
		return 2
	case "Credit Card", "Tarjeta":
		return 3
	case "Bank Transfer", "Transferencia":
		return 4
	default:
		return 1
	}
}

// CurrencyDescription returns the FacturaSend description for an ISO
// currency code, echoing the code itself for unknown currencies.
func CurrencyDescription(code string) string {
	switch code {
	case "PYG":
		return "Guaraní"
	case "USD":
		return "Dólar"
	case "EUR":
		return "Euro"
	case "BRL":
		return "Real"
	default:
		return code
	}
}

// ClientCode derives a deterministic, bounded-length customer code:
// RUC stripped of separators, then the national ID number, then a content
// hash of the customer's internal key when no business identifier exists.
func ClientCode(ruc, documentoNumero, internalKey string) string {
	if code := stripSeparators(ruc); code != "" {
		return truncate(code, 15)
	}
	if code := stripSeparators(documentoNumero); code != "" {
		return truncate(code, 15)
	}
	sum := sha1.Sum([]byte(internalKey))
	return hex.EncodeToString(sum[:])[:10]
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '.', ' ', '/':
			return -1
		}
		return r
	}, s)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
